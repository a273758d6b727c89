package pipeline

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// progressInterval is the number of lines between progress log entries
const progressInterval = 1_000_000

const maxLineBytes = 16 << 20

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// OpenInput opens a dump file, decompressing it when the name ends in .gz
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open gzip input %s: %w", path, err)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

// scanLines calls fn for every line of the file at path and logs progress
func scanLines(ctx context.Context, path, phase string, log *slog.Logger, fn func(line string) error) (int, error) {
	r, err := OpenInput(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	count := 0
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return count, err
		}
		count++
		if count%progressInterval == 0 {
			if err := ctx.Err(); err != nil {
				return count, err
			}
			log.Info("progress", "phase", phase, "lines", count)
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("%s: read %s: %w", phase, path, err)
	}
	return count, ctx.Err()
}
