// Package labels imports Freebase topic labels as Wikidata labels in the
// languages an item does not have yet.
package labels

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
)

const dumpCutset = ", \n\t\r"

// LanguageIndex maps item ids to the languages of their existing labels
type LanguageIndex map[string][]string

// Has reports whether qid already has a label in language
func (x LanguageIndex) Has(qid, language string) bool {
	return slices.Contains(x[qid], language)
}

// Known reports whether qid appears in the index at all
func (x LanguageIndex) Known(qid string) bool {
	_, ok := x[qid]
	return ok
}

type dumpEntity struct {
	ID     string                     `json:"id"`
	Labels map[string]json.RawMessage `json:"labels"`
}

// BuildLanguageIndex reads a Wikidata JSON dump with one entity per line, the
// form produced by the array dumps once the brackets and commas are removed
func BuildLanguageIndex(ctx context.Context, r io.Reader) (LanguageIndex, error) {
	index := LanguageIndex{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 64<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.Trim(scanner.Text(), dumpCutset)
		if !strings.HasPrefix(line, "{") {
			continue
		}

		var entity dumpEntity
		if err := json.Unmarshal([]byte(line), &entity); err != nil {
			return nil, fmt.Errorf("decode entity on line %d: %w", lineNo, err)
		}
		if entity.Labels != nil {
			index[entity.ID] = slices.Sorted(maps.Keys(entity.Labels))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan wikidata dump: %w", err)
	}
	return index, nil
}

// ReadLanguageIndex reads qid<TAB>lang lang... lines
func ReadLanguageIndex(r io.Reader) (LanguageIndex, error) {
	index := LanguageIndex{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		qid, languages, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "\t")
		if !ok {
			continue
		}
		index[qid] = strings.Fields(languages)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan label languages: %w", err)
	}
	return index, nil
}

// Write stores the index in the format read by ReadLanguageIndex
func (x LanguageIndex) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, qid := range slices.Sorted(maps.Keys(x)) {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", qid, strings.Join(x[qid], " ")); err != nil {
			return fmt.Errorf("write label languages: %w", err)
		}
	}
	return bw.Flush()
}

// LoadLanguageIndex reads the index from cachePath, or builds it from the
// dump at dumpPath and saves it to cachePath
func LoadLanguageIndex(ctx context.Context, cachePath, dumpPath string) (LanguageIndex, bool, error) {
	if f, err := os.Open(cachePath); err == nil {
		defer func() { _ = f.Close() }()
		index, err := ReadLanguageIndex(f)
		return index, true, err
	}

	in, err := os.Open(dumpPath)
	if err != nil {
		return nil, false, fmt.Errorf("open wikidata dump: %w", err)
	}
	defer func() { _ = in.Close() }()

	index, err := BuildLanguageIndex(ctx, in)
	if err != nil {
		return nil, false, err
	}

	out, err := os.Create(cachePath)
	if err != nil {
		return nil, false, fmt.Errorf("create label languages: %w", err)
	}
	if err := index.Write(out); err != nil {
		_ = out.Close()
		return nil, false, err
	}
	if err := out.Close(); err != nil {
		return nil, false, fmt.Errorf("close label languages: %w", err)
	}
	return index, false, nil
}
