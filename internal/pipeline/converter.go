// Package pipeline runs the multi-pass conversion of a Freebase dump into
// statement TSV files.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/cvt"
	"github.com/ppiankov/freebase2wikidata/internal/mapping"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/reviewed"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

// Cache and output file names inside the output directory
const (
	CVTIDsFile        = "freebase-cvt-ids.csv"
	CVTTriplesFile    = "cvt-triples.tsv"
	ReviewedFactsFile = "reviewed-facts.tsv"
	MappedFile        = "freebase-mapped.tsv"
	CoordinatesFile   = "coordinates-mapped.tsv"
	ReviewedFile      = "reviewed-mapped.tsv"
)

// fileStore is a CVT store persisted as a flat file between runs
type fileStore interface {
	SaveFile(path string) error
	LoadFile(path string) error
}

type flusher interface {
	Flush() error
}

// Options selects the files of one conversion run
type Options struct {
	Input      string // Freebase dump, optionally gzipped
	References string // optional reference TSV
	OutputDir  string
}

// Result summarizes a conversion run
type Result struct {
	Lines        int
	Statements   int
	Coordinates  int
	Reviewed     int
	UsedReviewed int
	Counters     []stats.Entry
}

// Converter drives all phases of a conversion
type Converter struct {
	cfg      *model.Config
	mapper   *mapping.Mapper
	store    cvt.Store
	reviewed *reviewed.Index
	counters *stats.Counters
	log      *slog.Logger
}

// NewConverter creates a converter. The mapper must have been built on store and reviewed.
func NewConverter(cfg *model.Config, mapper *mapping.Mapper, store cvt.Store, reviewedIndex *reviewed.Index, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		cfg:      cfg,
		mapper:   mapper,
		store:    store,
		reviewed: reviewedIndex,
		counters: mapper.Counters(),
		log:      log,
	}
}

// Run executes the conversion
func (c *Converter) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	cached, err := c.cvtCached(opts)
	if err != nil {
		return nil, fmt.Errorf("cvt triples: %w", err)
	}
	if cached {
		err = c.loadCVTTriples(opts)
	} else {
		err = c.buildCVTTriples(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("cvt triples: %w", err)
	}
	if err := c.loadReviewed(ctx, opts); err != nil {
		return nil, fmt.Errorf("reviewed facts: %w", err)
	}
	refs, err := c.loadReferences(ctx, opts.References)
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}

	result, err := c.mapDump(ctx, opts, refs)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}

	result.UsedReviewed = c.reviewed.CountUsed()
	result.Counters = c.counters.Snapshot()
	c.log.Info("conversion done",
		"lines", result.Lines,
		"statements", result.Statements,
		"coordinates", result.Coordinates,
		"reviewed", result.Reviewed,
		"used_reviewed_facts", result.UsedReviewed,
	)
	return result, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (c *Converter) loadCVTIDs(ctx context.Context, opts Options) (cvt.IDSet, error) {
	path := filepath.Join(opts.OutputDir, CVTIDsFile)
	ok, err := exists(path)
	if err != nil {
		return nil, err
	}
	if ok {
		ids, err := cvt.LoadIDSet(path)
		if err != nil {
			return nil, err
		}
		c.log.Info("cvt ids loaded", "count", len(ids))
		return ids, nil
	}

	ids := cvt.IDSet{}
	_, err = scanLines(ctx, opts.Input, "cvt-ids", c.log, func(line string) error {
		t, err := model.ParseTriple(line)
		if err != nil {
			return nil
		}
		if c.store.IsCVTProperty(t.Predicate) && strings.HasPrefix(t.Object, model.FreebaseNamespace) {
			ids.Add(model.ShortID(t.Object))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ids.SaveFile(path); err != nil {
		return nil, err
	}
	c.log.Info("cvt ids built", "count", len(ids))
	return ids, nil
}

// cvtCached reports whether the CVT store can be filled without scanning the dump
func (c *Converter) cvtCached(opts Options) (bool, error) {
	if _, ok := c.store.(fileStore); ok {
		return exists(filepath.Join(opts.OutputDir, CVTTriplesFile))
	}
	n, err := c.store.Len()
	return n > 0, err
}

func (c *Converter) loadCVTTriples(opts Options) error {
	if persisted, ok := c.store.(fileStore); ok {
		if err := persisted.LoadFile(filepath.Join(opts.OutputDir, CVTTriplesFile)); err != nil {
			return err
		}
	}
	return c.logCVTSize("cvt triples loaded")
}

func (c *Converter) buildCVTTriples(ctx context.Context, opts Options) error {
	ids, err := c.loadCVTIDs(ctx, opts)
	if err != nil {
		return fmt.Errorf("cvt ids: %w", err)
	}

	_, err = scanLines(ctx, opts.Input, "cvt-triples", c.log, func(line string) error {
		t, err := model.ParseTriple(line)
		if err != nil {
			return nil
		}
		if ids.Contains(model.ShortID(t.Subject)) {
			return c.store.Insert(t.Subject, t.Predicate, t.Object)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if f, ok := c.store.(flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if persisted, ok := c.store.(fileStore); ok {
		if err := persisted.SaveFile(filepath.Join(opts.OutputDir, CVTTriplesFile)); err != nil {
			return err
		}
	}
	return c.logCVTSize("cvt triples built")
}

func (c *Converter) logCVTSize(msg string) error {
	n, err := c.store.Len()
	if err != nil {
		return err
	}
	c.log.Info(msg, "triples", n)
	return nil
}

func (c *Converter) loadReviewed(ctx context.Context, opts Options) error {
	path := filepath.Join(opts.OutputDir, ReviewedFactsFile)
	ok, err := exists(path)
	if err != nil {
		return err
	}
	if ok {
		if err := c.reviewed.LoadFile(path); err != nil {
			return err
		}
		c.log.Info("reviewed facts loaded", "count", c.reviewed.Len())
		return nil
	}

	ids, err := reviewed.LoadPropertyIDs(c.cfg.Reviewed.PropertyIDsFile)
	if err != nil {
		return err
	}
	_, err = scanLines(ctx, opts.Input, "reviewed", c.log, func(line string) error {
		if !strings.Contains(line, reviewed.Predicate) {
			return nil
		}
		t, err := model.ParseTriple(line)
		if err != nil {
			return nil
		}
		c.reviewed.Extract(t, ids)
		return nil
	})
	if err != nil {
		return err
	}
	if err := c.reviewed.SaveFile(path); err != nil {
		return err
	}
	c.log.Info("reviewed facts built", "count", c.reviewed.Len())
	return nil
}

// outputs holds the buffered writers of the mapping phase
type outputs struct {
	files   []*os.File
	writers []*bufio.Writer
}

func (o *outputs) create(path string) (*bufio.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriterSize(f, 1<<20)
	o.files = append(o.files, f)
	o.writers = append(o.writers, w)
	return w, nil
}

func (o *outputs) close() error {
	var errs []error
	for i, f := range o.files {
		errs = append(errs, o.writers[i].Flush(), f.Close())
	}
	return errors.Join(errs...)
}

func (c *Converter) mapDump(ctx context.Context, opts Options, refs References) (result *Result, err error) {
	out := &outputs{}
	defer func() {
		if closeErr := out.close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mapped, err := out.create(filepath.Join(opts.OutputDir, MappedFile))
	if err != nil {
		return nil, err
	}
	coordinates, err := out.create(filepath.Join(opts.OutputDir, CoordinatesFile))
	if err != nil {
		return nil, err
	}
	reviewedOut, err := out.create(filepath.Join(opts.OutputDir, ReviewedFile))
	if err != nil {
		return nil, err
	}

	c.counters.Reset()
	result = &Result{}

	lines, err := scanLines(ctx, opts.Input, "mapping", c.log, func(line string) error {
		t, err := model.ParseTriple(line)
		if err != nil {
			c.log.Warn("mapping error", "error", err, "line", line)
			return nil
		}
		statements, err := c.mapper.MapTriple(t)
		if err != nil {
			c.logMappingError(err, line)
			return nil
		}

		for _, st := range statements {
			tsv := st.TSV()
			if st.IsCoordinate() {
				result.Coordinates++
				if _, err := coordinates.WriteString(tsv); err != nil {
					return fmt.Errorf("write coordinates: %w", err)
				}
			} else {
				result.Statements++
				for _, l := range refs.Lines(tsv) {
					if _, err := mapped.WriteString(l); err != nil {
						return fmt.Errorf("write statements: %w", err)
					}
				}
			}
			if st.Reviewed {
				result.Reviewed++
				if _, err := reviewedOut.WriteString(tsv); err != nil {
					return fmt.Errorf("write reviewed: %w", err)
				}
			}
		}
		return nil
	})
	result.Lines = lines
	if err != nil {
		return nil, err
	}
	return result, nil
}
