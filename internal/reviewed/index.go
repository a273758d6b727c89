// Package reviewed tracks the (subject, property) pairs Freebase marks as
// human-reviewed, recording which of them the mapper actually consumed.
package reviewed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

// Predicate marking a reviewed fact in the dump
const Predicate = "<http://rdf.freebase.com/ns/freebase.valuenotation.is_reviewed>"

type state uint8

const (
	unused state = iota
	used
)

// Index is the set of reviewed facts with a used flag per fact
type Index struct {
	mu    sync.Mutex
	facts map[string]state
}

// New creates an empty index
func New() *Index {
	return &Index{facts: make(map[string]state)}
}

func key(subject, property string) string {
	return model.ShortID(subject) + "\t" + model.ShortID(property)
}

// Insert registers a reviewed fact. subject is a full URI or short id,
// property the short id of the predicate (e.g. people.person.gender)
func (x *Index) Insert(subject, property string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	k := key(subject, property)
	if _, ok := x.facts[k]; !ok {
		x.facts[k] = unused
	}
}

// TestAndMark reports whether the fact is reviewed and marks it used
func (x *Index) TestAndMark(subject, predicate string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	k := key(subject, predicate)
	if _, ok := x.facts[k]; !ok {
		return false
	}
	x.facts[k] = used
	return true
}

// Len is the number of reviewed facts
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.facts)
}

// CountUsed is the number of facts consumed by TestAndMark
func (x *Index) CountUsed() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := 0
	for _, s := range x.facts {
		if s == used {
			n++
		}
	}
	return n
}

// Save writes one subject<TAB>property key per line, sorted
func (x *Index) Save(w io.Writer) error {
	x.mu.Lock()
	keys := make([]string, 0, len(x.facts))
	for k := range x.facts {
		keys = append(keys, k)
	}
	x.mu.Unlock()
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	for _, k := range keys {
		if _, err := bw.WriteString(k + "\n"); err != nil {
			return fmt.Errorf("write reviewed fact: %w", err)
		}
	}
	return bw.Flush()
}

// Load reads keys written by Save; every loaded fact starts unused
func (x *Index) Load(r io.Reader) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.Contains(line, "\t") {
			return fmt.Errorf("%w: reviewed fact %q", model.ErrParse, line)
		}
		x.facts[line] = unused
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan reviewed facts: %w", err)
	}
	return nil
}

// SaveFile writes the index to path
func (x *Index) SaveFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create reviewed file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close reviewed file: %w", closeErr)
		}
	}()
	return x.Save(f)
}

// LoadFile reads an index saved by SaveFile
func (x *Index) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open reviewed file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return x.Load(f)
}

// PropertyIDs maps Freebase property MIDs to their schema short ids
type PropertyIDs map[string]string

// ReadPropertyIDs reads mid<TAB>/a/b/c lines into mid -> a.b.c
func ReadPropertyIDs(r io.Reader) (PropertyIDs, error) {
	ids := PropertyIDs{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.SplitN(strings.TrimSpace(scanner.Text()), "\t", 2)
		if len(parts) != 2 {
			continue
		}
		ids[parts[0]] = strings.TrimPrefix(strings.ReplaceAll(parts[1], "/", "."), ".")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan property ids: %w", err)
	}
	return ids, nil
}

// LoadPropertyIDs reads PropertyIDs from a file
func LoadPropertyIDs(path string) (PropertyIDs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open property ids: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPropertyIDs(f)
}

// Extract registers the fact carried by a reviewed-notation triple. It returns
// false when the triple is not one or its property MID is unknown
func (x *Index) Extract(t model.Triple, ids PropertyIDs) bool {
	if t.Predicate != Predicate {
		return false
	}
	property, ok := ids[model.ShortID(t.Object)]
	if !ok {
		return false
	}
	x.Insert(t.Subject, property)
	return true
}
