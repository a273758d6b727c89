// Package cvt indexes Freebase compound value nodes (CVTs): the intermediate nodes
// whose predicate/value sub-fields together form one fact.
package cvt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

// Store is a CVT index backend
type Store interface {
	IsCVTProperty(predicate string) bool
	CVT(id string) (model.CVTNode, error)
	Insert(subject, predicate, object string) error
	Len() (int, error)
}

type entry struct {
	predicate string // short id, e.g. people.marriage.spouse
	value     string
}

// Index is the in-memory CVT store
type Index struct {
	expecting PropertySet
	nodes     map[string][]entry
	count     int
}

var _ Store = (*Index)(nil)

// NewIndex creates an empty index answering IsCVTProperty from expecting
func NewIndex(expecting PropertySet) *Index {
	if expecting == nil {
		expecting = PropertySet{}
	}
	return &Index{
		expecting: expecting,
		nodes:     make(map[string][]entry),
	}
}

// IsCVTProperty reports whether the values of a predicate URI are CVT ids
func (x *Index) IsCVTProperty(predicate string) bool {
	return x.expecting.Contains(predicate)
}

// Insert records one triple whose subject is a CVT node
func (x *Index) Insert(subject, predicate, object string) error {
	key := model.ShortID(subject)
	x.nodes[key] = append(x.nodes[key], entry{predicate: model.ShortID(predicate), value: object})
	x.count++
	return nil
}

// CVT returns the predicate -> values map of a node, empty when unknown
func (x *Index) CVT(id string) (model.CVTNode, error) {
	var node model.CVTNode
	for _, e := range x.nodes[model.ShortID(id)] {
		node.Add(model.FreebaseURI(e.predicate), e.value)
	}
	return node, nil
}

// Len is the number of stored predicate/value pairs
func (x *Index) Len() (int, error) {
	return x.count, nil
}

// Nodes is the number of distinct CVT nodes
func (x *Index) Nodes() int {
	return len(x.nodes)
}

// Save writes one subject<TAB>predicate<TAB>value line per stored pair
func (x *Index) Save(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for subject, entries := range x.nodes {
		for _, e := range entries {
			if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", subject, e.predicate, e.value); err != nil {
				return fmt.Errorf("write cvt line: %w", err)
			}
		}
	}
	return bw.Flush()
}

// Load reads the format written by Save, appending to the current content
func (x *Index) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return fmt.Errorf("%w: cvt line %d: %q", model.ErrParse, lineNo, line)
		}
		x.nodes[parts[0]] = append(x.nodes[parts[0]], entry{predicate: parts[1], value: parts[2]})
		x.count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan cvt file: %w", err)
	}
	return nil
}

// SaveFile writes the index to path
func (x *Index) SaveFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cvt file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close cvt file: %w", closeErr)
		}
	}()
	return x.Save(f)
}

// LoadFile reads an index saved by SaveFile
func (x *Index) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cvt file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return x.Load(f)
}
