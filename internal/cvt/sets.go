package cvt

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

// PropertySet holds the predicate URIs whose values are CVT node ids
type PropertySet map[string]struct{}

// Contains reports membership of a full predicate URI
func (s PropertySet) Contains(predicate string) bool {
	_, ok := s[predicate]
	return ok
}

// Add registers a full predicate URI
func (s PropertySet) Add(predicate string) {
	s[predicate] = struct{}{}
}

// ReadPropertySet reads schema paths such as /people/person/spouse_s,
// one per line, into <http://rdf.freebase.com/ns/people.person.spouse_s>
func ReadPropertySet(r io.Reader) (PropertySet, error) {
	set := PropertySet{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id := strings.TrimPrefix(strings.ReplaceAll(line, "/", "."), ".")
		set.Add(model.FreebaseURI(id))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cvt properties: %w", err)
	}
	return set, nil
}

// LoadPropertySet reads a PropertySet from a file
func LoadPropertySet(path string) (PropertySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cvt properties: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPropertySet(f)
}

// IDSet holds the short ids (m.xxx) of known CVT nodes
type IDSet map[string]struct{}

// Contains reports membership of a short id
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Add registers a short id
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// LoadIDSet reads one short id per line
func LoadIDSet(path string) (IDSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cvt ids: %w", err)
	}
	defer func() { _ = f.Close() }()

	set := IDSet{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			set.Add(id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cvt ids: %w", err)
	}
	return set, nil
}

// SaveFile writes the set to path, one short id per line in sorted order
func (s IDSet) SaveFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cvt ids: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close cvt ids: %w", closeErr)
		}
	}()

	bw := bufio.NewWriter(f)
	for _, id := range slices.Sorted(maps.Keys(s)) {
		if _, err := fmt.Fprintln(bw, id); err != nil {
			return fmt.Errorf("write cvt id: %w", err)
		}
	}
	return bw.Flush()
}
