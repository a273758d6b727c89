// Package mapping turns Freebase triples into Wikidata statements using the item and
// property mapping tables, the CVT index and the reviewed-fact index.
package mapping

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

// Tables holds the item and property mapping tables. They are built once
// and read-only afterwards.
type Tables struct {
	items      map[string]string         // m.xxx -> Qxxx
	properties map[string]model.Property // /ns/a.b.c or /key/a.b.c -> property
}

// NewTables wraps prebuilt maps
func NewTables(items map[string]string, properties map[string]model.Property) *Tables {
	if items == nil {
		items = map[string]string{}
	}
	if properties == nil {
		properties = map[string]model.Property{}
	}
	return &Tables{items: items, properties: properties}
}

// MapMID returns the item mapped to a Freebase MID
func (t *Tables) MapMID(mid string) (string, error) {
	if qid, ok := t.items[mid]; ok {
		return qid, nil
	}
	return "", model.MappingFailure("unmapped item %s", mid)
}

// IsMIDMapped reports whether a MID (m.abcdef or g.foo) has an item
func (t *Tables) IsMIDMapped(mid string) bool {
	_, ok := t.items[mid]
	return ok
}

// LookupProperty resolves a property path such as /ns/people.person.gender.
// Entries of special take precedence over the table.
func (t *Tables) LookupProperty(path string, special map[string]model.Property) (model.Property, error) {
	if p, ok := special[path]; ok {
		return p, nil
	}
	if p, ok := t.properties[path]; ok {
		return p, nil
	}
	return model.Property{}, model.MappingFailure("unmapped property %s", path)
}

// IsPropertyMapped reports whether a property path has an entry
func (t *Tables) IsPropertyMapped(path string) bool {
	_, ok := t.properties[path]
	return ok
}

// ItemCount is the size of the item table
func (t *Tables) ItemCount() int { return len(t.items) }

// PropertyCount is the size of the property table
func (t *Tables) PropertyCount() int { return len(t.properties) }

// TargetPIDs lists the distinct Wikidata property ids of target entries, sorted
func (t *Tables) TargetPIDs() []string {
	seen := map[string]struct{}{}
	for _, p := range t.properties {
		if p.IsTarget() {
			seen[p.PID] = struct{}{}
		}
	}
	pids := make([]string, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	return pids
}

// SetPropertyTypes fills the value type of every target entry whose PID is in types
func (t *Tables) SetPropertyTypes(types map[string]model.ValueType) {
	for path, p := range t.properties {
		if !p.IsTarget() {
			continue
		}
		if vt, ok := types[p.PID]; ok {
			t.properties[path] = p.WithType(vt)
		}
	}
}

// BuildItemMap reads the pair files and the redirects of cfg.Directory, then
// applies the configured overrides and exclusions
func BuildItemMap(cfg model.MappingConfig, counters *stats.Counters, log *slog.Logger) (map[string]string, error) {
	redirects := map[string]string{}
	redirectsPath := filepath.Join(cfg.Directory, cfg.RedirectsFile)
	if cfg.RedirectsFile != "" {
		if _, err := os.Stat(redirectsPath); err == nil {
			if err := readPairsFile(redirectsPath, log, func(from, to string) {
				redirects[from] = to
			}); err != nil {
				return nil, err
			}
		}
	}

	files, err := PairFiles(cfg.Directory, cfg.PairsPattern)
	if err != nil {
		return nil, err
	}

	counters.Set("mapping-item-differences", 0)
	counters.Set("redirection-resolved", 0)

	items := map[string]string{}
	for _, file := range files {
		err := readPairsFile(file, log, func(mid, qid string) {
			if target, ok := redirects[qid]; ok {
				qid = target
				counters.Inc("redirection-resolved")
			}
			if prev, ok := items[mid]; ok && prev != qid {
				counters.Inc("mapping-item-differences")
			}
			items[mid] = qid
		})
		if err != nil {
			return nil, err
		}
	}

	for _, o := range cfg.ItemOverrides {
		items[o.From] = o.To
	}
	for _, mid := range cfg.ItemExclusions {
		delete(items, mid)
	}

	counters.Set("mapping-item", int64(len(items)))
	return items, nil
}

// PairFiles returns the files of dir matching pattern in sorted order
func PairFiles(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.pairs"
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob mapping files: %w", err)
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	return files, nil
}

func readPairsFile(path string, log *slog.Logger, fn func(from, to string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mapping file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := readPairs(f, path, log, fn); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func readPairs(r io.Reader, name string, log *slog.Logger, fn func(from, to string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			log.Warn("invalid mapping line", "file", name, "line", line)
			continue
		}
		fn(parts[0], parts[1])
	}
	return scanner.Err()
}

// BuildPropertyMap parses the mapping wikitext, then applies the configured
// overrides and prefix filters. Rows whose cell cannot be parsed are ignored.
func BuildPropertyMap(wikitext string, cfg model.MappingConfig, counters *stats.Counters) (map[string]model.Property, error) {
	properties := map[string]model.Property{}
	for _, row := range ParseMappingWikitext(wikitext) {
		p, err := model.ParseProperty(row.Cell)
		if err != nil {
			continue
		}
		properties[row.Path] = p
	}

	for _, o := range cfg.PropertyOverrides {
		p, err := model.ParseProperty(o.To)
		if err != nil {
			return nil, fmt.Errorf("property override %s: %w", o.From, err)
		}
		properties[o.From] = p
	}

	for path := range properties {
		for _, prefix := range cfg.PropertyPrefixFilter {
			if prefix != "" && strings.HasPrefix(path, prefix) {
				delete(properties, path)
				break
			}
		}
	}

	counters.Set("mapping-property", int64(len(properties)))
	return properties, nil
}

// ReadPropertyTypes reads PID<TAB>datatype lines
func ReadPropertyTypes(r io.Reader) (map[string]model.ValueType, error) {
	types := map[string]model.ValueType{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		pid, vt, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "\t")
		if !ok {
			continue
		}
		types[pid] = model.ValueType(vt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan property types: %w", err)
	}
	return types, nil
}

// WritePropertyTypes writes the format read by ReadPropertyTypes, sorted by PID
func WritePropertyTypes(w io.Writer, types map[string]model.ValueType) error {
	pids := make([]string, 0, len(types))
	for pid := range types {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	bw := bufio.NewWriter(w)
	for _, pid := range pids {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", pid, types[pid]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
