// Package reconcile matches Freebase topics to Wikidata items through shared
// external identifiers stored under the Freebase /key/ namespace.
package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/mapping"
	"github.com/ppiankov/freebase2wikidata/internal/model"
)

var keyObjectRe = regexp.MustCompile(`^"(.*)"(@en)?`)

const wikidataValueCutset = "\" \n\t"

// KeyProperties returns the /key/ paths mapped to a plain {{P|n}} property
func KeyProperties(wikitext string) map[string]string {
	pids := map[string]string{}
	for _, row := range mapping.ParseMappingWikitext(wikitext) {
		if !row.IsKey() {
			continue
		}
		p, err := model.ParseProperty(row.Cell)
		if err != nil || !p.IsTarget() || p.IsSourceRole() {
			continue
		}
		pids[row.Path] = p.PID
	}
	return pids
}

// Result counts a reconciliation run
type Result struct {
	KeysUsed     int
	WikidataIDs  int
	FreebaseKeys int
	MatchedAll   int
	Matched      map[string]int // per property
	Mapped       int
	Conflicts    int
}

type keyRef struct {
	pid   string
	value string
}

// Reconciler joins the Wikidata and Freebase sides on property and value
type Reconciler struct {
	pids   map[string]string // /key/ path -> PID
	used   map[string]bool
	result *Result

	wikidata map[string]map[string]string // PID -> value -> QID
	freebase map[string]map[string]string // PID -> value -> MID
	order    []keyRef
}

// New creates a reconciler over the key properties of the mapping page
func New(pids map[string]string) *Reconciler {
	used := make(map[string]bool, len(pids))
	for _, pid := range pids {
		used[pid] = true
	}
	return &Reconciler{
		pids:     pids,
		used:     used,
		result:   &Result{KeysUsed: len(pids), Matched: map[string]int{}},
		wikidata: map[string]map[string]string{},
		freebase: map[string]map[string]string{},
	}
}

// ReadWikidata indexes subject<TAB>property<TAB>value lines by lower-cased value.
// A later line for the same value wins.
func (rc *Reconciler) ReadWikidata(ctx context.Context, r io.Reader) error {
	return eachLine(ctx, r, func(line string) error {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 || !rc.used[parts[1]] {
			return nil
		}
		values, ok := rc.wikidata[parts[1]]
		if !ok {
			values = map[string]string{}
			rc.wikidata[parts[1]] = values
		}
		values[strings.ToLower(strings.Trim(parts[2], wikidataValueCutset))] = parts[0]
		rc.result.WikidataIDs++
		return nil
	})
}

// ReadFreebase indexes /key/ triples by their unescaped lower-cased key
func (rc *Reconciler) ReadFreebase(ctx context.Context, r io.Reader) error {
	return eachLine(ctx, r, func(line string) error {
		t, err := model.ParseTriple(line)
		if err != nil {
			return nil
		}
		pid, ok := rc.pids[model.PropertyPath(t.Predicate)]
		if !ok {
			return nil
		}
		m := keyObjectRe.FindStringSubmatch(t.Object)
		if m == nil {
			return nil
		}

		value := strings.ToLower(mapping.UnescapeKey(m[1]))
		values, ok := rc.freebase[pid]
		if !ok {
			values = map[string]string{}
			rc.freebase[pid] = values
		}
		if _, seen := values[value]; !seen {
			rc.order = append(rc.order, keyRef{pid: pid, value: value})
		}
		values[value] = model.ShortID(t.Subject)
		rc.result.FreebaseKeys++
		return nil
	})
}

// Match joins both sides and writes mid<TAB>qid pairs. A topic matched to two
// different items keeps the first and counts a conflict.
func (rc *Reconciler) Match(w io.Writer) (*Result, error) {
	mapped := map[string]string{}
	bw := bufio.NewWriter(w)

	for _, ref := range rc.order {
		qid, ok := rc.wikidata[ref.pid][ref.value]
		if !ok {
			continue
		}
		mid := rc.freebase[ref.pid][ref.value]

		rc.result.MatchedAll++
		rc.result.Matched[ref.pid]++
		if previous, ok := mapped[mid]; ok {
			if previous != qid {
				rc.result.Conflicts++
			}
			continue
		}
		mapped[mid] = qid
		rc.result.Mapped++
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", mid, qid); err != nil {
			return nil, fmt.Errorf("write pair: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush pairs: %w", err)
	}
	return rc.result, nil
}

func eachLine(ctx context.Context, r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	n := 0
	for scanner.Scan() {
		n++
		if n%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}
