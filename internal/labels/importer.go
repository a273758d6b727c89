package labels

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

// ItemMapper resolves Freebase MIDs to item ids
type ItemMapper interface {
	MapMID(mid string) (string, error)
}

// LanguageCount is the per-language tally of one label category
type LanguageCount struct {
	Language string
	Count    int
}

// Report tallies an import run per language
type Report struct {
	Mapped      map[string]int // labels of mapped topics
	New         map[string]int
	Existing    map[string]int
	MissingData int // mapped items absent from the language index
	Invalid     int
}

func newReport() *Report {
	return &Report{Mapped: map[string]int{}, New: map[string]int{}, Existing: map[string]int{}}
}

// Total sums a per-language category
func Total(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// Ranked orders a per-language category by decreasing count
func Ranked(counts map[string]int) []LanguageCount {
	ranked := make([]LanguageCount, 0, len(counts))
	for language, n := range counts {
		ranked = append(ranked, LanguageCount{Language: language, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Language < ranked[j].Language
	})
	return ranked
}

// Importer writes the labels missing from Wikidata
type Importer struct {
	cfg      model.LabelsConfig
	items    ItemMapper
	index    LanguageIndex
	counters *stats.Counters
	log      *slog.Logger
}

// NewImporter creates an importer over a language index
func NewImporter(cfg model.LabelsConfig, items ItemMapper, index LanguageIndex, counters *stats.Counters, log *slog.Logger) *Importer {
	if counters == nil {
		counters = stats.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Importer{cfg: cfg, items: items, index: index, counters: counters, log: log}
}

// ParseLabel splits a mid<TAB>"label"@lang line. The language follows the last @
// and is lower-cased; the label keeps its serialization.
func ParseLabel(line string) (mid, label, language string, err error) {
	mid, serialized, ok := strings.Cut(strings.TrimSpace(line), "\t")
	if !ok {
		return "", "", "", fmt.Errorf("%w: label line %q", model.ErrParse, line)
	}
	at := strings.LastIndex(serialized, "@")
	if at < 0 {
		return "", "", "", fmt.Errorf("%w: label without language %q", model.ErrParse, serialized)
	}
	return model.ShortID(mid), serialized[:at], strings.ToLower(serialized[at+1:]), nil
}

// Language applies the conversion table. ok is false for denied languages.
func (im *Importer) Language(language string) (string, bool) {
	if converted, found := im.cfg.LanguageConversion[language]; found {
		language = converted
	}
	return language, !slices.Contains(im.cfg.LanguageDenyList, language)
}

// Run reads label lines from r and writes qid<TAB>lang<TAB>label lines to w
func (im *Importer) Run(ctx context.Context, r io.Reader, w io.Writer) (*Report, error) {
	report := newReport()
	bw := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		mid, label, language, err := ParseLabel(scanner.Text())
		if err != nil {
			report.Invalid++
			im.log.Debug("label skipped", "line", lineNo, "error", err)
			continue
		}

		language, ok := im.Language(language)
		if !ok {
			continue
		}
		qid, err := im.items.MapMID(mid)
		if err != nil {
			continue
		}
		report.Mapped[language]++
		im.counters.Inc("labels-mapped")

		if !im.index.Known(qid) {
			report.MissingData++
			im.counters.Inc("labels-missing-data")
			continue
		}
		if im.index.Has(qid, language) {
			report.Existing[language]++
			im.counters.Inc("labels-existing")
			continue
		}

		if _, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", qid, language, label); err != nil {
			return nil, fmt.Errorf("write label: %w", err)
		}
		report.New[language]++
		im.counters.Inc("labels-new")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan labels: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("flush labels: %w", err)
	}
	return report, nil
}
