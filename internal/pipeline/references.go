package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

var (
	numericRe   = regexp.MustCompile(`^ *[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	yearMonthRe = regexp.MustCompile(`^-?\d+-\d{2}$`)
	dateRe      = regexp.MustCompile(`^-?\d+-\d{2}-\d{2}$`)
)

const referenceCutset = " .\t\n\r\x00\x0B"

// ParseReferenceLine reads a /m/xxx<TAB>/a/b/c<TAB>object<TAB>url... line into a
// triple and its reference URLs. Lines without any URL are reported as not ok.
func ParseReferenceLine(line string) (model.Triple, []string, bool) {
	parts := strings.Split(strings.Trim(line, referenceCutset), "\t")
	if len(parts) < 4 {
		return model.Triple{}, nil, false
	}

	t := model.Triple{
		Subject:   model.FreebaseURI("m." + strings.TrimPrefix(parts[0], "/m/")),
		Predicate: model.FreebaseURI(strings.Trim(strings.ReplaceAll(parts[1], "/", "."), ".")),
		Object:    referenceObject(parts[2]),
	}
	return t, parts[3:], true
}

// referenceObject types a bare object by its shape
func referenceObject(o string) string {
	switch {
	case strings.HasPrefix(o, "/m/"):
		return model.FreebaseURI("m." + o[len("/m/"):])
	case numericRe.MatchString(o):
		return typedLiteral(o, "gYear")
	case yearMonthRe.MatchString(o):
		return typedLiteral(o, "gYearMonth")
	case dateRe.MatchString(o):
		return typedLiteral(o, "date")
	default:
		return `"` + o + `"`
	}
}

func typedLiteral(value, datatype string) string {
	return `"` + value + `"^^<` + model.XMLSchemaPrefix + datatype + `>`
}

// References maps statement TSV to the URLs citing it
type References map[string][]string

// Lines renders a mapped statement with one line per reference URL, or the
// statement alone when it has none
func (r References) Lines(tsv string) []string {
	urls, ok := r[tsv]
	if !ok {
		return []string{tsv}
	}
	lines := make([]string, 0, len(urls))
	for _, url := range urls {
		lines = append(lines, strings.Replace(tsv, "\n", "\tS854\t\""+url+"\"\n", 1))
	}
	return lines
}

// loadReferences maps every reference line and keys the resulting statements by TSV
func (c *Converter) loadReferences(ctx context.Context, path string) (References, error) {
	refs := References{}
	if path == "" {
		return refs, nil
	}

	_, err := scanLines(ctx, path, "references", c.log, func(line string) error {
		t, urls, ok := ParseReferenceLine(line)
		if !ok {
			return nil
		}
		statements, err := c.mapper.MapTriple(t)
		if err != nil {
			c.logMappingError(err, line)
			return nil
		}
		for _, st := range statements {
			refs[st.TSV()] = urls
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("references mapped", "statements", len(refs))
	return refs, nil
}

func (c *Converter) logMappingError(err error, line string) {
	if model.IsMappingFailure(err) {
		c.log.Debug("triple skipped", "reason", err)
		return
	}
	c.log.Warn("mapping error", "error", err, "line", line)
}
