package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

// CVTSource answers compound value node lookups
type CVTSource interface {
	IsCVTProperty(predicate string) bool
	CVT(id string) (model.CVTNode, error)
}

// ReviewedFacts is the reviewed-fact membership test. A hit marks the fact used.
type ReviewedFacts interface {
	TestAndMark(subject, predicate string) bool
}

const (
	marriageSpousePath = "/ns/people.marriage.spouse"
	typeOfUnion        = "<http://rdf.freebase.com/ns/people.marriage.type_of_union>"
	domesticPartner    = "<http://rdf.freebase.com/ns/m.01g63y>"
	spousePID          = "P26"
)

// Union types stated as marriages
var marriageTypes = map[string]struct{}{
	"<http://rdf.freebase.com/ns/m.04ztj>":  {},
	"<http://rdf.freebase.com/ns/m.0jgjn>":  {},
	"<http://rdf.freebase.com/ns/m.0dl5ys>": {},
	"<http://rdf.freebase.com/ns/m.03m4r>":  {},
	"<http://rdf.freebase.com/ns/m.01bl8s>": {},
	"<http://rdf.freebase.com/ns/m.075xk9>": {},
}

// Mapper maps Freebase triples to statements
type Mapper struct {
	tables   *Tables
	cvt      CVTSource
	reviewed ReviewedFacts
	counters *stats.Counters
}

// NewMapper wires the mapper to its lookup collaborators
func NewMapper(tables *Tables, cvt CVTSource, reviewed ReviewedFacts, counters *stats.Counters) *Mapper {
	if counters == nil {
		counters = stats.New()
	}
	return &Mapper{tables: tables, cvt: cvt, reviewed: reviewed, counters: counters}
}

// Tables returns the mapping tables in use
func (m *Mapper) Tables() *Tables { return m.tables }

// Counters returns the run counters
func (m *Mapper) Counters() *stats.Counters { return m.counters }

// MapTriple maps one triple to zero or more statements. Errors matching
// model.ErrMappingFailure mean the triple has no target representation.
func (m *Mapper) MapTriple(t model.Triple) ([]model.Statement, error) {
	subject, err := m.tables.MapMID(model.ShortID(t.Subject))
	if err != nil {
		return nil, err
	}
	m.counters.Inc("triple-mapped-subject")

	isValueCVT := m.cvt.IsCVTProperty(t.Predicate)
	predicate, err := m.tables.LookupProperty(model.PropertyPath(t.Predicate), nil)
	if err != nil {
		return nil, err
	}
	m.counters.Inc("triple-mapped-subject-property")

	var objects []string
	qualifiers := map[string][]string{}
	source := map[string][]string{}
	isReviewed := m.reviewed.TestAndMark(t.Subject, t.Predicate)

	if isValueCVT && !predicate.ExpectsCompoundLiteral() {
		m.counters.Inc("triple-value-cvt")

		node, err := m.cvt.CVT(t.Object)
		if err != nil {
			return nil, err
		}

		var special map[string]model.Property
		if predicate.Kind == model.KindSpouse {
			if predicate, err = m.spouseProperty(node); err != nil {
				return nil, err
			}
			special = map[string]model.Property{marriageSpousePath: predicate}
		}

		for _, field := range node.Fields() {
			for _, value := range field.Values {
				err := m.mapField(t.Object, field.Predicate, value, special, subject, &objects, qualifiers, source)
				if err == nil {
					if m.reviewed.TestAndMark(t.Object, field.Predicate) {
						isReviewed = true
					}
					continue
				}
				// qualifiers degrade gracefully
				if !model.IsMappingFailure(err) {
					return nil, err
				}
			}
		}

		if len(objects) == 0 && predicate.IsTarget() {
			main, ok := qualifiers[predicate.PID]
			if !ok {
				return nil, model.MappingFailure("no main value in %s", t.Object)
			}
			objects = main
			delete(qualifiers, predicate.PID)
		}
	} else {
		value, err := m.Normalize(t.Object, predicate)
		if err != nil {
			return nil, err
		}
		objects = append(objects, value)
	}

	if !predicate.IsTarget() {
		return nil, model.MappingFailure("%s is not a statement property", predicate.Kind)
	}

	statements := make([]model.Statement, 0, len(objects))
	for _, object := range objects {
		object, err := formatObject(predicate.PID, object, model.IsKeyPredicate(t.Predicate))
		if err != nil {
			return nil, err
		}
		statements = append(statements, model.NewStatement(subject, predicate.PID, object, qualifiers, source, isReviewed))
	}

	m.counters.Inc("triple-used")
	m.counters.Add("claim-created", int64(len(statements)))
	return statements, nil
}

// mapField consumes one predicate/value pair of a CVT node
func (m *Mapper) mapField(node, cvtPredicate, value string, special map[string]model.Property, subject string,
	objects *[]string, qualifiers, source map[string][]string) error {
	property, err := m.tables.LookupProperty(model.PropertyPath(cvtPredicate), special)
	if err != nil {
		return err
	}

	switch property.Kind {
	case model.KindLiteral:
		v, err := m.Normalize(value, property)
		if err != nil {
			return err
		}
		*objects = append(*objects, v)
		m.counters.Inc("triple-used")
	case model.KindTarget:
		pid, v, err := m.resolveQualifier(cvtPredicate, property, value)
		if err != nil {
			return err
		}
		// the relation may be stated in both directions
		if v == subject {
			return nil
		}
		if property.IsSourceRole() {
			key := model.SourceKey(pid)
			source[key] = append(source[key], v)
		} else {
			qualifiers[pid] = append(qualifiers[pid], v)
		}
		m.counters.Inc("triple-used")
	default:
		return fmt.Errorf("%w: invalid property as qualifier %s in %s", model.ErrMapping, cvtPredicate, node)
	}
	return nil
}

// resolveQualifier normalizes a qualifier value. When that fails and the value
// is itself a CVT id, the first field of the nested node mapped to the same
// property is used instead.
func (m *Mapper) resolveQualifier(cvtPredicate string, property model.Property, value string) (string, string, error) {
	v, directErr := m.Normalize(value, property)
	if directErr == nil {
		return property.PID, v, nil
	}
	if !m.cvt.IsCVTProperty(cvtPredicate) || property.ExpectsCompoundLiteral() {
		return "", "", directErr
	}

	nested, err := m.cvt.CVT(value)
	if err != nil {
		return "", "", err
	}
	for _, field := range nested.Fields() {
		for _, nestedValue := range field.Values {
			p, err := m.tables.LookupProperty(model.PropertyPath(field.Predicate), nil)
			if err != nil || p != property {
				continue
			}
			v, err := m.Normalize(nestedValue, property)
			if err != nil {
				if model.IsMappingFailure(err) {
					continue
				}
				return "", "", err
			}
			m.counters.Inc("triple-used")
			return property.PID, v, nil
		}
	}
	return "", "", directErr
}

// spouseProperty picks the statement property of a marriage node from its type of union
func (m *Mapper) spouseProperty(node model.CVTNode) (model.Property, error) {
	spouse := model.TargetProperty(spousePID, false, model.TypeItem)

	unions := node.Values(typeOfUnion)
	if len(unions) == 0 {
		return spouse, nil
	}

	switch union := unions[0]; {
	case union == domesticPartner:
		return model.Property{}, model.MappingFailure("domestic partnership is not mapped")
	case isMarriageType(union):
		m.counters.Inc("triple-used")
		return spouse, nil
	default:
		return model.Property{}, fmt.Errorf("%w: unknown marriage type %s", model.ErrMapping, union)
	}
}

func isMarriageType(union string) bool {
	_, ok := marriageTypes[union]
	return ok
}

var (
	casCodeRe   = regexp.MustCompile(`^(\d{2})(\d{5})$`)
	numericRe   = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	keyEscapeRe = regexp.MustCompile(`\$([0-9A-F]{4})`)
	subscripts  = strings.NewReplacer(
		"0", "₀", "1", "₁", "2", "₂", "3", "₃", "4", "₄",
		"5", "₅", "6", "₆", "7", "₇", "8", "₈", "9", "₉",
	)
)

// Properties whose values must be numeric identifiers
var numericPIDs = map[string]struct{}{"P1953": {}, "P1954": {}, "P1955": {}}

// formatObject applies the per-property output rewrites to a normalized value.
// Rewrites of quoted strings work on the content between the quotes.
func formatObject(pid, object string, fromKeyNamespace bool) (string, error) {
	content, quoted := unquote(object)

	switch _, numeric := numericPIDs[pid]; {
	case pid == "P774":
		if g := casCodeRe.FindStringSubmatch(content); g != nil {
			return requote(g[1]+"-"+g[2], quoted), nil
		}
		return object, nil
	case pid == "P274":
		return subscripts.Replace(object), nil
	case numeric:
		if !numericRe.MatchString(content) {
			return "", model.MappingFailure("%s expects a numeric value, got %s", pid, object)
		}
		return object, nil
	case fromKeyNamespace:
		return UnescapeKey(object), nil
	default:
		return object, nil
	}
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return s, false
}

func requote(s string, quoted bool) string {
	if quoted {
		return `"` + s + `"`
	}
	return s
}

// UnescapeKey decodes the $XXXX escapes of Freebase keys
func UnescapeKey(key string) string {
	return keyEscapeRe.ReplaceAllStringFunc(key, func(esc string) string {
		code, err := strconv.ParseUint(esc[1:], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return ""
		}
		return string(rune(code))
	})
}
