package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

const (
	latitudePredicate  = "<http://rdf.freebase.com/ns/location.geocode.latitude>"
	longitudePredicate = "<http://rdf.freebase.com/ns/location.geocode.longitude>"
)

var (
	monolingualRe    = regexp.MustCompile(`"(.+)"@([\w\-]+)`)
	decimalRe        = regexp.MustCompile(`"(.+)"\^\^<http://www\.w3\.org/2001/XMLSchema#decimal>`)
	numberRe         = regexp.MustCompile(`"([+-]?\d+(\.\d+)?)"`)
	stringRe         = regexp.MustCompile(`"(.+)"(@en)?`)
	quotedRe         = regexp.MustCompile(`"(.+)"`)
	bracketedRe      = regexp.MustCompile(`<(.+)>`)
	typedTimeRe      = regexp.MustCompile(`"(.+)"\^\^<([^<>]+)>`)
	wikidataEntityRe = regexp.MustCompile(`<http://www\.wikidata\.org/entity/([PQ]\d+)\w?>`)
)

var lineSanitizer = strings.NewReplacer("\n", " ", `"`, " ")

// Normalize converts a raw object into the canonical serialization of the
// property's value type
func (m *Mapper) Normalize(value string, p model.Property) (string, error) {
	vt, err := p.ValueType()
	if err != nil {
		return "", err
	}
	m.counters.Inc("type-" + string(vt))

	switch vt {
	case model.TypeGlobeCoordinate:
		return m.normalizeCoordinate(value)
	case model.TypeMonolingualText:
		return normalizeMonolingualText(value)
	case model.TypeQuantity:
		return normalizeQuantity(value)
	case model.TypeString:
		return normalizeString(value)
	case model.TypeTime:
		return m.normalizeTime(value)
	case model.TypeURL:
		return normalizeURL(value)
	case model.TypeItem, model.TypeProperty:
		id, err := m.normalizeEntity(value)
		if err != nil {
			return "", err
		}
		m.counters.Inc("type-wikibase-entity-mapped")
		return id, nil
	default:
		return "", fmt.Errorf("%w: %s", model.ErrUnsupportedType, vt)
	}
}

// The literal is a CVT id whose node carries the latitude and longitude
func (m *Mapper) normalizeCoordinate(value string) (string, error) {
	node, err := m.cvt.CVT(value)
	if err != nil {
		return "", err
	}
	lat, lon := node.Values(latitudePredicate), node.Values(longitudePredicate)
	if len(lat) == 0 || len(lon) == 0 {
		return "", model.MappingFailure("invalid coordinates %s", value)
	}
	m.counters.Add("triple-used", 2)
	return "@" + strings.ReplaceAll(lat[0], `"`, "") + "/" + strings.ReplaceAll(lon[0], `"`, ""), nil
}

func normalizeMonolingualText(value string) (string, error) {
	if g := monolingualRe.FindStringSubmatch(value); g != nil {
		return g[2] + `:"` + lineSanitizer.Replace(g[1]) + `"`, nil
	}
	return "", fmt.Errorf("%w: unable to parse the text %s", model.ErrParse, value)
}

func normalizeQuantity(value string) (string, error) {
	g := decimalRe.FindStringSubmatch(value)
	if g == nil {
		g = numberRe.FindStringSubmatch(value)
	}
	if g == nil {
		return "", fmt.Errorf("%w: unable to parse the number %s", model.ErrParse, value)
	}
	n := g[1]
	if n[0] != '+' && n[0] != '-' {
		n = "+" + n
	}
	return n, nil
}

func normalizeString(value string) (string, error) {
	// Freebase adds @en to plain strings
	if g := stringRe.FindStringSubmatch(value); g != nil {
		return `"` + lineSanitizer.Replace(g[1]) + `"`, nil
	}
	return "", fmt.Errorf("%w: unable to parse the string %s", model.ErrParse, value)
}

func normalizeURL(value string) (string, error) {
	g := quotedRe.FindStringSubmatch(value)
	if g == nil {
		g = bracketedRe.FindStringSubmatch(value)
	}
	if g == nil {
		return "", fmt.Errorf("%w: unable to parse the URL %s", model.ErrParse, value)
	}
	return `"` + lineSanitizer.Replace(g[1]) + `"`, nil
}

func (m *Mapper) normalizeTime(value string) (string, error) {
	g := typedTimeRe.FindStringSubmatch(value)
	if g == nil {
		return "", fmt.Errorf("%w: unable to parse the time %s", model.ErrParse, value)
	}

	widened, err := WidenTime(g[1], g[2])
	if err != nil {
		return "", err
	}
	t, err := ParseISOTimestamp(widened)
	if err != nil {
		return "", err
	}
	m.counters.Inc("time-" + datatypeName(g[2]))

	if t.Precision > PrecisionYear && t.Year() < minPreciseYear {
		return "", model.MappingFailure("precise date before %d: %s", minPreciseYear, t)
	}
	return t.String(), nil
}

func (m *Mapper) normalizeEntity(value string) (string, error) {
	switch {
	case strings.HasPrefix(value, "<http://rdf.freebase.com/ns"):
		return m.tables.MapMID(model.ShortID(value))
	case strings.HasPrefix(value, model.WikidataEntityPrefix):
		if g := wikidataEntityRe.FindStringSubmatch(value); g != nil {
			return g[1], nil
		}
		return "", model.MappingFailure("invalid wikidata entity %s", value)
	default:
		return "", fmt.Errorf("%w: unable to parse the entity %s", model.ErrParse, value)
	}
}
