// Package bot imports mapped statements into existing Wikidata items. It parses
// the TSV statements produced by the converter, compares them with the claims
// already present, and batches the accepted ones per item.
package bot

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
)

// Snak is a property/value assertion. Type is one of the wikidata.Snak* constants.
type Snak struct {
	Property string
	Type     string
	Value    wikidata.Value
}

// ValueSnak builds a property/value snak
func ValueSnak(property string, v wikidata.Value) Snak {
	return Snak{Property: property, Type: wikidata.SnakValue, Value: v}
}

// Statement is a claim with its qualifiers and reference blocks
type Statement struct {
	GUID       string
	Main       Snak
	Qualifiers []Snak
	References [][]Snak
}

// FullStatement is a statement with its subject
type FullStatement struct {
	Subject   string
	Statement Statement
}

var (
	itemRe     = regexp.MustCompile(`^Q\d+$`)
	propertyRe = regexp.MustCompile(`^P\d+$`)
	sourceRe   = regexp.MustCompile(`^S\d+$`)

	coordinateRe  = regexp.MustCompile(`^@([+\-]?\d+(?:\.(\d+))?)/([+\-]?\d+(?:\.(\d+))?)$`)
	timeRe        = regexp.MustCompile(`^([+-]\d+-\d\d-\d\dT\d\d:\d\d:\d\dZ)/(\d+)$`)
	quantityRe    = regexp.MustCompile(`^[+-]\d+(\.\d+)?$`)
	monolingualRe = regexp.MustCompile(`^([a-z]+(?:-[a-z0-9]+)*):"(.*)"$`)
	stringRe      = regexp.MustCompile(`^"(.*)"$`)
)

// ParseStatement reads one TSV statement. P keys become qualifiers and S keys
// form a single reference block.
func ParseStatement(line string) (FullStatement, error) {
	tsv, err := model.ParseStatementTSV(line)
	if err != nil {
		return FullStatement{}, err
	}
	if !itemRe.MatchString(tsv.Subject) {
		return FullStatement{}, fmt.Errorf("%w: invalid subject %q", model.ErrParse, tsv.Subject)
	}

	main, err := parseSnak(tsv.Property, tsv.Value)
	if err != nil {
		return FullStatement{}, err
	}
	st := Statement{Main: main}

	for _, key := range sortedKeys(tsv.Qualifiers) {
		for _, v := range tsv.Qualifiers[key] {
			snak, err := parseSnak(key, v)
			if err != nil {
				return FullStatement{}, err
			}
			st.Qualifiers = append(st.Qualifiers, snak)
		}
	}

	var reference []Snak
	for _, key := range sortedKeys(tsv.Source) {
		if !sourceRe.MatchString(key) {
			return FullStatement{}, fmt.Errorf("%w: invalid source key %q", model.ErrParse, key)
		}
		for _, v := range tsv.Source[key] {
			snak, err := parseSnak("P"+key[1:], v)
			if err != nil {
				return FullStatement{}, err
			}
			reference = append(reference, snak)
		}
	}
	if len(reference) > 0 {
		st.References = append(st.References, reference)
	}

	return FullStatement{Subject: tsv.Subject, Statement: st}, nil
}

func parseSnak(property, serialization string) (Snak, error) {
	if !propertyRe.MatchString(property) {
		return Snak{}, fmt.Errorf("%w: invalid property %q", model.ErrParse, property)
	}
	v, err := ParseValue(serialization)
	if err != nil {
		return Snak{}, err
	}
	return ValueSnak(property, v), nil
}

// ParseValue reads a canonical value serialization
func ParseValue(s string) (wikidata.Value, error) {
	if itemRe.MatchString(s) || propertyRe.MatchString(s) {
		return wikidata.EntityValue(s), nil
	}

	if m := coordinateRe.FindStringSubmatch(s); m != nil {
		lat, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return wikidata.Value{}, fmt.Errorf("%w: latitude %q", model.ErrParse, m[1])
		}
		lon, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return wikidata.Value{}, fmt.Errorf("%w: longitude %q", model.ErrParse, m[3])
		}
		decimals := max(len(m[2]), len(m[4]))
		return wikidata.GlobeCoordinateValue(lat, lon, math.Pow10(-decimals)), nil
	}

	if m := timeRe.FindStringSubmatch(s); m != nil {
		precision, err := strconv.Atoi(m[2])
		if err != nil {
			return wikidata.Value{}, fmt.Errorf("%w: precision %q", model.ErrParse, m[2])
		}
		return wikidata.TimeValue(m[1], precision), nil
	}

	if quantityRe.MatchString(s) {
		return wikidata.QuantityValue(s), nil
	}
	if m := monolingualRe.FindStringSubmatch(s); m != nil {
		return wikidata.MonolingualTextValue(m[1], m[2]), nil
	}
	if m := stringRe.FindStringSubmatch(s); m != nil {
		return wikidata.StringValue(m[1]), nil
	}

	return wikidata.Value{}, fmt.Errorf("%w: unknown value serialization %q", model.ErrParse, s)
}

// FromClaim converts an existing wire claim
func FromClaim(c wikidata.Claim) (Statement, error) {
	main, err := fromWireSnak(c.MainSnak)
	if err != nil {
		return Statement{}, fmt.Errorf("claim %s: %w", c.ID, err)
	}
	st := Statement{GUID: c.ID, Main: main}

	if st.Qualifiers, err = fromWireSnaks(c.Qualifiers, c.QualifiersOrder); err != nil {
		return Statement{}, fmt.Errorf("claim %s qualifiers: %w", c.ID, err)
	}
	for _, ref := range c.References {
		snaks, err := fromWireSnaks(ref.Snaks, ref.SnaksOrder)
		if err != nil {
			return Statement{}, fmt.Errorf("claim %s reference: %w", c.ID, err)
		}
		st.References = append(st.References, snaks)
	}
	return st, nil
}

func fromWireSnaks(snaks map[string][]wikidata.Snak, order []string) ([]Snak, error) {
	if len(order) == 0 {
		order = sortedKeys(snaks)
	}
	var out []Snak
	for _, property := range order {
		for _, s := range snaks[property] {
			snak, err := fromWireSnak(s)
			if err != nil {
				return nil, err
			}
			out = append(out, snak)
		}
	}
	return out, nil
}

func fromWireSnak(s wikidata.Snak) (Snak, error) {
	snak := Snak{Property: s.Property, Type: s.SnakType}
	if s.SnakType != wikidata.SnakValue || s.DataValue == nil {
		return snak, nil
	}
	v, err := s.DataValue.Decode()
	if err != nil {
		return Snak{}, err
	}
	snak.Value = v
	return snak, nil
}

// Claim encodes the statement in wire form
func (s Statement) Claim() (wikidata.Claim, error) {
	main, err := s.Main.wire()
	if err != nil {
		return wikidata.Claim{}, err
	}
	c := wikidata.Claim{ID: s.GUID, Type: "statement", Rank: "normal", MainSnak: main}

	if len(s.Qualifiers) > 0 {
		if c.Qualifiers, c.QualifiersOrder, err = toWireSnaks(s.Qualifiers); err != nil {
			return wikidata.Claim{}, err
		}
	}
	for _, ref := range s.References {
		snaks, order, err := toWireSnaks(ref)
		if err != nil {
			return wikidata.Claim{}, err
		}
		c.References = append(c.References, wikidata.Reference{Snaks: snaks, SnaksOrder: order})
	}
	return c, nil
}

func toWireSnaks(snaks []Snak) (map[string][]wikidata.Snak, []string, error) {
	out := make(map[string][]wikidata.Snak, len(snaks))
	var order []string
	for _, s := range snaks {
		w, err := s.wire()
		if err != nil {
			return nil, nil, err
		}
		if _, seen := out[s.Property]; !seen {
			order = append(order, s.Property)
		}
		out[s.Property] = append(out[s.Property], w)
	}
	return out, order, nil
}

func (s Snak) wire() (wikidata.Snak, error) {
	w := wikidata.Snak{SnakType: s.Type, Property: s.Property}
	if s.Type != wikidata.SnakValue {
		return w, nil
	}
	dv, err := s.Value.DataValue()
	if err != nil {
		return wikidata.Snak{}, fmt.Errorf("snak %s: %w", s.Property, err)
	}
	w.DataValue = dv
	return w, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
