package model

import (
	"fmt"
	"sort"
	"strings"
)

// SourcePrefix marks reference snak keys, which share the P-number of the property they cite
const SourcePrefix = "S"

// Statement is the canonical output unit of the converter
type Statement struct {
	Subject    string              `json:"subject"`              // Target entity id (Q...)
	Property   string              `json:"property"`             // Target property id (P...)
	Value      string              `json:"value"`                // Canonical value serialization
	Qualifiers map[string][]string `json:"qualifiers,omitempty"` // P... -> ordered values
	Source     map[string][]string `json:"source,omitempty"`     // S... -> ordered values
	Reviewed   bool                `json:"reviewed"`             // Human-reviewed in the source data
}

// TSV serializes the statement as subject, property, value followed by
// key/value pairs of qualifiers and sources sorted by key. Multi-valued keys repeat the key.
func (s Statement) TSV() string {
	var b strings.Builder
	b.WriteString(s.Subject)
	b.WriteByte('\t')
	b.WriteString(s.Property)
	b.WriteByte('\t')
	b.WriteString(s.Value)

	additional := make(map[string][]string, len(s.Qualifiers)+len(s.Source))
	for k, v := range s.Qualifiers {
		additional[k] = v
	}
	for k, v := range s.Source {
		additional[k] = v
	}
	for _, key := range sortedKeys(additional) {
		for _, value := range additional[key] {
			b.WriteByte('\t')
			b.WriteString(key)
			b.WriteByte('\t')
			b.WriteString(value)
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// IsCoordinate reports whether the main value is a globe coordinate
func (s Statement) IsCoordinate() bool {
	return strings.HasPrefix(s.Value, "@")
}

// ParseStatementTSV reads back the TSV form produced by Statement.TSV
func ParseStatementTSV(line string) (Statement, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(parts) < 3 || len(parts)%2 != 1 {
		return Statement{}, fmt.Errorf("%w: invalid statement %q", ErrParse, line)
	}

	st := Statement{
		Subject:    parts[0],
		Property:   parts[1],
		Value:      parts[2],
		Qualifiers: map[string][]string{},
		Source:     map[string][]string{},
	}
	for i := 3; i < len(parts); i += 2 {
		key, value := parts[i], parts[i+1]
		if key == "" {
			return Statement{}, fmt.Errorf("%w: empty key in statement %q", ErrParse, line)
		}
		if strings.HasPrefix(key, SourcePrefix) {
			st.Source[key] = append(st.Source[key], value)
		} else {
			st.Qualifiers[key] = append(st.Qualifiers[key], value)
		}
	}
	return st, nil
}

// SourceKey turns a property id into its reference key: P248 -> S248
func SourceKey(pid string) string {
	return strings.Replace(pid, "P", SourcePrefix, 1)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneValues(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// NewStatement builds a statement owning its own copies of the qualifier and source maps
func NewStatement(subject, property, value string, qualifiers, source map[string][]string, reviewed bool) Statement {
	return Statement{
		Subject:    subject,
		Property:   property,
		Value:      value,
		Qualifiers: cloneValues(qualifiers),
		Source:     cloneValues(source),
		Reviewed:   reviewed,
	}
}
