package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValueType is the Wikibase datatype of a property's values
type ValueType string

const (
	TypeGlobeCoordinate ValueType = "globe-coordinate"
	TypeMonolingualText ValueType = "monolingualtext"
	TypeQuantity        ValueType = "quantity"
	TypeString          ValueType = "string"
	TypeTime            ValueType = "time"
	TypeURL             ValueType = "url"
	TypeItem            ValueType = "wikibase-item"
	TypeProperty        ValueType = "wikibase-property"
	TypeExternalID      ValueType = "external-id"
	TypeCommonsMedia    ValueType = "commonsMedia"
	TypeMath            ValueType = "math"
	TypeTabularData     ValueType = "tabular-data"
	TypeGeoShape        ValueType = "geo-shape"
)

// PropertyKind discriminates the variants of Property
type PropertyKind int

const (
	// KindTarget maps to a full Wikidata property
	KindTarget PropertyKind = iota + 1
	// KindLiteral maps a compound sub-field straight to the main value
	KindLiteral
	// KindSpouse needs the marriage special case
	KindSpouse
)

func (k PropertyKind) String() string {
	switch k {
	case KindTarget:
		return "target"
	case KindLiteral:
		return "literal"
	case KindSpouse:
		return "spouse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Property is an entry of the property mapping table.
// Only the fields of its Kind are meaningful: PID and Source belong to KindTarget,
// Type to KindTarget and KindLiteral.
type Property struct {
	Kind   PropertyKind `json:"kind"`
	PID    string       `json:"pid,omitempty"`
	Source bool         `json:"source,omitempty"`
	Type   ValueType    `json:"type,omitempty"`
}

// TargetProperty wraps a Wikidata property id
func TargetProperty(pid string, source bool, valueType ValueType) Property {
	return Property{Kind: KindTarget, PID: pid, Source: source, Type: valueType}
}

// LiteralProperty wraps only a value type
func LiteralProperty(valueType ValueType) Property {
	return Property{Kind: KindLiteral, Type: valueType}
}

// SpouseProperty is the marriage marker
func SpouseProperty() Property {
	return Property{Kind: KindSpouse}
}

// IsTarget reports whether p maps to a Wikidata property
func (p Property) IsTarget() bool { return p.Kind == KindTarget }

// ValueType returns the datatype of the property values
func (p Property) ValueType() (ValueType, error) {
	switch p.Kind {
	case KindTarget:
		if p.Type == "" {
			return "", fmt.Errorf("%w: %s", ErrUnknownValueType, p.PID)
		}
		return p.Type, nil
	case KindLiteral:
		if p.Type == "" {
			return "", fmt.Errorf("%w: literal property", ErrUnknownValueType)
		}
		return p.Type, nil
	case KindSpouse:
		return TypeItem, nil
	default:
		return "", fmt.Errorf("%w: property kind %s", ErrUnknownValueType, p.Kind)
	}
}

// IsSourceRole reports whether values of p belong in the reference block
func (p Property) IsSourceRole() bool {
	switch p.Kind {
	case KindTarget:
		return p.Source
	case KindLiteral, KindSpouse:
		return false
	default:
		return false
	}
}

// ExpectsCompoundLiteral reports whether the property value is itself encoded as a
// compound node, so the node must not be expanded into qualifiers
func (p Property) ExpectsCompoundLiteral() bool {
	t, err := p.ValueType()
	return err == nil && t == TypeGlobeCoordinate
}

// WithType returns a copy of a target property with its value type set
func (p Property) WithType(valueType ValueType) Property {
	if p.Kind == KindTarget {
		p.Type = valueType
	}
	return p
}

var (
	templatePropertyRe = regexp.MustCompile(`^\{\{[pP]\|(\d+)\}\}$`)
	sourcePropertyRe   = regexp.MustCompile(`^S(\d+)$`)
)

// ParseProperty reads the textual form used by the mapping document and the overrides:
// {{P|123}} (qualifier role), S123 (source role), QUANTITY, ITEM, SPOUSE.
func ParseProperty(str string) (Property, error) {
	str = strings.TrimSpace(str)

	if m := templatePropertyRe.FindStringSubmatch(str); m != nil {
		return TargetProperty("P"+m[1], false, ""), nil
	}
	if m := sourcePropertyRe.FindStringSubmatch(str); m != nil {
		return TargetProperty("P"+m[1], true, ""), nil
	}

	switch str {
	case "QUANTITY":
		return LiteralProperty(TypeQuantity), nil
	case "ITEM":
		return LiteralProperty(TypeItem), nil
	case "SPOUSE":
		return SpouseProperty(), nil
	}

	return Property{}, fmt.Errorf("%w: property cell %q", ErrParse, str)
}
