package wikidata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

// Gregorian is the calendar model of every imported time value
const Gregorian = "http://www.wikidata.org/entity/Q1985727"

// Earth is the globe of every imported coordinate
const Earth = "http://www.wikidata.org/entity/Q2"

// ValueKind discriminates the variants of Value
type ValueKind int

const (
	KindEntity ValueKind = iota + 1
	KindTime
	KindQuantity
	KindGlobeCoordinate
	KindMonolingualText
	KindString
	// KindOther keeps datavalues of types the importer never writes
	KindOther
)

// Value is a data value. Only the fields of its Kind are set, so values
// compare with ==.
type Value struct {
	Kind ValueKind

	ID string // entity

	Time      string // +YYYY-MM-DDThh:mm:ssZ
	Precision int

	Amount string
	Unit   string

	Latitude       float64
	Longitude      float64
	GlobePrecision float64

	Language string
	Text     string // monolingual text, string, raw JSON of other types
}

// EntityValue references an item or property
func EntityValue(id string) Value { return Value{Kind: KindEntity, ID: id} }

// TimeValue is a Gregorian time with a precision code
func TimeValue(t string, precision int) Value {
	return Value{Kind: KindTime, Time: t, Precision: precision}
}

// QuantityValue is a unitless amount
func QuantityValue(amount string) Value { return Value{Kind: KindQuantity, Amount: amount, Unit: "1"} }

// GlobeCoordinateValue is a point on Earth
func GlobeCoordinateValue(lat, lon, precision float64) Value {
	return Value{Kind: KindGlobeCoordinate, Latitude: lat, Longitude: lon, GlobePrecision: precision}
}

// MonolingualTextValue is a text in one language
func MonolingualTextValue(language, text string) Value {
	return Value{Kind: KindMonolingualText, Language: language, Text: text}
}

// StringValue is a plain string
func StringValue(s string) Value { return Value{Kind: KindString, Text: s} }

type entityIDJSON struct {
	EntityType string `json:"entity-type"`
	NumericID  int64  `json:"numeric-id"`
	ID         string `json:"id,omitempty"`
}

type timeJSON struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

type quantityJSON struct {
	Amount     string `json:"amount"`
	Unit       string `json:"unit"`
	UpperBound string `json:"upperBound,omitempty"`
	LowerBound string `json:"lowerBound,omitempty"`
}

type globeJSON struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision float64  `json:"precision"`
	Globe     string   `json:"globe"`
}

type monolingualJSON struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// DataValue encodes v in wire form
func (v Value) DataValue() (*DataValue, error) {
	var (
		typ     string
		payload any
	)

	switch v.Kind {
	case KindEntity:
		if len(v.ID) < 2 {
			return nil, fmt.Errorf("%w: invalid entity id %q", model.ErrParse, v.ID)
		}
		numeric, err := strconv.ParseInt(v.ID[1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid entity id %q", model.ErrParse, v.ID)
		}
		entityType := "item"
		if v.ID[0] == 'P' {
			entityType = "property"
		}
		typ, payload = "wikibase-entityid", entityIDJSON{EntityType: entityType, NumericID: numeric, ID: v.ID}
	case KindTime:
		typ, payload = "time", timeJSON{Time: v.Time, Precision: v.Precision, CalendarModel: Gregorian}
	case KindQuantity:
		typ, payload = "quantity", quantityJSON{Amount: v.Amount, Unit: v.Unit, UpperBound: v.Amount, LowerBound: v.Amount}
	case KindGlobeCoordinate:
		typ, payload = "globecoordinate", globeJSON{Latitude: v.Latitude, Longitude: v.Longitude, Precision: v.GlobePrecision, Globe: Earth}
	case KindMonolingualText:
		typ, payload = "monolingualtext", monolingualJSON{Text: v.Text, Language: v.Language}
	case KindString:
		typ, payload = "string", v.Text
	default:
		return nil, fmt.Errorf("%w: cannot encode value kind %d", model.ErrUnsupportedType, v.Kind)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode %s value: %w", typ, err)
	}
	return &DataValue{Type: typ, Value: bytes.TrimRight(buf.Bytes(), "\n")}, nil
}

// Decode reads a wire datavalue. Unknown types decode to KindOther.
func (dv DataValue) Decode() (Value, error) {
	switch dv.Type {
	case "wikibase-entityid":
		var e entityIDJSON
		if err := json.Unmarshal(dv.Value, &e); err != nil {
			return Value{}, fmt.Errorf("decode entity id: %w", err)
		}
		if e.ID != "" {
			return EntityValue(e.ID), nil
		}
		prefix := "Q"
		if e.EntityType == "property" {
			prefix = "P"
		}
		return EntityValue(prefix + strconv.FormatInt(e.NumericID, 10)), nil
	case "time":
		var t timeJSON
		if err := json.Unmarshal(dv.Value, &t); err != nil {
			return Value{}, fmt.Errorf("decode time: %w", err)
		}
		return TimeValue(t.Time, t.Precision), nil
	case "quantity":
		var q quantityJSON
		if err := json.Unmarshal(dv.Value, &q); err != nil {
			return Value{}, fmt.Errorf("decode quantity: %w", err)
		}
		return Value{Kind: KindQuantity, Amount: q.Amount, Unit: q.Unit}, nil
	case "globecoordinate":
		var g globeJSON
		if err := json.Unmarshal(dv.Value, &g); err != nil {
			return Value{}, fmt.Errorf("decode coordinate: %w", err)
		}
		return GlobeCoordinateValue(g.Latitude, g.Longitude, g.Precision), nil
	case "monolingualtext":
		var m monolingualJSON
		if err := json.Unmarshal(dv.Value, &m); err != nil {
			return Value{}, fmt.Errorf("decode monolingual text: %w", err)
		}
		return MonolingualTextValue(m.Language, m.Text), nil
	case "string":
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil {
			return Value{}, fmt.Errorf("decode string: %w", err)
		}
		return StringValue(s), nil
	default:
		return Value{Kind: KindOther, Text: dv.Type + ":" + strings.TrimSpace(string(dv.Value))}, nil
	}
}
