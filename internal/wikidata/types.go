// Package wikidata talks to the Wikidata API and defines its JSON wire format.
package wikidata

import "encoding/json"

// Snak types
const (
	SnakValue     = "value"
	SnakSomeValue = "somevalue"
	SnakNoValue   = "novalue"
)

// Entity is the subset of a wbgetentities entity used by the importer
type Entity struct {
	ID        string             `json:"id"`
	Type      string             `json:"type,omitempty"`
	LastRevID int64              `json:"lastrevid,omitempty"`
	Claims    map[string][]Claim `json:"claims,omitempty"`
	Missing   *string            `json:"missing,omitempty"`
	DataType  string             `json:"datatype,omitempty"` // properties only
}

// Claim is a statement in wire form
type Claim struct {
	ID              string            `json:"id,omitempty"`
	Type            string            `json:"type"`
	Rank            string            `json:"rank,omitempty"`
	MainSnak        Snak              `json:"mainsnak"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	References      []Reference       `json:"references,omitempty"`
}

// Snak is a property/value assertion in wire form
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// Reference is a reference block in wire form
type Reference struct {
	Hash       string            `json:"hash,omitempty"`
	Snaks      map[string][]Snak `json:"snaks"`
	SnaksOrder []string          `json:"snaks-order,omitempty"`
}

// DataValue is a typed value; Value holds the type specific JSON
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// EditRequest is the payload of a wbeditentity call adding claims to an item
type EditRequest struct {
	ID        string   `json:"id"`
	BaseRevID int64    `json:"baserevid,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Bot       bool     `json:"bot"`
	Data      EditData `json:"data"`
}

// EditData is the entity document sent with an edit
type EditData struct {
	Claims []Claim `json:"claims"`
}

type entitiesResponse struct {
	Entities map[string]Entity `json:"entities"`
	Error    *apiError         `json:"error,omitempty"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}
