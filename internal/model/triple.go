package model

import (
	"fmt"
	"strings"
)

// Namespaces of the two identifier systems as they appear in the dump
const (
	FreebaseNamespace     = "<http://rdf.freebase.com/ns/"
	FreebaseRoot          = "<http://rdf.freebase.com"
	WikidataEntityPrefix  = "<http://www.wikidata.org/entity/"
	XMLSchemaPrefix       = "http://www.w3.org/2001/XMLSchema#"
	cutsetTripleSeparator = " .\t\n\r\x00\x0B"
)

// Triple is one (subject, predicate, object) line of the Freebase dump in wire encoding
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// ParseTriple splits a dump line into its three tab-separated parts.
// The trailing " ." of N-Triples and surrounding whitespace are dropped.
func ParseTriple(line string) (Triple, error) {
	parts := strings.SplitN(strings.Trim(line, cutsetTripleSeparator), "\t", 3)
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("%w: expected 3 fields in triple line %q", ErrParse, line)
	}
	return Triple{Subject: parts[0], Predicate: parts[1], Object: parts[2]}, nil
}

// FreebaseURI builds the <http://rdf.freebase.com/ns/...> form of a short id
func FreebaseURI(id string) string {
	return FreebaseNamespace + id + ">"
}

// ShortID strips the Freebase namespace from a URI: <http://rdf.freebase.com/ns/m.05zppz> -> m.05zppz.
// Values that are not Freebase URIs are returned without their angle brackets.
func ShortID(uri string) string {
	if strings.HasPrefix(uri, FreebaseNamespace) && strings.HasSuffix(uri, ">") {
		return uri[len(FreebaseNamespace) : len(uri)-1]
	}
	return strings.TrimSuffix(strings.TrimPrefix(uri, "<"), ">")
}

// PropertyPath returns the namespaced path of a predicate URI:
// <http://rdf.freebase.com/ns/people.person.gender> -> /ns/people.person.gender
func PropertyPath(uri string) string {
	if strings.HasPrefix(uri, FreebaseRoot) && strings.HasSuffix(uri, ">") {
		return uri[len(FreebaseRoot) : len(uri)-1]
	}
	return uri
}

// IsKeyPredicate reports whether a predicate lives in the /key/ namespace
func IsKeyPredicate(uri string) bool {
	return strings.Contains(uri, "/key/")
}
