package mapping

import (
	"regexp"
	"strings"
)

// Sections of the mapping page are separated by this heading text
const keyNamespaceDelimiter = "(/key/ namespace)"

var mappingRowRe = regexp.MustCompile(`\|\-\n *\| *https?://www\.freebase\.com/([a-zA-Z0-9/_\-]+) *\n\| *(.*) *\n`)

// Row is one table row of the mapping page
type Row struct {
	Path string // /ns/people.person.gender or /key/wikipedia.en
	Cell string // raw property cell, e.g. {{P|21}}
}

// IsKey reports whether the row belongs to the /key/ section
func (r Row) IsKey() bool {
	return strings.HasPrefix(r.Path, "/key/")
}

// ParseMappingWikitext extracts the rows of both namespace sections
func ParseMappingWikitext(wikitext string) []Row {
	nsPart, keyPart, _ := strings.Cut(wikitext, keyNamespaceDelimiter)

	rows := parseRows(nsPart, "/ns/")
	return append(rows, parseRows(keyPart, "/key/")...)
}

func parseRows(section, prefix string) []Row {
	var rows []Row
	for _, m := range mappingRowRe.FindAllStringSubmatch(section, -1) {
		rows = append(rows, Row{
			Path: prefix + strings.ReplaceAll(m[1], "/", "."),
			Cell: m[2],
		})
	}
	return rows
}
