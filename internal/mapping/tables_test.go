package mapping

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

const mappingWikitext = `== Mapping ==
{| class="wikitable"
|-
| http://www.freebase.com/people/person/gender
| {{P|21}}
|-
| https://www.freebase.com/people/person/date_of_birth
| {{P|569}}
|-
| http://www.freebase.com/common/topic/description
| not mapped
|-
| http://www.freebase.com/common/topic/official_website
| {{P|856}}
|-
| http://www.freebase.com/book/written_work/isbn
| S212
|}
== (/key/ namespace) ==
{|
|-
| http://www.freebase.com/authority/imdb/name
| {{P|345}}
|}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseMappingWikitext(t *testing.T) {
	rows := ParseMappingWikitext(mappingWikitext)

	require.Len(t, rows, 6)
	assert.Equal(t, Row{Path: "/ns/people.person.gender", Cell: "{{P|21}}"}, rows[0])
	assert.Equal(t, "/ns/people.person.date_of_birth", rows[1].Path)
	assert.Equal(t, "/key/authority.imdb.name", rows[5].Path)
	assert.True(t, rows[5].IsKey())
	assert.False(t, rows[0].IsKey())
}

func TestParseMappingWikitext_NoKeySection(t *testing.T) {
	rows := ParseMappingWikitext("|-\n| http://www.freebase.com/people/person/gender\n| {{P|21}}\n")

	require.Len(t, rows, 1)
	assert.Equal(t, "/ns/people.person.gender", rows[0].Path)
}

func TestBuildPropertyMap(t *testing.T) {
	counters := stats.New()
	cfg := model.DefaultConfig().Mapping
	cfg.PropertyPrefixFilter = []string{"/ns/common."}

	properties, err := BuildPropertyMap(mappingWikitext, cfg, counters)
	require.NoError(t, err)

	assert.Equal(t, model.TargetProperty("P21", false, ""), properties["/ns/people.person.gender"])
	assert.Equal(t, model.TargetProperty("P569", false, ""), properties["/ns/people.person.date_of_birth"])
	assert.Equal(t, model.TargetProperty("P212", true, ""), properties["/ns/book.written_work.isbn"])
	assert.Equal(t, model.TargetProperty("P345", false, ""), properties["/key/authority.imdb.name"])
	assert.Equal(t, model.SpouseProperty(), properties["/ns/people.person.spouse_s"])
	assert.Equal(t, model.LiteralProperty(model.TypeQuantity), properties["/ns/measurement_unit.dated_integer.number"])
	assert.Equal(t, model.LiteralProperty(model.TypeItem), properties["/ns/location.mailing_address.citytown"])
	assert.NotContains(t, properties, "/ns/common.topic.official_website")
	assert.NotContains(t, properties, "/ns/common.topic.description")

	assert.Equal(t, int64(len(properties)), counters.Get("mapping-property"))
}

func TestBuildPropertyMap_InvalidOverride(t *testing.T) {
	cfg := model.MappingConfig{PropertyOverrides: []model.Override{{From: "/ns/a.b", To: "WHATEVER"}}}

	_, err := BuildPropertyMap("", cfg, stats.New())
	assert.ErrorIs(t, err, model.ErrParse)
}

func TestBuildItemMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pairs"), "m.0a\tQ1\nm.0b\tQ2\nbroken line\nm.01wfbm\tQ52\n")
	writeFile(t, filepath.Join(dir, "b.pairs"), "m.0a\tQ10\nm.0c\tQ3\n")
	writeFile(t, filepath.Join(dir, "ignored.tsv"), "m.0z\tQ99\n")
	writeFile(t, filepath.Join(dir, "wikidata-redirects.tsv"), "Q3\tQ30\n")

	cfg := model.DefaultConfig().Mapping
	cfg.Directory = dir
	counters := stats.New()

	items, err := BuildItemMap(cfg, counters, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "Q10", items["m.0a"], "later files win")
	assert.Equal(t, "Q2", items["m.0b"])
	assert.Equal(t, "Q30", items["m.0c"], "redirect resolved")
	assert.Equal(t, "Q6581097", items["m.05zppz"], "override applied")
	assert.NotContains(t, items, "m.01wfbm", "exclusion applied")
	assert.NotContains(t, items, "m.0z")

	assert.Equal(t, int64(1), counters.Get("mapping-item-differences"))
	assert.Equal(t, int64(1), counters.Get("redirection-resolved"))
	assert.Equal(t, int64(len(items)), counters.Get("mapping-item"))
}

func TestBuildItemMap_LogsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pairs"), "only-one-column\n")

	var buf bytes.Buffer
	cfg := model.MappingConfig{Directory: dir, PairsPattern: "*.pairs"}
	_, err := BuildItemMap(cfg, stats.New(), slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "invalid mapping line")
}

func TestPairFiles_Sorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.pairs"), "")
	writeFile(t, filepath.Join(dir, "a.pairs"), "")
	writeFile(t, filepath.Join(dir, "sub", "m.pairs"), "")

	files, err := PairFiles(dir, "**/*.pairs")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.pairs"), files[0])
	assert.Equal(t, filepath.Join(dir, "sub", "m.pairs"), files[1])
	assert.Equal(t, filepath.Join(dir, "z.pairs"), files[2])
}

func TestTables(t *testing.T) {
	tables := NewTables(
		map[string]string{"m.0a": "Q1"},
		map[string]model.Property{
			"/ns/a.b": model.TargetProperty("P21", false, ""),
			"/ns/a.c": model.TargetProperty("P21", true, ""),
			"/ns/a.d": model.TargetProperty("P569", false, ""),
			"/ns/a.e": model.LiteralProperty(model.TypeQuantity),
		},
	)

	assert.Equal(t, []string{"P21", "P569"}, tables.TargetPIDs())

	tables.SetPropertyTypes(map[string]model.ValueType{"P21": model.TypeItem})
	p, err := tables.LookupProperty("/ns/a.c", nil)
	require.NoError(t, err)
	assert.Equal(t, model.TargetProperty("P21", true, model.TypeItem), p)

	p, err = tables.LookupProperty("/ns/a.d", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ValueType(""), p.Type)

	special := map[string]model.Property{"/ns/a.b": model.SpouseProperty()}
	p, err = tables.LookupProperty("/ns/a.b", special)
	require.NoError(t, err)
	assert.Equal(t, model.KindSpouse, p.Kind)

	_, err = tables.LookupProperty("/ns/missing", nil)
	assert.True(t, model.IsMappingFailure(err))

	qid, err := tables.MapMID("m.0a")
	require.NoError(t, err)
	assert.Equal(t, "Q1", qid)
	assert.True(t, tables.IsMIDMapped("m.0a"))
	assert.False(t, tables.IsPropertyMapped("/ns/missing"))
	assert.Equal(t, 1, tables.ItemCount())
	assert.Equal(t, 4, tables.PropertyCount())
}

func TestPropertyTypesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	types := map[string]model.ValueType{"P569": model.TypeTime, "P21": model.TypeItem}
	require.NoError(t, WritePropertyTypes(&buf, types))
	assert.Equal(t, "P21\twikibase-item\nP569\ttime\n", buf.String())

	read, err := ReadPropertyTypes(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, types, read)
}
