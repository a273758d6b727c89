package labels

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

const wikidataDump = `[
{"id":"Q42","type":"item","labels":{"en":{"language":"en","value":"Douglas Adams"},"fr":{"language":"fr","value":"Douglas Adams"}}},
{"id":"Q90","type":"item","labels":{"fr":{"language":"fr","value":"Paris"}}},
{"id":"P31","type":"property"}
]
`

type items map[string]string

func (m items) MapMID(mid string) (string, error) {
	if qid, ok := m[mid]; ok {
		return qid, nil
	}
	return "", model.MappingFailure("unmapped %s", mid)
}

func TestBuildLanguageIndex(t *testing.T) {
	index, err := BuildLanguageIndex(context.Background(), strings.NewReader(wikidataDump))
	require.NoError(t, err)

	assert.Len(t, index, 2)
	assert.Equal(t, []string{"en", "fr"}, index["Q42"])
	assert.True(t, index.Has("Q90", "fr"))
	assert.False(t, index.Has("Q90", "en"))
	assert.False(t, index.Known("P31"))
}

func TestBuildLanguageIndex_InvalidJSON(t *testing.T) {
	_, err := BuildLanguageIndex(context.Background(), strings.NewReader("{not json}\n"))
	assert.Error(t, err)
}

func TestLanguageIndex_RoundTrip(t *testing.T) {
	index := LanguageIndex{"Q42": {"en", "fr"}, "Q1": {"de"}}

	var buf bytes.Buffer
	require.NoError(t, index.Write(&buf))
	assert.Equal(t, "Q1\tde\nQ42\ten fr\n", buf.String())

	read, err := ReadLanguageIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, index, read)
}

func TestLoadLanguageIndex(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "wikidata.json")
	cache := filepath.Join(dir, "wikidata-labels-languages.tsv")
	require.NoError(t, os.WriteFile(dump, []byte(wikidataDump), 0o644))

	index, cached, err := LoadLanguageIndex(context.Background(), cache, dump)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.FileExists(t, cache)

	require.NoError(t, os.Remove(dump))
	again, cached, err := LoadLanguageIndex(context.Background(), cache, dump)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, index, again)
}

func TestParseLabel(t *testing.T) {
	mid, label, language, err := ParseLabel("<http://rdf.freebase.com/ns/m.0a>\t\"me@home\"@EN-US\n")
	require.NoError(t, err)
	assert.Equal(t, "m.0a", mid)
	assert.Equal(t, `"me@home"`, label)
	assert.Equal(t, "en-us", language)

	_, _, _, err = ParseLabel("m.0a\t\"no language\"")
	assert.ErrorIs(t, err, model.ErrParse)
	_, _, _, err = ParseLabel("just-one-field")
	assert.ErrorIs(t, err, model.ErrParse)
}

func TestImporter_Run(t *testing.T) {
	index := LanguageIndex{"Q42": {"en", "fr"}, "Q90": {"fr"}}
	mids := items{"m.0person": "Q42", "m.0city": "Q90", "m.0lost": "Q404"}
	counters := stats.New()
	im := NewImporter(model.DefaultConfig().Labels, mids, index, counters, nil)

	input := strings.Join([]string{
		"m.0person\t\"Douglas Adams\"@en",
		"m.0person\t\"דאגלס אדמס\"@iw",
		"m.0city\t\"Paris\"@en-US",
		"m.0city\t\"Paris\"@fr",
		"m.0city\t\"Paris\"@no",
		"m.0unmapped\t\"x\"@en",
		"m.0lost\t\"y\"@en",
		"broken",
	}, "\n")

	var out bytes.Buffer
	report, err := im.Run(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	assert.Equal(t, "Q42\the\t\"דאגלס אדמס\"\nQ90\ten\t\"Paris\"\n", out.String())
	assert.Equal(t, map[string]int{"en": 3, "he": 1, "fr": 1}, report.Mapped)
	assert.Equal(t, map[string]int{"en": 1, "fr": 1}, report.Existing)
	assert.Equal(t, map[string]int{"he": 1, "en": 1}, report.New)
	assert.Equal(t, 1, report.MissingData)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, int64(2), counters.Get("labels-new"))
	assert.Equal(t, 5, Total(report.Mapped))
}

func TestRanked(t *testing.T) {
	ranked := Ranked(map[string]int{"fr": 1, "en": 3, "de": 1})
	assert.Equal(t, []LanguageCount{{"en", 3}, {"de", 1}, {"fr", 1}}, ranked)
}
