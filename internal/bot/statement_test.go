package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want wikidata.Value
	}{
		{"Q42", wikidata.EntityValue("Q42")},
		{"P31", wikidata.EntityValue("P31")},
		{"@48.8567/2.35", wikidata.GlobeCoordinateValue(48.8567, 2.35, 0.0001)},
		{"@-12/45", wikidata.GlobeCoordinateValue(-12, 45, 1)},
		{"+1955-00-00T00:00:00Z/9", wikidata.TimeValue("+1955-00-00T00:00:00Z", 9)},
		{"-0500-00-00T00:00:00Z/9", wikidata.TimeValue("-0500-00-00T00:00:00Z", 9)},
		{"+12", wikidata.QuantityValue("+12")},
		{"-3.5", wikidata.QuantityValue("-3.5")},
		{`fr:"Paris"`, wikidata.MonolingualTextValue("fr", "Paris")},
		{`en-us:"Color"`, wikidata.MonolingualTextValue("en-us", "Color")},
		{`"Douglas Adams"`, wikidata.StringValue("Douglas Adams")},
		{`"http://example.org/a"`, wikidata.StringValue("http://example.org/a")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"12", "Q", "@1/", "1955-00-00T00:00:00Z/9", "unquoted"} {
		_, err := ParseValue(bad)
		assert.ErrorIs(t, err, model.ErrParse, bad)
	}
}

func TestParseStatement(t *testing.T) {
	full, err := ParseStatement("Q42\tP569\t+1952-03-11T00:00:00Z/11\tP1480\tQ5727902\tS248\tQ36578\tS854\t\"http://example.org\"\n")
	require.NoError(t, err)

	assert.Equal(t, "Q42", full.Subject)
	st := full.Statement
	assert.Equal(t, ValueSnak("P569", wikidata.TimeValue("+1952-03-11T00:00:00Z", 11)), st.Main)
	assert.Equal(t, []Snak{ValueSnak("P1480", wikidata.EntityValue("Q5727902"))}, st.Qualifiers)
	require.Len(t, st.References, 1)
	assert.Equal(t, []Snak{
		ValueSnak("P248", wikidata.EntityValue("Q36578")),
		ValueSnak("P854", wikidata.StringValue("http://example.org")),
	}, st.References[0])
	assert.Empty(t, st.GUID)
}

func TestParseStatement_NoSource(t *testing.T) {
	full, err := ParseStatement("Q1\tP31\tQ5")
	require.NoError(t, err)
	assert.Empty(t, full.Statement.References)
	assert.Empty(t, full.Statement.Qualifiers)
}

func TestParseStatement_Invalid(t *testing.T) {
	for _, line := range []string{
		"Q1\tP31",
		"m.0a\tP31\tQ5",
		"Q1\tX31\tQ5",
		"Q1\tP31\tQ5\tX1\tQ2",
		"Q1\tP31\tnot-a-value",
		"Q1\tP31\tQ5\tSX\tQ2",
	} {
		_, err := ParseStatement(line)
		assert.ErrorIs(t, err, model.ErrParse, line)
	}
}

func TestClaimRoundTrip(t *testing.T) {
	full, err := ParseStatement("Q42\tP26\tQ14623681\tP580\t+1991-00-00T00:00:00Z/9\tP580\t+1992-00-00T00:00:00Z/9\tS248\tQ36578")
	require.NoError(t, err)
	st := full.Statement
	st.GUID = "Q42$ABC"

	claim, err := st.Claim()
	require.NoError(t, err)
	assert.Equal(t, "Q42$ABC", claim.ID)
	assert.Equal(t, []string{"P580"}, claim.QualifiersOrder)
	assert.Len(t, claim.Qualifiers["P580"], 2)

	back, err := FromClaim(claim)
	require.NoError(t, err)
	assert.Equal(t, st, back)
}

func TestFromClaim_SomeValue(t *testing.T) {
	st, err := FromClaim(wikidata.Claim{
		ID:       "Q1$X",
		MainSnak: wikidata.Snak{SnakType: wikidata.SnakSomeValue, Property: "P26"},
	})
	require.NoError(t, err)
	assert.Equal(t, Snak{Property: "P26", Type: wikidata.SnakSomeValue}, st.Main)
}
