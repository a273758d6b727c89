package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/freebase2wikidata/internal/cvt"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/reviewed"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

func fb(id string) string { return model.FreebaseURI(id) }

func gYear(y string) string { return `"` + y + `"^^<http://www.w3.org/2001/XMLSchema#gYear>` }

type fixture struct {
	mapper   *Mapper
	cvt      *cvt.Index
	reviewed *reviewed.Index
	counters *stats.Counters
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	items := map[string]string{
		"m.05zppz":    "Q6581097",
		"m.0person":   "Q42",
		"m.0spouse":   "Q100",
		"m.0city":     "Q90",
		"g.11x1k306j": "Q637413",
		"m.0prize":    "Q7191",
	}
	properties := map[string]model.Property{
		"/ns/people.person.gender":                   model.TargetProperty("P21", false, model.TypeItem),
		"/ns/people.person.date_of_birth":            model.TargetProperty("P569", false, model.TypeTime),
		"/ns/people.person.spouse_s":                 model.SpouseProperty(),
		"/ns/people.marriage.from":                   model.TargetProperty("P580", false, model.TypeTime),
		"/ns/people.person.sibling_s":                model.TargetProperty("P3373", false, model.TypeItem),
		"/ns/people.sibling_relationship.sibling":    model.TargetProperty("P3373", false, model.TypeItem),
		"/ns/location.statistical_region.population": model.TargetProperty("P1082", false, model.TypeQuantity),
		"/ns/measurement_unit.dated_integer.number":  model.LiteralProperty(model.TypeQuantity),
		"/ns/measurement_unit.dated_integer.year":    model.TargetProperty("P585", false, model.TypeTime),
		"/ns/measurement_unit.dated_integer.source":  model.TargetProperty("P248", true, model.TypeItem),
		"/ns/location.location.geolocation":          model.TargetProperty("P625", false, model.TypeGlobeCoordinate),
		"/ns/award.award_winner.awards_won":          model.TargetProperty("P166", false, model.TypeItem),
		"/ns/award.award_honor.award":                model.TargetProperty("P166", false, model.TypeItem),
		"/ns/award.award_honor.date_range":           model.TargetProperty("P585", false, model.TypeTime),
		"/ns/time.range.start":                       model.TargetProperty("P585", false, model.TypeTime),
		"/ns/chemistry.chemical_compound.formula":    model.TargetProperty("P274", false, model.TypeString),
		"/key/authority.imdb.name":                   model.TargetProperty("P345", false, model.TypeString),
	}

	expecting := cvt.PropertySet{}
	for _, id := range []string{
		"people.person.spouse_s",
		"people.person.sibling_s",
		"location.statistical_region.population",
		"location.location.geolocation",
		"award.award_winner.awards_won",
		"award.award_honor.date_range",
	} {
		expecting.Add(fb(id))
	}

	index := cvt.NewIndex(expecting)
	insert := func(node, predicate, value string) {
		require.NoError(t, index.Insert(fb(node), fb(predicate), value))
	}
	insert("m.0marr", "people.marriage.spouse", fb("m.0person"))
	insert("m.0marr", "people.marriage.spouse", fb("m.0spouse"))
	insert("m.0marr", "people.marriage.from", gYear("1990"))

	insert("m.0sib", "people.sibling_relationship.sibling", fb("m.0person"))
	insert("m.0sib", "people.sibling_relationship.sibling", fb("m.0spouse"))

	insert("m.0pop", "measurement_unit.dated_integer.number", `"2000000"`)
	insert("m.0pop", "measurement_unit.dated_integer.year", gYear("2010"))
	insert("m.0pop", "measurement_unit.dated_integer.source", fb("g.11x1k306j"))

	insert("m.0geo", "location.geocode.latitude", `"48.85"`)
	insert("m.0geo", "location.geocode.longitude", `"2.35"`)

	insert("m.0aw", "award.award_honor.award", fb("m.0prize"))
	insert("m.0aw", "award.award_honor.date_range", fb("m.0range"))
	insert("m.0range", "time.range.start", gYear("2001"))

	insert("m.0nomain", "people.marriage.from", gYear("1990"))

	facts := reviewed.New()
	counters := stats.New()
	return &fixture{
		mapper:   NewMapper(NewTables(items, properties), index, facts, counters),
		cvt:      index,
		reviewed: facts,
		counters: counters,
	}
}

func (f *fixture) mapOne(t *testing.T, subject, predicate, object string) model.Statement {
	t.Helper()
	statements, err := f.mapper.MapTriple(model.Triple{Subject: subject, Predicate: predicate, Object: object})
	require.NoError(t, err)
	require.Len(t, statements, 1)
	return statements[0]
}

func TestMapTriple_HardcodedGender(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.05zppz"), fb("people.person.gender"), fb("m.05zppz"))

	assert.Equal(t, "Q6581097", st.Subject)
	assert.Equal(t, "P21", st.Property)
	assert.Equal(t, "Q6581097", st.Value)
	assert.Empty(t, st.Qualifiers)
	assert.Empty(t, st.Source)
	assert.False(t, st.Reviewed)

	assert.Equal(t, int64(1), f.counters.Get("triple-mapped-subject"))
	assert.Equal(t, int64(1), f.counters.Get("claim-created"))
	assert.Equal(t, int64(1), f.counters.Get("type-wikibase-item"))
}

func TestMapTriple_ReviewedFact(t *testing.T) {
	f := newFixture(t)
	f.reviewed.Insert(fb("m.05zppz"), "people.person.gender")

	st := f.mapOne(t, fb("m.05zppz"), fb("people.person.gender"), fb("m.05zppz"))

	assert.True(t, st.Reviewed)
	assert.Equal(t, 1, f.reviewed.CountUsed())
}

func TestMapTriple_MappingFailures(t *testing.T) {
	tests := []struct {
		name      string
		subject   string
		predicate string
		object    string
	}{
		{"unmapped subject", fb("m.0nobody"), fb("people.person.gender"), fb("m.05zppz")},
		{"unmapped predicate", fb("m.0person"), fb("people.person.height_meters"), `"1.80"`},
		{"unmapped value", fb("m.0person"), fb("people.person.gender"), fb("m.0unknown")},
		{"literal property alone", fb("m.0city"), fb("measurement_unit.dated_integer.number"), `"12"`},
		{"precise date before 1920", fb("m.0person"), fb("people.person.date_of_birth"), `"1850-05-03"^^<http://www.w3.org/2001/XMLSchema#date>`},
		{"no main value in cvt", fb("m.0person"), fb("award.award_winner.awards_won"), fb("m.0nomain")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.mapper.MapTriple(model.Triple{Subject: tt.subject, Predicate: tt.predicate, Object: tt.object})
			require.Error(t, err)
			assert.True(t, model.IsMappingFailure(err), "expected mapping failure, got %v", err)
		})
	}
}

func TestMapTriple_HardErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.mapper.MapTriple(model.Triple{
		Subject:   fb("m.0person"),
		Predicate: fb("people.person.date_of_birth"),
		Object:    "not a literal",
	})
	require.Error(t, err)
	assert.False(t, model.IsMappingFailure(err))
	assert.ErrorIs(t, err, model.ErrParse)
}

func TestMapTriple_MarriageWithoutTypeOfUnion(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.0person"), fb("people.person.spouse_s"), fb("m.0marr"))

	assert.Equal(t, "Q42", st.Subject)
	assert.Equal(t, "P26", st.Property)
	assert.Equal(t, "Q100", st.Value)
	assert.Equal(t, map[string][]string{"P580": {"+1990-00-00T00:00:00Z/9"}}, st.Qualifiers)
	assert.Equal(t, "Q42\tP26\tQ100\tP580\t+1990-00-00T00:00:00Z/9\n", st.TSV())
}

func TestMapTriple_MarriageTypeOfUnion(t *testing.T) {
	tests := []struct {
		name        string
		union       string
		wantFailure bool
		wantHard    bool
	}{
		{"marriage", fb("m.04ztj"), false, false},
		{"civil union", fb("m.075xk9"), false, false},
		{"domestic partnership", fb("m.01g63y"), true, false},
		{"unknown", fb("m.0zzzz"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.cvt.Insert(fb("m.0marr"), fb("people.marriage.type_of_union"), tt.union))

			statements, err := f.mapper.MapTriple(model.Triple{
				Subject:   fb("m.0person"),
				Predicate: fb("people.person.spouse_s"),
				Object:    fb("m.0marr"),
			})
			switch {
			case tt.wantFailure:
				assert.True(t, model.IsMappingFailure(err))
			case tt.wantHard:
				require.Error(t, err)
				assert.False(t, model.IsMappingFailure(err))
				assert.ErrorIs(t, err, model.ErrMapping)
			default:
				require.NoError(t, err)
				require.Len(t, statements, 1)
				assert.Equal(t, "P26", statements[0].Property)
				assert.Equal(t, "Q100", statements[0].Value)
			}
		})
	}
}

func TestMapTriple_SelfReferenceFilter(t *testing.T) {
	f := newFixture(t)

	statements, err := f.mapper.MapTriple(model.Triple{
		Subject:   fb("m.0person"),
		Predicate: fb("people.person.sibling_s"),
		Object:    fb("m.0sib"),
	})
	require.NoError(t, err)
	require.Len(t, statements, 1)

	for _, st := range statements {
		assert.Equal(t, "Q100", st.Value)
		for _, values := range st.Qualifiers {
			assert.NotContains(t, values, st.Subject)
		}
	}
}

func TestMapTriple_DatedIntegerWithSource(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.0city"), fb("location.statistical_region.population"), fb("m.0pop"))

	assert.Equal(t, "Q90\tP1082\t+2000000\tP585\t+2010-00-00T00:00:00Z/9\tS248\tQ637413\n", st.TSV())
	assert.Equal(t, map[string][]string{"S248": {"Q637413"}}, st.Source)
	assert.Equal(t, int64(1), f.counters.Get("triple-value-cvt"))
}

func TestMapTriple_CVTReviewedSubFact(t *testing.T) {
	f := newFixture(t)
	f.reviewed.Insert(fb("m.0pop"), "measurement_unit.dated_integer.year")

	st := f.mapOne(t, fb("m.0city"), fb("location.statistical_region.population"), fb("m.0pop"))

	assert.True(t, st.Reviewed)
}

func TestMapTriple_Coordinates(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.0city"), fb("location.location.geolocation"), fb("m.0geo"))

	assert.Equal(t, "@48.85/2.35", st.Value)
	assert.True(t, st.IsCoordinate())
	assert.Equal(t, int64(0), f.counters.Get("triple-value-cvt"))
}

func TestMapTriple_NestedCVTQualifier(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.0person"), fb("award.award_winner.awards_won"), fb("m.0aw"))

	assert.Equal(t, "P166", st.Property)
	assert.Equal(t, "Q7191", st.Value)
	assert.Equal(t, map[string][]string{"P585": {"+2001-00-00T00:00:00Z/9"}}, st.Qualifiers)
}

func TestMapTriple_KeyNamespaceUnescape(t *testing.T) {
	f := newFixture(t)

	st := f.mapOne(t, fb("m.0person"), "<http://rdf.freebase.com/key/authority.imdb.name>", `"Tom$0027s"`)

	assert.Equal(t, "P345", st.Property)
	assert.Equal(t, `"Tom's"`, st.Value)
}

func TestMapTriple_Idempotent(t *testing.T) {
	f := newFixture(t)
	triple := model.Triple{Subject: fb("m.0city"), Predicate: fb("location.statistical_region.population"), Object: fb("m.0pop")}

	first, err := f.mapper.MapTriple(triple)
	require.NoError(t, err)
	second, err := f.mapper.MapTriple(triple)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].TSV(), second[i].TSV())
	}
}

func TestFormatObject(t *testing.T) {
	tests := []struct {
		name    string
		pid     string
		object  string
		key     bool
		want    string
		failure bool
	}{
		{"cas number", "P774", `"1234567"`, false, `"12-34567"`, false},
		{"cas number other length", "P774", `"123456"`, false, `"123456"`, false},
		{"chemical formula", "P274", `"H2O"`, false, `"H₂O"`, false},
		{"numeric id", "P1953", `"12345"`, false, `"12345"`, false},
		{"non numeric id", "P1954", `"abc"`, false, "", true},
		{"key escape", "P345", `"a$002Bb"`, true, `"a+b"`, false},
		{"key escape only in key namespace", "P345", `"a$002Bb"`, false, `"a$002Bb"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatObject(tt.pid, tt.object, tt.key)
			if tt.failure {
				assert.True(t, model.IsMappingFailure(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
