package wikidata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

func TestValueDataValueRoundTrip(t *testing.T) {
	tests := []Value{
		EntityValue("Q42"),
		EntityValue("P31"),
		TimeValue("+1955-00-00T00:00:00Z", 9),
		{Kind: KindQuantity, Amount: "+12", Unit: "1"},
		GlobeCoordinateValue(48.8567, 2.3508, 0.0001),
		MonolingualTextValue("fr", "Paris"),
		StringValue("Douglas Adams"),
	}

	for _, v := range tests {
		dv, err := v.DataValue()
		require.NoError(t, err)
		got, err := dv.Decode()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestValueDataValueJSON(t *testing.T) {
	dv, err := EntityValue("P31").DataValue()
	require.NoError(t, err)
	assert.Equal(t, "wikibase-entityid", dv.Type)
	assert.JSONEq(t, `{"entity-type":"property","numeric-id":31,"id":"P31"}`, string(dv.Value))

	dv, err = TimeValue("+1955-06-12T00:00:00Z", 11).DataValue()
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"+1955-06-12T00:00:00Z","timezone":0,"before":0,"after":0,"precision":11,"calendarmodel":"http://www.wikidata.org/entity/Q1985727"}`, string(dv.Value))

	dv, err = QuantityValue("+3.5").DataValue()
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"+3.5","unit":"1","upperBound":"+3.5","lowerBound":"+3.5"}`, string(dv.Value))
}

func TestValueDataValueErrors(t *testing.T) {
	_, err := EntityValue("Q").DataValue()
	assert.ErrorIs(t, err, model.ErrParse)

	_, err = Value{Kind: KindOther}.DataValue()
	assert.ErrorIs(t, err, model.ErrUnsupportedType)
}

func TestDecodeUnknownType(t *testing.T) {
	v, err := DataValue{Type: "tabular-data", Value: json.RawMessage(`"Data:x.tab"`)}.Decode()
	require.NoError(t, err)
	assert.Equal(t, KindOther, v.Kind)
	assert.Equal(t, `tabular-data:"Data:x.tab"`, v.Text)
}

func TestValueDataValueKeepsMarkup(t *testing.T) {
	dv, err := StringValue("http://example.org/?a=1&b=<2>").DataValue()
	require.NoError(t, err)
	assert.Equal(t, `"http://example.org/?a=1&b=<2>"`, string(dv.Value))

	dv, err = MonolingualTextValue("en", "Tom & Jerry").DataValue()
	require.NoError(t, err)
	assert.Equal(t, `{"text":"Tom & Jerry","language":"en"}`, string(dv.Value))
}
