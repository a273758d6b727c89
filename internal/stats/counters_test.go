package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters_IncAndGet(t *testing.T) {
	c := New()
	c.Inc("triple-used")
	c.Add("triple-used", 2)

	assert.Equal(t, int64(3), c.Get("triple-used"))
	assert.Equal(t, int64(0), c.Get("never-touched"))
}

func TestCounters_ResetKeepsTableCounters(t *testing.T) {
	c := New()
	c.Set("mapping-item", 42)
	c.Add("claim-created", 7)

	c.Reset()

	assert.Equal(t, int64(42), c.Get("mapping-item"))
	assert.Equal(t, int64(0), c.Get("claim-created"))
}

func TestCounters_SnapshotSorted(t *testing.T) {
	c := New()
	c.Inc("zzz")
	c.Inc("aaa")

	snap := c.Snapshot()
	require.NotEmpty(t, snap)
	assert.Equal(t, "aaa", snap[0].Name)
	assert.Equal(t, "zzz", snap[len(snap)-1].Name)
}

func TestCounters_WriteTo(t *testing.T) {
	c := New()
	c.Add("claim-created", 5)

	var buf bytes.Buffer
	_, err := c.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "claim-created")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestCounters_Collector(t *testing.T) {
	c := New()
	c.Add("claim-created", 3)
	c.Set("mapping-item", 10)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)

	values := map[string]float64{}
	for _, m := range families[0].GetMetric() {
		values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(3), values["claim-created"])
	assert.Equal(t, float64(10), values["mapping-item"])
	assert.Equal(t, len(runCounters)+1, testutil.CollectAndCount(c))
}
