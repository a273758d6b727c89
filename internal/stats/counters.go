// Package stats keeps the named diagnostic counters of a conversion run and
// exposes them to Prometheus.
package stats

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Run counters reset at the start of each mapping pass
var runCounters = []string{
	"type-globe-coordinate",
	"type-monolingualtext",
	"type-quantity",
	"type-string",
	"type-time",
	"type-url",
	"type-wikibase-item",
	"type-wikibase-property",
	"time-gYear",
	"time-gYearMonth",
	"time-date",
	"time-dateTime",
	"triple-used",
	"claim-created",
	"triple-mapped-subject",
	"triple-mapped-subject-property",
	"triple-value-cvt",
	"type-wikibase-entity-mapped",
}

var eventsDesc = prometheus.NewDesc(
	"freebase2wikidata_events_total",
	"Named events counted while building tables and mapping triples.",
	[]string{"name"}, nil,
)

// Counters is a set of named counters safe for concurrent scraping
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
}

// New creates counters with every run counter registered at zero
func New() *Counters {
	c := &Counters{counts: make(map[string]int64)}
	c.Reset()
	return c
}

// Inc increments a counter by one
func (c *Counters) Inc(name string) {
	c.Add(name, 1)
}

// Add increments a counter by n
func (c *Counters) Add(name string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] += n
}

// Set stores an absolute value
func (c *Counters) Set(name string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[name] = n
}

// Get returns the current value, 0 when never touched
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Reset zeroes the run counters and keeps table construction counters
func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range runCounters {
		c.counts[name] = 0
	}
}

// Entry is one counter in a snapshot
type Entry struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Snapshot returns all counters sorted by name
func (c *Counters) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(c.counts))
	for name, value := range c.counts {
		entries = append(entries, Entry{Name: name, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// WriteTo prints the counters one per line
func (c *Counters) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range c.Snapshot() {
		n, err := fmt.Fprintf(w, "  %-34s %d\n", e.Name, e.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Describe implements prometheus.Collector
func (c *Counters) Describe(ch chan<- *prometheus.Desc) {
	ch <- eventsDesc
}

// Collect implements prometheus.Collector
func (c *Counters) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.Snapshot() {
		ch <- prometheus.MustNewConstMetric(eventsDesc, prometheus.CounterValue, float64(e.Value), e.Name)
	}
}
