package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockFetcher returns "type-<id>" for every id, failing buckets that contain failID
type mockFetcher struct {
	failID string

	mu      sync.Mutex
	buckets [][]string
}

func (m *mockFetcher) FetchBucket(ctx context.Context, ids []string) (map[string]string, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work

	m.mu.Lock()
	m.buckets = append(m.buckets, ids)
	m.mu.Unlock()

	values := make(map[string]string, len(ids))
	for _, id := range ids {
		if id == m.failID {
			return nil, errors.New("fetch error")
		}
		values[id] = "type-" + id
	}
	return values, nil
}

func pids(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%d", i+1)
	}
	return ids
}

func TestBatchProcessor_Process(t *testing.T) {
	fetcher := &mockFetcher{}
	processor := NewBatchProcessor(fetcher, 3, 40)

	values, err := processor.Process(context.Background(), pids(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(values) != 100 {
		t.Errorf("expected 100 values, got %d", len(values))
	}
	if values["P42"] != "type-P42" {
		t.Errorf("unexpected value for P42: %q", values["P42"])
	}
	if len(fetcher.buckets) != 3 {
		t.Errorf("expected 3 buckets, got %d", len(fetcher.buckets))
	}
	for _, b := range fetcher.buckets {
		if len(b) > 40 {
			t.Errorf("bucket too large: %d", len(b))
		}
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	fetcher := &mockFetcher{failID: "P45"}
	processor := NewBatchProcessor(fetcher, 2, 40)

	values, err := processor.Process(context.Background(), pids(100))
	if err == nil {
		t.Fatal("expected error for failing bucket")
	}
	if !strings.Contains(err.Error(), "P41..P80") {
		t.Errorf("expected failing bucket range in error, got %v", err)
	}
	if len(values) != 60 {
		t.Errorf("expected values of the two successful buckets, got %d", len(values))
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	values, err := NewBatchProcessor(&mockFetcher{}, 2, 0).Process(context.Background(), nil)
	if err != nil || len(values) != 0 {
		t.Errorf("expected empty result, got %v %v", values, err)
	}
}

func TestBuckets(t *testing.T) {
	buckets := Buckets(pids(5), 2)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if len(buckets[2]) != 1 || buckets[2][0] != "P5" {
		t.Errorf("unexpected last bucket: %v", buckets[2])
	}

	if got := Buckets(nil, 40); len(got) != 0 {
		t.Errorf("expected no buckets, got %v", got)
	}
}
