package worker

import (
	"context"
	"errors"
	"fmt"
)

// BucketFetcher fetches one bucket of ids and returns a value per id found
type BucketFetcher interface {
	FetchBucket(ctx context.Context, ids []string) (map[string]string, error)
}

// BucketJob fetches a single bucket
type BucketJob struct {
	IDs     []string
	Fetcher BucketFetcher
}

// Execute executes the bucket fetch
func (j *BucketJob) Execute(ctx context.Context) Result {
	values, err := j.Fetcher.FetchBucket(ctx, j.IDs)
	return &BucketResult{IDs: j.IDs, Values: values, Error: err}
}

// BucketResult is the outcome of a bucket fetch
type BucketResult struct {
	IDs    []string
	Values map[string]string
	Error  error
}

// GetError returns the error of the fetch
func (r *BucketResult) GetError() error {
	return r.Error
}

// BatchProcessor splits ids into buckets and fetches them concurrently
type BatchProcessor struct {
	fetcher     BucketFetcher
	concurrency int
	bucketSize  int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(fetcher BucketFetcher, concurrency, bucketSize int) *BatchProcessor {
	if bucketSize <= 0 {
		bucketSize = 40
	}
	return &BatchProcessor{
		fetcher:     fetcher,
		concurrency: concurrency,
		bucketSize:  bucketSize,
	}
}

// Process fetches every id and merges the values. Failed buckets are reported
// together; values of the successful ones are still returned.
func (b *BatchProcessor) Process(ctx context.Context, ids []string) (map[string]string, error) {
	merged := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return merged, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, bucket := range Buckets(ids, b.bucketSize) {
		if !pool.Submit(&BucketJob{IDs: bucket, Fetcher: b.fetcher}) {
			break
		}
	}

	var errs []error
	for _, result := range pool.Wait() {
		r := result.(*BucketResult)
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("bucket %s..%s: %w", r.IDs[0], r.IDs[len(r.IDs)-1], r.Error))
			continue
		}
		for id, v := range r.Values {
			merged[id] = v
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return merged, errors.Join(errs...)
}

// Buckets splits ids into consecutive slices of at most size elements
func Buckets(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var buckets [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		buckets = append(buckets, ids[start:end])
	}
	return buckets
}
