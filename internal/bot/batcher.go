package bot

import (
	"context"
	"errors"
	"fmt"
)

// ErrBatcherClosed is returned by Add after Close
var ErrBatcherClosed = errors.New("batcher closed")

// Batch is the set of statements saved on one item in a single edit
type Batch struct {
	Subject    string
	BaseRevID  int64
	Statements []Statement
}

// Saver persists a batch
type Saver interface {
	Save(ctx context.Context, batch Batch) error
}

// Batcher accumulates consecutive statements of the same subject and saves
// them when the subject changes. At most one batch is pending. Not safe for
// concurrent use.
type Batcher struct {
	saver   Saver
	pending *Batch
	closed  bool
}

// NewBatcher creates a batcher saving through saver
func NewBatcher(saver Saver) *Batcher {
	return &Batcher{saver: saver}
}

// Add queues s for subject. If this flushes the previous subject and the save
// fails, the error is returned and s still starts the new batch.
func (b *Batcher) Add(ctx context.Context, subject string, baseRevID int64, s Statement) error {
	if b.closed {
		return ErrBatcherClosed
	}

	var err error
	if b.pending != nil && b.pending.Subject != subject {
		err = b.flush(ctx)
	}
	if b.pending == nil {
		b.pending = &Batch{Subject: subject}
	}
	b.pending.BaseRevID = baseRevID
	b.pending.Statements = append(b.pending.Statements, s)
	return err
}

// Pending returns the number of unsaved statements
func (b *Batcher) Pending() int {
	if b.pending == nil {
		return 0
	}
	return len(b.pending.Statements)
}

// Close saves the pending batch. Only the first call saves.
func (b *Batcher) Close(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.pending == nil {
		return nil
	}
	return b.flush(ctx)
}

func (b *Batcher) flush(ctx context.Context) error {
	batch := *b.pending
	b.pending = nil
	if err := b.saver.Save(ctx, batch); err != nil {
		return fmt.Errorf("save %s: %w", batch.Subject, err)
	}
	return nil
}
