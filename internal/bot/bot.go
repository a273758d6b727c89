package bot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
)

// EntitySource returns the current state of an item
type EntitySource interface {
	Entity(ctx context.Context, id string) (*wikidata.Entity, error)
}

// Bot imports TSV statements one at a time
type Bot struct {
	source   EntitySource
	resolver *Resolver
	batcher  *Batcher
	counters *stats.Counters
	log      *slog.Logger
}

// New creates a bot. Nil counters and logger use fresh counters and slog.Default().
func New(source EntitySource, resolver *Resolver, saver Saver, counters *stats.Counters, log *slog.Logger) *Bot {
	if counters == nil {
		counters = stats.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		source:   source,
		resolver: resolver,
		batcher:  NewBatcher(saver),
		counters: counters,
		log:      log,
	}
}

// AddStatement parses, resolves and queues one TSV statement
func (b *Bot) AddStatement(ctx context.Context, line string) error {
	full, err := ParseStatement(line)
	if err != nil {
		b.counters.Inc("import-invalid")
		return err
	}

	entity, err := b.source.Entity(ctx, full.Subject)
	if err != nil {
		return err
	}

	property := full.Statement.Main.Property
	existing := make([]Statement, 0, len(entity.Claims[property]))
	for _, claim := range entity.Claims[property] {
		st, err := FromClaim(claim)
		if err != nil {
			return fmt.Errorf("existing %s: %w", entity.ID, err)
		}
		existing = append(existing, st)
	}

	st, action, err := b.resolver.Resolve(entity.ID, full.Statement, existing)
	switch {
	case errors.Is(err, model.ErrContradiction):
		b.counters.Inc("import-contradiction")
		return err
	case errors.Is(err, model.ErrSourcedSubStatement):
		b.counters.Inc("import-sourced-substatement")
		return err
	case err != nil:
		return err
	}

	switch action {
	case ActionSkip:
		b.counters.Inc("import-duplicate")
		return nil
	case ActionRefine:
		b.counters.Inc("import-refined")
	default:
		b.counters.Inc("import-added")
	}
	b.log.Debug("statement accepted", "subject", entity.ID, "property", property, "action", action.String(), "guid", st.GUID)
	return b.batcher.Add(ctx, entity.ID, entity.LastRevID, st)
}

// Run imports every line of r. Line errors are logged and the run continues.
// The pending batch is saved once when Run returns, even on cancellation.
func (b *Bot) Run(ctx context.Context, r io.Reader) (err error) {
	defer func() {
		if closeErr := b.batcher.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b.counters.Inc("import-read")
		if err := b.AddStatement(ctx, line); err != nil {
			b.log.Warn("statement not imported", "error", err, "line", line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read statements: %w", err)
	}
	return nil
}

// Counters returns the import counters
func (b *Bot) Counters() *stats.Counters { return b.counters }
