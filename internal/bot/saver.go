package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ppiankov/freebase2wikidata/internal/wikidata"
)

// JSONLinesSaver writes every batch as one wbeditentity request per line
type JSONLinesSaver struct {
	mu      sync.Mutex
	enc     *json.Encoder
	summary string
	saved   int
}

// NewJSONLinesSaver creates a saver writing to w
func NewJSONLinesSaver(w io.Writer, summary string) *JSONLinesSaver {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLinesSaver{enc: enc, summary: summary}
}

// Save implements Saver
func (s *JSONLinesSaver) Save(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := wikidata.EditRequest{
		ID:        batch.Subject,
		BaseRevID: batch.BaseRevID,
		Summary:   s.summary,
		Bot:       true,
		Data:      wikidata.EditData{Claims: make([]wikidata.Claim, 0, len(batch.Statements))},
	}
	for _, st := range batch.Statements {
		claim, err := st.Claim()
		if err != nil {
			return fmt.Errorf("encode statement: %w", err)
		}
		req.Data.Claims = append(req.Data.Claims, claim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(req); err != nil {
		return fmt.Errorf("write edit: %w", err)
	}
	s.saved++
	return nil
}

// Saved returns the number of batches written
func (s *JSONLinesSaver) Saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
