// Package audit persists the immutable record of a completed exchange. Only
// settled transactions reach the sink; cancelled ones leave no audit entry.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/barter/internal/actor"
)

// Entry is the persisted summary of one settled transaction.
type Entry struct {
	TransactionID string           `json:"transaction_id"`
	Requester     actor.ID         `json:"requester"`
	Acceptor      actor.ID         `json:"acceptor"`
	CompletedAt   time.Time        `json:"completed_at"`
	Records       []map[string]any `json:"records"`
}

// Sink accepts audit entries. Persistence failure never blocks or unwinds a
// settlement; callers log it and move on.
type Sink interface {
	Append(e Entry) error
}

// Store is a file-backed Sink writing one JSON document per transaction.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append writes the entry to {dir}/{transaction_id}.json. The write goes
// through a temp file and rename so a crash never leaves a partial document.
func (s *Store) Append(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	final := filepath.Join(s.dir, e.TransactionID+".json")
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize audit entry: %w", err)
	}
	return nil
}

// NopSink discards entries. Useful for tests and hosts without persistence.
type NopSink struct{}

// Append implements Sink.
func (NopSink) Append(Entry) error { return nil }
