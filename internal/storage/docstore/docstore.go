package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collection keys. Collections are versioned and saved independently: a
// conflict on one never blocks saving the others.
const (
	CollectionTeams      = "teams"
	CollectionMatches    = "matches"
	CollectionBonuses    = "bonuses"
	CollectionChallenges = "challenges"
	CollectionCaptains   = "captains"
	CollectionPhotos     = "photos"
	CollectionStandings  = "standings"
	CollectionImportLock = "importlock"
)

// ErrNotFound indicates the collection has never been written.
var ErrNotFound = errors.New("collection not found")

// Document is one versioned collection: an opaque serialized payload and a
// monotonic version stamp.
type Document struct {
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ConflictError reports a compare-and-swap failure. The store is untouched
// when one is returned.
type ConflictError struct {
	Key      string
	Expected int64
	Current  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %q: expected %d, store is at %d", e.Key, e.Expected, e.Current)
}

// Store is optimistic-concurrency storage at whole-collection granularity.
//
// Set succeeds only when expectedVersion matches the stored version; a new
// collection is created with expectedVersion 0. Force writes without the
// version guard and is reserved for the overwrite remediation path.
type Store interface {
	Get(ctx context.Context, key string) (Document, error)
	Set(ctx context.Context, key string, data json.RawMessage, expectedVersion int64) (int64, error)
	Force(ctx context.Context, key string, data json.RawMessage) (int64, error)
	Close() error
}
