package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lutefd/courtline-api/internal/events"
	"github.com/lutefd/courtline-api/internal/storage/docstore"
)

// Resolution is the caller's remediation choice after a conflicting save.
// There are exactly two: reload the store's copy (losing local edits) or
// overwrite it (losing the other party's intervening change). The coordinator
// never merges and never retries on its own.
type Resolution string

const (
	ResolutionReload    Resolution = "reload"
	ResolutionOverwrite Resolution = "overwrite"
)

// SaveResult reports a guarded save. Conflict is nil on success; a non-nil
// Conflict is a decision point for the caller, not a failure.
type SaveResult struct {
	Version  int64
	Conflict *docstore.ConflictError
}

type Coordinator struct {
	store docstore.Store
	bus   *events.Bus
}

func NewCoordinator(store docstore.Store, bus *events.Bus) *Coordinator {
	return &Coordinator{store: store, bus: bus}
}

// Save performs a version-guarded write. Transport errors propagate; a
// version conflict is surfaced in the result with the store's true current
// version and leaves the store untouched.
func (c *Coordinator) Save(ctx context.Context, key string, data json.RawMessage, expectedVersion int64) (SaveResult, error) {
	version, err := c.store.Set(ctx, key, data, expectedVersion)
	if err != nil {
		var conflict *docstore.ConflictError
		if errors.As(err, &conflict) {
			return SaveResult{Conflict: conflict}, nil
		}
		return SaveResult{}, fmt.Errorf("save %q: %w", key, err)
	}
	return SaveResult{Version: version}, nil
}

// Resolve executes the chosen remediation for a conflicted collection and
// returns the document the caller should now hold.
func (c *Coordinator) Resolve(ctx context.Context, key string, choice Resolution, local json.RawMessage) (docstore.Document, error) {
	switch choice {
	case ResolutionReload:
		doc, err := c.store.Get(ctx, key)
		if err != nil {
			return docstore.Document{}, fmt.Errorf("reload %q: %w", key, err)
		}
		c.bus.Audit(ctx, events.Event{Name: events.ConflictResolved, Payload: map[string]string{"collection": key, "choice": string(choice)}})
		return doc, nil
	case ResolutionOverwrite:
		version, err := c.store.Force(ctx, key, local)
		if err != nil {
			return docstore.Document{}, fmt.Errorf("overwrite %q: %w", key, err)
		}
		c.bus.Audit(ctx, events.Event{Name: events.ConflictResolved, Payload: map[string]string{"collection": key, "choice": string(choice)}})
		return docstore.Document{Key: key, Data: local, Version: version}, nil
	default:
		return docstore.Document{}, fmt.Errorf("unknown resolution %q", choice)
	}
}
