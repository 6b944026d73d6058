package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lutefd/courtline-api/internal/events"
	"github.com/lutefd/courtline-api/internal/storage/docstore"
)

// ImportLock is an advisory, non-exclusive marker that a bulk operation is
// underway. It warns other clients; it never blocks writes.
type ImportLock struct {
	Holder     string    `json:"holder"`
	Operation  string    `json:"operation"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// ImportLock returns the current lock record, or nil when none is set.
func (c *Coordinator) ImportLock(ctx context.Context) (*ImportLock, error) {
	doc, err := c.store.Get(ctx, docstore.CollectionImportLock)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read import lock: %w", err)
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return nil, nil
	}
	var lock ImportLock
	if err := json.Unmarshal(doc.Data, &lock); err != nil {
		return nil, fmt.Errorf("decode import lock: %w", err)
	}
	return &lock, nil
}

// SetImportLock records the holder and operation. The write is unguarded:
// the lock is cooperative, so last writer wins.
func (c *Coordinator) SetImportLock(ctx context.Context, holder, operation string, now time.Time) (ImportLock, error) {
	lock := ImportLock{Holder: holder, Operation: operation, AcquiredAt: now}
	data, err := json.Marshal(lock)
	if err != nil {
		return ImportLock{}, fmt.Errorf("encode import lock: %w", err)
	}
	if _, err := c.store.Force(ctx, docstore.CollectionImportLock, data); err != nil {
		return ImportLock{}, fmt.Errorf("set import lock: %w", err)
	}
	c.bus.Audit(ctx, events.Event{Name: events.ImportLockChanged, Payload: lock})
	return lock, nil
}

// ClearImportLock removes the marker.
func (c *Coordinator) ClearImportLock(ctx context.Context) error {
	if _, err := c.store.Force(ctx, docstore.CollectionImportLock, json.RawMessage("null")); err != nil {
		return fmt.Errorf("clear import lock: %w", err)
	}
	c.bus.Audit(ctx, events.Event{Name: events.ImportLockChanged, Payload: nil})
	return nil
}
