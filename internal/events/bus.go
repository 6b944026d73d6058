package events

import (
	"context"
	"log"
	"sync"
)

// Audit event names published by the engine.
const (
	ChallengeAccepted  = "ChallengeAccepted"
	ChallengeDeclined  = "ChallengeDeclined"
	ChallengeCompleted = "ChallengeCompleted"
	ChallengeEdited    = "ChallengeEdited"
	ChallengeDeleted   = "ChallengeDeleted"
	ConflictResolved   = "ConflictResolved"
	ImportLockChanged  = "ImportLockChanged"
	TradeApplied       = "TradeApplied"
)

type Event struct {
	Name    string
	Payload any
}

type Handler func(context.Context, Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Audit publishes best-effort: handler failures are logged and dropped so
// audit logging can never fail the primary operation.
func (b *Bus) Audit(ctx context.Context, e Event) {
	if b == nil {
		return
	}
	if err := b.Publish(ctx, e); err != nil {
		log.Printf("audit event %s dropped: %v", e.Name, err)
	}
}
