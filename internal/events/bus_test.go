package events

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishCallsHandlersInOrder(t *testing.T) {
	bus := NewBus()
	calls := make([]int, 0, 2)

	bus.Subscribe(ChallengeEdited, func(_ context.Context, _ Event) error {
		calls = append(calls, 1)
		return nil
	})
	bus.Subscribe(ChallengeEdited, func(_ context.Context, _ Event) error {
		calls = append(calls, 2)
		return nil
	})

	if err := bus.Publish(context.Background(), Event{Name: ChallengeEdited}); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}

	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("unexpected handler call sequence: %+v", calls)
	}
}

func TestBusPublishStopsOnFirstError(t *testing.T) {
	bus := NewBus()
	var calledSecond bool
	expectedErr := errors.New("handler failed")

	bus.Subscribe(ConflictResolved, func(_ context.Context, _ Event) error {
		return expectedErr
	})
	bus.Subscribe(ConflictResolved, func(_ context.Context, _ Event) error {
		calledSecond = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{Name: ConflictResolved})
	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}
	if calledSecond {
		t.Fatalf("expected second handler not to run")
	}
}

func TestAuditSwallowsHandlerErrors(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(ChallengeDeleted, func(_ context.Context, _ Event) error {
		return errors.New("sink unavailable")
	})

	// Must not panic or propagate; the primary operation keeps going.
	bus.Audit(context.Background(), Event{Name: ChallengeDeleted})

	var nilBus *Bus
	nilBus.Audit(context.Background(), Event{Name: ChallengeDeleted})
}
