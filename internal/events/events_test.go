package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToSubscribedType(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe(TypeApprovalApproved, HandlerFunc(func(ctx context.Context, event Event) error {
		received = append(received, event)
		return nil
	}))
	bus.Subscribe(TypeApprovalRejected, HandlerFunc(func(ctx context.Context, event Event) error {
		t.Fatal("handler for a different type must not fire")
		return nil
	}))

	err := bus.Publish(context.Background(), Event{
		Type:     TypeApprovalApproved,
		TenantID: "tenant-1",
		EntityID: "order-1",
	})
	assert.NoError(t, err)
	assert.Len(t, received, 1)
	assert.Equal(t, "order-1", received[0].EntityID)
	assert.False(t, received[0].OccurredAt.IsZero())
}

func TestBusFansOutToAllHandlers(t *testing.T) {
	bus := NewBus()

	var calls int
	handler := HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return nil
	})
	bus.Subscribe(TypeApprovalRequested, handler)
	bus.Subscribe(TypeApprovalRequested, handler)

	err := bus.Publish(context.Background(), Event{Type: TypeApprovalRequested})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBusHandlerErrorDoesNotAbortDelivery(t *testing.T) {
	var failed []error
	bus := NewBus(WithErrorHandler(func(event Event, err error) {
		failed = append(failed, err)
	}))

	var delivered bool
	bus.Subscribe(TypeApprovalCancelled, HandlerFunc(func(ctx context.Context, event Event) error {
		return errors.New("handler broke")
	}))
	bus.Subscribe(TypeApprovalCancelled, HandlerFunc(func(ctx context.Context, event Event) error {
		delivered = true
		return nil
	}))

	err := bus.Publish(context.Background(), Event{Type: TypeApprovalCancelled})
	assert.NoError(t, err)
	assert.True(t, delivered)
	assert.Len(t, failed, 1)
}

func TestBusNoSubscribers(t *testing.T) {
	bus := NewBus()
	err := bus.Publish(context.Background(), Event{Type: TypeApprovalDelegated})
	assert.NoError(t, err)
}
