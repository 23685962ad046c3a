// Package events provides the domain event publishing contract used by the
// approval service, with an in-process bus and a Redis-backed publisher.
package events

import (
	"context"
	"sync"
	"time"
)

// Approval event types published by the approval service.
const (
	TypeApprovalRequested = "approval.requested"
	TypeApprovalApproved  = "approval.approved"
	TypeApprovalRejected  = "approval.rejected"
	TypeApprovalDelegated = "approval.delegated"
	TypeApprovalCancelled = "approval.cancelled"
)

// Event is one domain event.
type Event struct {
	Type       string         `json:"type"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	TenantID   string         `json:"tenantId"`
	UserID     string         `json:"userId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Publisher publishes domain events. Implementations must be safe for
// concurrent use. Publish failures are the publisher's to report; callers on
// the approval path treat them as best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler consumes events delivered by the in-process Bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is a synchronous in-process event publisher that fans out each event to
// the handlers subscribed to its type. Handler errors are routed to the
// optional error callback and never abort delivery to remaining handlers.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[string][]Handler
	errHandler func(event Event, err error)
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithErrorHandler sets a callback invoked for each handler error.
func WithErrorHandler(fn func(event Event, err error)) BusOption {
	return func(b *Bus) {
		b.errHandler = fn
	}
}

// NewBus creates an empty event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{handlers: make(map[string][]Handler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every handler subscribed to its type.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil && b.errHandler != nil {
			b.errHandler(event, err)
		}
	}
	return nil
}
