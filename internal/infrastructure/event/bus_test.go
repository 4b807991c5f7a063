package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/forestcrm/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu       sync.Mutex
	types    []string
	received []shared.DomainEvent
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	h.received = append(h.received, event)
	h.mu.Unlock()
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func (h *recordingHandler) events() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.received...)
}

func newTestEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "forest", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishDeliversToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	require.NoError(t, bus.Start(context.Background()))
	defer bus.Stop(context.Background())

	handler := &recordingHandler{types: []string{"forest.updated"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("forest.updated"))
	require.NoError(t, err)

	received := handler.events()
	require.Len(t, received, 1)
	assert.Equal(t, "forest.updated", received[0].EventType())
}

func TestInMemoryEventBus_PublishSkipsUnrelatedTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	handler := &recordingHandler{types: []string{"forest.updated"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("customer.updated"))
	require.NoError(t, err)
	assert.Empty(t, handler.events())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	handler := &recordingHandler{types: []string{"forest.updated"}}
	bus.Subscribe(handler, "archive.updated")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("forest.updated")))
	assert.Empty(t, handler.events())

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("archive.updated")))
	assert.Len(t, handler.events(), 1)
}

func TestInMemoryEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	failing := &recordingHandler{types: []string{"forest.updated"}, err: errors.New("rollup failed")}
	healthy := &recordingHandler{types: []string{"forest.updated"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("forest.updated"))
	require.NoError(t, err)
	assert.Len(t, healthy.events(), 1)
}

func TestInMemoryEventBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	panicking := &recordingHandler{types: []string{"forest.updated"}, panics: true}
	bus.Subscribe(panicking)

	assert.NotPanics(t, func() {
		err := bus.Publish(context.Background(), newTestEvent("forest.updated"))
		assert.NoError(t, err)
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	handler := &recordingHandler{types: []string{"forest.updated"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("forest.updated")))
	assert.Empty(t, handler.events())
}

func TestInMemoryEventBus_PublishMultipleEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zaptest.NewLogger(t))

	handler := &recordingHandler{types: []string{"forest.updated", "forest.deleted"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(),
		newTestEvent("forest.updated"),
		newTestEvent("forest.deleted"),
	)
	require.NoError(t, err)
	assert.Len(t, handler.events(), 2)
}

func TestHandlerRegistry_WildcardReceivesAll(t *testing.T) {
	registry := NewHandlerRegistry()

	wildcard := &recordingHandler{}
	typed := &recordingHandler{types: []string{"forest.updated"}}
	registry.Register(wildcard)
	registry.Register(typed, "forest.updated")

	assert.Len(t, registry.GetHandlers("forest.updated"), 2)
	assert.Len(t, registry.GetHandlers("customer.updated"), 1)
}

func TestHandlerRegistry_UnregisterRemovesEverywhere(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := &recordingHandler{}
	registry.Register(handler, "forest.updated", "archive.updated")
	registry.Register(handler) // wildcard too

	registry.Unregister(handler)

	assert.Empty(t, registry.GetHandlers("forest.updated"))
	assert.Empty(t, registry.GetHandlers("archive.updated"))
}
