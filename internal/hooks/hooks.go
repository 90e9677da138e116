// Package hooks provides an event-driven hook system for action-group
// lifecycle events. The audit log and tests subscribe through it.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/actiongroup/internal/logging"
)

// Event names for the hook system.
const (
	EventActionDispatched = "action_dispatched"
	EventActionFailed     = "action_failed"
	EventChatTurn         = "chat_turn"
	EventGatewayStart     = "gateway_start"
	EventGatewayStop      = "gateway_stop"
)

// Payload data keys shared by emitters and handlers.
const (
	KeyActionGroup = "actionGroup"
	KeyFunction    = "function"
	KeyKind        = "kind"
	KeyResource    = "resource"
	KeyRegion      = "region"
	KeyName        = "name"
	KeyProvisioned = "provisioned"
	KeyError       = "error"
	KeySessionID   = "sessionId"
	KeyTurns       = "turns"
	KeyAddr        = "addr"
)

// Emitter is the publishing side of a Manager.
type Emitter interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
	async   bool
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and debugging.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// OnAsync registers a handler that Emit runs on its own goroutine, so a slow
// subscriber never delays the emitter. The handler's context is detached from
// the emitter's cancellation.
func (m *Manager) OnAsync(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler, async: true})
	m.log.Debug().Str("event", event).Str("handler", name).Bool("async", true).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event. Synchronous handlers run in registration order
// on the caller's goroutine; async handlers are started first and not
// awaited. Errors are logged and never stop other handlers.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	payload := Payload{Event: event, Data: data}
	detached := context.WithoutCancel(ctx)

	for _, h := range handlers {
		if h.async {
			go m.run(detached, h, payload)
		}
	}
	for _, h := range handlers {
		if !h.async {
			m.run(ctx, h, payload)
		}
	}
}

func (m *Manager) run(ctx context.Context, h namedHandler, p Payload) {
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Bool("async", h.async).
			Msg("hook handler error")
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}

// String returns the value under key as a string, or "" if absent or not a string.
func (p Payload) String(key string) string {
	s, _ := p.Data[key].(string)
	return s
}

// Bool returns the value under key as a bool, or false if absent.
func (p Payload) Bool(key string) bool {
	b, _ := p.Data[key].(bool)
	return b
}
