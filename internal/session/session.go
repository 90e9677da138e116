// Package session keeps a multi-turn chat session and forwards each user
// utterance to a backend.
package session

import (
	"context"
	"slices"

	"github.com/soyeahso/actiongroup/internal/hooks"
	"github.com/soyeahso/actiongroup/internal/logging"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one rendered turn.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the whole session: the backend-assigned id and the ordered history.
// It is a value; Submit returns a new State and never mutates its argument.
type State struct {
	SessionID string        `json:"sessionId"`
	History   []ChatMessage `json:"history"`
}

// Reply is what a backend returns for one utterance.
type Reply struct {
	Text      string
	SessionID string
}

// BackendInvoker answers user utterances. Timeouts come from ctx.
type BackendInvoker interface {
	Invoke(ctx context.Context, text, sessionID string) (Reply, error)
}

// Manager runs chat turns against a backend. One State must only be driven
// by one caller at a time.
type Manager struct {
	backend  BackendInvoker
	fallback *PlaceholderBackend
	hooks    hooks.Emitter
	log      *logging.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHooks publishes a chat_turn event after every Submit.
func WithHooks(h hooks.Emitter) ManagerOption {
	return func(m *Manager) {
		m.hooks = h
	}
}

// NewManager creates a manager. A nil backend runs in placeholder mode, which
// is also used whenever the backend fails.
func NewManager(backend BackendInvoker, region string, log *logging.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		backend:  backend,
		fallback: NewPlaceholderBackend(region),
		log:      log.Sub("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit records the user's text, asks the backend for an answer and records
// the answer. Exactly two messages are appended per call.
func (m *Manager) Submit(ctx context.Context, state State, text string) (State, string) {
	next := State{
		SessionID: state.SessionID,
		History:   slices.Clone(state.History),
	}
	next.History = append(next.History, ChatMessage{Role: RoleUser, Content: text})

	reply := m.invoke(ctx, text, state.SessionID)
	if reply.SessionID != "" {
		next.SessionID = reply.SessionID
	}
	next.History = append(next.History, ChatMessage{Role: RoleAssistant, Content: reply.Text})

	m.log.Debug().
		Str("sessionId", next.SessionID).
		Int("turns", len(next.History)/2).
		Msg("chat turn complete")

	if m.hooks != nil {
		m.hooks.Emit(ctx, hooks.EventChatTurn, map[string]any{
			hooks.KeySessionID: next.SessionID,
			hooks.KeyTurns:     len(next.History) / 2,
		})
	}

	return next, reply.Text
}

func (m *Manager) invoke(ctx context.Context, text, sessionID string) Reply {
	if m.backend == nil {
		r, _ := m.fallback.Invoke(ctx, text, sessionID)
		return r
	}

	r, err := m.backend.Invoke(ctx, text, sessionID)
	if err != nil {
		m.log.Warn().Err(err).Msg("chat backend unavailable, using placeholder reply")
		r, _ = m.fallback.Invoke(ctx, text, sessionID)
	}
	return r
}
