package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/actiongroup/internal/hooks"
)

// Outcomes recorded for an invocation.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Invocation is one audited dispatch.
type Invocation struct {
	ID           string    `json:"id"`
	ActionGroup  string    `json:"actionGroup"`
	Function     string    `json:"function"`
	ResourceKind string    `json:"resourceKind"`
	Resource     string    `json:"resource"`
	Region       string    `json:"region"`
	Name         string    `json:"name"`
	Provisioned  bool      `json:"provisioned"`
	Outcome      string    `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChatTurn is one audited chat exchange.
type ChatTurn struct {
	SessionID string    `json:"sessionId"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditStore records invocations and chat turns.
type AuditStore struct {
	db  *DB
	now func() time.Time
}

// NewAuditStore creates an audit store using the given database.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db, now: time.Now}
}

// Record inserts inv, assigning an id and timestamp when missing.
func (s *AuditStore) Record(ctx context.Context, inv Invocation) (Invocation, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now()
	}
	if inv.Outcome == "" {
		inv.Outcome = OutcomeOK
	}

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO invocations (id, action_group, function, resource_kind, resource, region, name, provisioned, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ActionGroup, inv.Function, inv.ResourceKind, inv.Resource, inv.Region, inv.Name,
		inv.Provisioned, inv.Outcome, inv.Error, inv.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return inv, fmt.Errorf("recording invocation: %w", err)
	}
	return inv, nil
}

// Recent returns up to limit invocations, newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, action_group, function, resource_kind, resource, region, name, provisioned, outcome, error, created_at
		 FROM invocations ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var inv Invocation
		var createdAt string
		if err := rows.Scan(&inv.ID, &inv.ActionGroup, &inv.Function, &inv.ResourceKind, &inv.Resource,
			&inv.Region, &inv.Name, &inv.Provisioned, &inv.Outcome, &inv.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		inv.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// RecordTurn inserts a chat turn.
func (s *AuditStore) RecordTurn(ctx context.Context, turn ChatTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO chat_turns (session_id, turns, created_at) VALUES (?, ?, ?)`,
		turn.SessionID, turn.Turns, turn.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording chat turn: %w", err)
	}
	return nil
}

// Turns returns the recorded turns of a session in order.
func (s *AuditStore) Turns(ctx context.Context, sessionID string) ([]ChatTurn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT session_id, turns, created_at FROM chat_turns WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat turns: %w", err)
	}
	defer rows.Close()

	var out []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var createdAt string
		if err := rows.Scan(&t.SessionID, &t.Turns, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Subscribe registers the store as the "audit" handler for action and chat
// events. Rows are written even when the triggering request was cancelled,
// so timed-out invocations still leave a failed entry.
func (s *AuditStore) Subscribe(h *hooks.Manager) {
	h.On(hooks.EventActionDispatched, "audit", s.onAction(OutcomeOK))
	h.On(hooks.EventActionFailed, "audit", s.onAction(OutcomeFailed))
	h.On(hooks.EventChatTurn, "audit", func(ctx context.Context, p hooks.Payload) error {
		turns, _ := p.Data[hooks.KeyTurns].(int)
		return s.RecordTurn(context.WithoutCancel(ctx), ChatTurn{SessionID: p.String(hooks.KeySessionID), Turns: turns})
	})
}

func (s *AuditStore) onAction(outcome string) hooks.Handler {
	return func(ctx context.Context, p hooks.Payload) error {
		_, err := s.Record(context.WithoutCancel(ctx), Invocation{
			ActionGroup:  p.String(hooks.KeyActionGroup),
			Function:     p.String(hooks.KeyFunction),
			ResourceKind: p.String(hooks.KeyKind),
			Resource:     p.String(hooks.KeyResource),
			Region:       p.String(hooks.KeyRegion),
			Name:         p.String(hooks.KeyName),
			Provisioned:  p.Bool(hooks.KeyProvisioned),
			Outcome:      outcome,
			Error:        p.String(hooks.KeyError),
		})
		return err
	}
}
