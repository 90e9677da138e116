package gateway

import (
	"context"
	"net/http"

	"github.com/soyeahso/actiongroup/internal/session"
	"github.com/soyeahso/actiongroup/internal/store"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /invoke", s.handleInvoke)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("chat.send", s.rpcChatSend)
	s.Handle("chat.history", s.rpcChatHistory)
	s.Handle("chat.turns", s.rpcChatTurns)
	s.Handle("invocations.recent", s.rpcInvocationsRecent)
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(s.health())
}

type chatSendParams struct {
	Message string `json:"message"`
}

// ChatSendResult is the chat.send response payload.
type ChatSendResult struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId,omitempty"`
	Turns     int    `json:"turns"`
}

func (s *Server) rpcChatSend(rc *RequestContext) {
	if s.chat == nil {
		rc.RespondError("unavailable", "chat is not enabled")
		return
	}

	var p chatSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Message == "" {
		rc.RespondError("invalid_params", "message is required")
		return
	}

	parent := rc.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, s.chatTimeout())
	defer cancel()

	state, reply := s.chat.Submit(ctx, rc.Client.ChatState(), p.Message)
	rc.Client.setChatState(state)

	rc.Respond(ChatSendResult{
		Reply:     reply,
		SessionID: state.SessionID,
		Turns:     len(state.History) / 2,
	})
}

func (s *Server) rpcChatHistory(rc *RequestContext) {
	state := rc.Client.ChatState()
	history := state.History
	if history == nil {
		history = []session.ChatMessage{}
	}
	rc.Respond(session.State{SessionID: state.SessionID, History: history})
}

type chatTurnsParams struct {
	SessionID string `json:"sessionId,omitempty"`
}

// rpcChatTurns lists the audited turns of a session. Without a sessionId it
// reports on the caller's own chat session.
func (s *Server) rpcChatTurns(rc *RequestContext) {
	if s.audit == nil {
		rc.RespondError("unavailable", "audit log is not enabled")
		return
	}

	var p chatTurnsParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		p.SessionID = rc.Client.ChatState().SessionID
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required before the first chat turn")
		return
	}

	ctx := rc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	turns, err := s.audit.Turns(ctx, p.SessionID)
	if err != nil {
		rc.RespondError("internal", err.Error())
		return
	}
	if turns == nil {
		turns = []store.ChatTurn{}
	}
	rc.Respond(map[string]any{"sessionId": p.SessionID, "turns": turns})
}

type invocationsRecentParams struct {
	Limit int `json:"limit,omitempty"`
}

func (s *Server) rpcInvocationsRecent(rc *RequestContext) {
	if s.audit == nil {
		rc.RespondError("unavailable", "audit log is not enabled")
		return
	}

	var p invocationsRecentParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	ctx := rc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	invs, err := s.audit.Recent(ctx, p.Limit)
	if err != nil {
		rc.RespondError("internal", err.Error())
		return
	}
	rc.Respond(map[string]any{"invocations": invs})
}
