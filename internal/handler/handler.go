// Package handler adapts the dispatcher to the Lambda runtime.
package handler

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/soyeahso/actiongroup/internal/action"
	"github.com/soyeahso/actiongroup/internal/logging"
)

// Dispatcher is the part of action.Dispatcher the handler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req action.Request) (action.Result, error)
}

// Handler turns raw agent events into function responses.
type Handler struct {
	dispatcher Dispatcher
	log        *logging.Logger
}

// New creates a Handler.
func New(d Dispatcher, log *logging.Logger) *Handler {
	return &Handler{dispatcher: d, log: log.Sub("handler")}
}

// Handle dispatches one event. Dispatch failures are reported to the agent as
// a FAILURE or REPROMPT response rather than as a function error. Only an
// event that cannot be decoded at all fails the invocation.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (action.Response, error) {
	log := h.log
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With("requestId", lc.AwsRequestID)
	}

	req, err := action.ParseRequest(event)
	if err != nil {
		log.Error().Err(err).Msg("rejecting event")
		return action.Response{}, err
	}

	log.Debug().
		Str("actionGroup", req.ActionGroup).
		Str("function", req.Function).
		Int("parameters", len(req.Parameters)).
		Msg("event received")

	res, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("function", req.Function).Msg("dispatch failed")
		return action.FailureResponse(req, err), nil
	}
	return res.Response, nil
}
