package action

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Response states understood by the agent runtime. An empty state means success.
const (
	StateFailure  = "FAILURE"
	StateReprompt = "REPROMPT"
)

// Request is the function-call envelope sent by the agent runtime.
// Fields not listed here are ignored.
type Request struct {
	Agent                   json.RawMessage   `json:"agent,omitempty"`
	ActionGroup             string            `json:"actionGroup"`
	Function                string            `json:"function"`
	Parameters              []Parameter       `json:"parameters,omitempty"`
	MessageVersion          string            `json:"messageVersion"`
	SessionID               string            `json:"sessionId,omitempty"`
	InputText               string            `json:"inputText,omitempty"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// Response is the envelope returned to the agent runtime.
type Response struct {
	Response                FunctionResult    `json:"response"`
	MessageVersion          string            `json:"messageVersion"`
	SessionAttributes       map[string]string `json:"sessionAttributes,omitempty"`
	PromptSessionAttributes map[string]string `json:"promptSessionAttributes,omitempty"`
}

// FunctionResult echoes the invoked function and carries its outcome.
type FunctionResult struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

// FunctionResponse is the body of a function result.
type FunctionResponse struct {
	ResponseState string       `json:"responseState,omitempty"`
	ResponseBody  ResponseBody `json:"responseBody"`
}

// ResponseBody is keyed by content type; only TEXT is produced.
type ResponseBody struct {
	Text TextBody `json:"TEXT"`
}

// TextBody holds a plain-text result.
type TextBody struct {
	Body string `json:"body"`
}

// ParseRequest decodes a raw envelope.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decoding action request: %w", err)
	}
	return req, nil
}

// SuccessMessage is the text returned for every successfully dispatched call.
func SuccessMessage(function string) string {
	return "The function " + function + " was called successfully!"
}

// NewResponse builds a response echoing req's actionGroup, function,
// messageVersion and session attributes.
func NewResponse(req Request, state, body string) Response {
	return Response{
		Response: FunctionResult{
			ActionGroup: req.ActionGroup,
			Function:    req.Function,
			FunctionResponse: FunctionResponse{
				ResponseState: state,
				ResponseBody:  ResponseBody{Text: TextBody{Body: body}},
			},
		},
		MessageVersion:          req.MessageVersion,
		SessionAttributes:       req.SessionAttributes,
		PromptSessionAttributes: req.PromptSessionAttributes,
	}
}

// FailureResponse turns a dispatch error into a function response the agent
// can act on. Malformed parameters ask the agent to reprompt the user; every
// other failure is reported as FAILURE.
func FailureResponse(req Request, err error) Response {
	state := StateFailure
	if errors.Is(err, ErrMalformedParameter) {
		state = StateReprompt
	}
	return NewResponse(req, state, fmt.Sprintf("The function %s failed: %v", req.Function, err))
}
