package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// LambdaAPI is the subset of the Lambda client used by LambdaBackend.
type LambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// ErrEmptyAnswer is returned when the function replies without an answer.
var ErrEmptyAnswer = errors.New("knowledge base returned no answer")

// LambdaBackend answers by invoking a knowledge-base Lambda function.
type LambdaBackend struct {
	client       LambdaAPI
	functionName string
}

// NewLambdaBackend creates a backend invoking functionName.
func NewLambdaBackend(client LambdaAPI, functionName string) *LambdaBackend {
	return &LambdaBackend{client: client, functionName: functionName}
}

type kbRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type kbResult struct {
	Body json.RawMessage `json:"body"`
}

type kbBody struct {
	Answer    string `json:"answer"`
	SessionID string `json:"sessionId"`
}

// Invoke sends the question and the current session id to the function.
func (b *LambdaBackend) Invoke(ctx context.Context, text, sessionID string) (Reply, error) {
	payload, err := json.Marshal(kbRequest{Question: text, SessionID: sessionID})
	if err != nil {
		return Reply{}, err
	}

	out, err := b.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(b.functionName),
		Payload:      payload,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("invoking %s: %w", b.functionName, err)
	}
	if out.FunctionError != nil {
		return Reply{}, fmt.Errorf("%s failed (%s): %s", b.functionName, aws.ToString(out.FunctionError), string(out.Payload))
	}

	body, err := parseKBResult(out.Payload)
	if err != nil {
		return Reply{}, fmt.Errorf("decoding %s reply: %w", b.functionName, err)
	}
	if body.Answer == "" {
		return Reply{}, ErrEmptyAnswer
	}
	return Reply{Text: body.Answer, SessionID: body.SessionID}, nil
}

// parseKBResult accepts body either as an object or as a JSON-encoded string,
// the latter being what API Gateway style handlers return.
func parseKBResult(payload []byte) (kbBody, error) {
	var res kbResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return kbBody{}, err
	}
	if len(res.Body) == 0 {
		return kbBody{}, ErrEmptyAnswer
	}

	raw := []byte(res.Body)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return kbBody{}, err
		}
		raw = []byte(s)
	}

	var body kbBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return kbBody{}, err
	}
	return body, nil
}
