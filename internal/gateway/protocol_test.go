package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameTypeConstants(t *testing.T) {
	assert.Equal(t, "req", FrameTypeRequest)
	assert.Equal(t, "res", FrameTypeResponse)
	assert.Equal(t, "event", FrameTypeEvent)
}

func TestNewRequest_WithParams(t *testing.T) {
	frame, err := NewRequest("req-2", "chat.send", chatSendParams{Message: "create a queue"})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeRequest, frame.Type)
	assert.Equal(t, "req-2", frame.ID)
	assert.Equal(t, "chat.send", frame.Method)
	assert.JSONEq(t, `{"message":"create a queue"}`, string(frame.Params))
}

func TestNewResponse(t *testing.T) {
	frame, err := NewResponse("req-1", HealthResponse{Status: "ok"})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeResponse, frame.Type)
	assert.Equal(t, "req-1", frame.ID)
	require.NotNil(t, frame.OK)
	assert.True(t, *frame.OK)
	assert.Nil(t, frame.Error)
	assert.JSONEq(t, `{"status":"ok"}`, string(frame.Payload))
}

func TestNewErrorResponse(t *testing.T) {
	frame := NewErrorResponse("req-1", ErrorShape{
		Code:    "unavailable",
		Message: "chat is not enabled",
	})

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"res","id":"req-1","ok":false,"error":{"code":"unavailable","message":"chat is not enabled"}}`,
		string(data))
}

func TestNewEvent(t *testing.T) {
	frame, err := NewEvent(EventActionDispatched, map[string]string{"name": "orders"}, 42)
	require.NoError(t, err)

	assert.Equal(t, FrameTypeEvent, frame.Type)
	assert.Equal(t, EventActionDispatched, frame.Event)
	assert.Equal(t, int64(42), frame.Seq)
	assert.JSONEq(t, `{"name":"orders"}`, string(frame.Payload))
}

func TestHelloOK_Shape(t *testing.T) {
	data, err := json.Marshal(HelloOK{
		Protocol: ProtocolVersion,
		Server:   ServerInfo{Version: "dev", Region: "us-east-1", ConnID: "conn-1"},
		Features: Features{Methods: []string{"chat.send"}, Events: []string{}},
		Policy:   ServerPolicy{MaxPayload: maxPayload, ChatTimeoutMs: 60000},
	})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(1), raw["protocol"])
	assert.Equal(t, "us-east-1", raw["server"].(map[string]any)["region"])
	assert.Equal(t, float64(60000), raw["policy"].(map[string]any)["chatTimeoutMs"])
	assert.NotContains(t, raw["policy"], "tickIntervalMs")
}
