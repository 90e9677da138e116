package gateway

import (
	"fmt"
	"testing"

	"github.com/soyeahso/actiongroup/internal/config"
	"github.com/soyeahso/actiongroup/internal/logging"
	"github.com/soyeahso/actiongroup/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestClientRegistry(t *testing.T) {
	reg := NewClientRegistry(testLog())
	assert.Equal(t, 0, reg.Count())

	for i := range 3 {
		reg.Add(&Client{ConnID: fmt.Sprintf("conn-%d", i), Info: ClientInfo{ID: fmt.Sprintf("console-%d", i)}})
	}
	assert.Equal(t, 3, reg.Count())
	assert.Len(t, reg.snapshot(), 3)

	reg.Remove("conn-1")
	reg.Remove("never-added")
	assert.Equal(t, 2, reg.Count())
	for _, c := range reg.snapshot() {
		assert.NotEqual(t, "conn-1", c.ConnID)
	}
}

func TestClientRegistry_CloseAll(t *testing.T) {
	reg := NewClientRegistry(testLog())
	a, b := &Client{ConnID: "a"}, &Client{ConnID: "b"}
	reg.Add(a)
	reg.Add(b)

	reg.CloseAll()
	assert.Equal(t, 0, reg.Count())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestClientRegistry_BroadcastSkipsClosed(t *testing.T) {
	reg := NewClientRegistry(testLog())
	c := &Client{ConnID: "gone"}
	c.Close()
	reg.Add(c)

	// Must not panic or block on a client without a socket.
	reg.Broadcast(EventActionDispatched, map[string]any{"name": "orders"}, 1)
}

func TestClient_ChatState(t *testing.T) {
	c := &Client{ConnID: "conn-1"}
	assert.Empty(t, c.ChatState().History)

	next := session.State{SessionID: "kb-9", History: []session.ChatMessage{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}}
	c.setChatState(next)
	assert.Equal(t, next, c.ChatState())
}

func TestClient_CloseIdempotent(t *testing.T) {
	c := &Client{ConnID: "conn-1"}
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Send(Frame{Type: FrameTypeEvent}), ErrClientClosed)
}

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		name string
		bind string
		port int
		host string
		want string
	}{
		{"loopback", "loopback", 18790, "", "127.0.0.1:18790"},
		{"lan", "lan", 9999, "", "0.0.0.0:9999"},
		{"custom default host", "custom", 3000, "", "0.0.0.0:3000"},
		{"custom host", "custom", 3000, "10.0.0.1", "10.0.0.1:3000"},
		{"custom ipv6", "custom", 3000, "::1", "[::1]:3000"},
		{"unknown falls back", "whatever", 5000, "", "127.0.0.1:5000"},
		{"empty falls back", "", 5000, "", "127.0.0.1:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GatewayConfig{Bind: tt.bind, Port: tt.port, CustomBindHost: tt.host}
			assert.Equal(t, tt.want, resolveBindAddr(cfg))
		})
	}
}
