package gateway

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
})

func serve(h http.Handler, method, origin string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/invoke", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r.Context())
	}))

	rr := serve(h, http.MethodPost, "", nil)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(requestIDHeader))

	rr = serve(h, http.MethodPost, "", map[string]string{requestIDHeader: "agent-call-7"})
	assert.Equal(t, "agent-call-7", seen)
	assert.Equal(t, "agent-call-7", rr.Header().Get(requestIDHeader))
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed originPolicy
		origin  string
		want    string
	}{
		{"unconfigured denies", nil, "http://localhost:3000", ""},
		{"wildcard", originPolicy{"*"}, "http://localhost:3000", "http://localhost:3000"},
		{"listed", originPolicy{"http://console.local"}, "http://console.local", "http://console.local"},
		{"unlisted", originPolicy{"http://console.local"}, "http://evil.com", ""},
		{"same origin", originPolicy{"*"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(corsMiddleware(okHandler, tt.allowed), http.MethodPost, tt.origin, nil)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	rr := serve(corsMiddleware(okHandler, originPolicy{"*"}), http.MethodOptions, "http://localhost:3000", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), requestIDHeader)
}

func TestOriginPolicy_CheckWebSocket(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed originPolicy
		want    bool
	}{
		{"no origin", "", nil, true},
		{"unconfigured", "http://evil.com", nil, false},
		{"wildcard", "http://anything.com", originPolicy{"*"}, true},
		{"match", "http://allowed.com", originPolicy{"http://allowed.com"}, true},
		{"mismatch", "http://evil.com", originPolicy{"http://allowed.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, tt.allowed.checkWebSocket(req))
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil provisioner")
	})

	rr := serve(recoverMiddleware(boom, testLog()), http.MethodPost, "", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rr.Body.String())
}

// hijackable is a ResponseWriter whose Hijack succeeds without a real socket.
type hijackable struct {
	*httptest.ResponseRecorder
}

func (h hijackable) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, nil
}

func TestRecoverMiddleware_SkipsHijackedConnection(t *testing.T) {
	upgradeThenPanic := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := w.(http.Hijacker).Hijack(); err != nil {
			t.Fatalf("hijack: %v", err)
		}
		panic("read loop blew up")
	})

	inner := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: hijackable{inner}, status: http.StatusOK}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	recoverMiddleware(upgradeThenPanic, testLog()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSwitchingProtocols, rec.status)
	assert.Zero(t, inner.Body.Len(), "nothing written to a hijacked connection")
	assert.Empty(t, inner.Header().Get("Content-Type"))
}

func TestResponseRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := &responseRecorder{ResponseWriter: rr, status: http.StatusOK}
	rec.WriteHeader(http.StatusAccepted)
	rec.Write([]byte("hello"))

	assert.Equal(t, http.StatusAccepted, rec.status)
	assert.Equal(t, 5, rec.bytes)
	assert.Same(t, rr, rec.Unwrap())

	// httptest.ResponseRecorder cannot be hijacked.
	_, _, err := rec.Hijack()
	assert.Error(t, err)
}

func TestWithMiddleware(t *testing.T) {
	h := withMiddleware(okHandler, testLog(), originPolicy{"http://console.local"})

	rr := serve(h, http.MethodPost, "http://console.local", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
	assert.Equal(t, "http://console.local", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(h, http.MethodPost, "http://other.local", nil)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
