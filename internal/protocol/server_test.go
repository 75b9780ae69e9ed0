package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/config"
	"github.com/RichardKnop/ajxgate/internal/dispatch"
	"github.com/RichardKnop/ajxgate/internal/session"
)

// echoHandler answers with the command text, "fail" with an error and
// "repeat N" with a string of N x characters.
type echoHandler struct {
	mu       sync.Mutex
	sessions []*session.Session
}

func (h *echoHandler) Do(ctx context.Context, aSession *session.Session, raw string) dispatch.Response {
	h.mu.Lock()
	h.sessions = append(h.sessions, aSession)
	h.mu.Unlock()

	if raw == "fail" {
		return dispatch.Response{Err: errors.New("it failed")}
	}
	if n, ok := strings.CutPrefix(raw, "repeat "); ok {
		size, _ := strconv.Atoi(n)
		return dispatch.Response{Payload: strings.Repeat("x", size)}
	}
	return dispatch.Response{Payload: raw}
}

func (h *echoHandler) seenSessions() []*session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*session.Session(nil), h.sessions...)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Port = 0
	cfg.ChunkSize = 8
	cfg.IdleFlush = 20 * time.Millisecond
	cfg.ReadTimeout = 5 * time.Second
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config, handler Handler) (*Server, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := NewServer(cfg, handler, session.New(), zap.NewNop())
	require.NoError(t, err)
	srv.Serve(ctx)
	t.Cleanup(srv.Stop)

	return srv, localAddr(srv.Addr())
}

func localAddr(addr net.Addr) string {
	return fmt.Sprintf("127.0.0.1:%d", addr.(*net.TCPAddr).Port)
}

func TestServer_Envelope(t *testing.T) {
	t.Parallel()

	_, addr := startTestServer(t, testConfig(), new(echoHandler))

	aClient, err := NewClient(addr)
	require.NoError(t, err)
	defer aClient.Close()

	body, err := aClient.Send("INIT shop")
	require.NoError(t, err)
	assert.JSONEq(t, `"INIT shop"`, string(body))

	// Larger than the chunk size, reassembled by the client.
	body, err = aClient.Send("repeat 100")
	require.NoError(t, err)
	expected, _ := json.Marshal(strings.Repeat("x", 100))
	assert.Equal(t, expected, []byte(body))

	body, err = aClient.Send("fail")
	require.NoError(t, err)
	msg, ok := ParseError(body)
	require.True(t, ok)
	assert.Equal(t, "it failed", msg)

	// Newlines stay inside the command.
	body, err = aClient.Send("FIND *\nIN users")
	require.NoError(t, err)
	assert.JSONEq(t, `"FIND *\nIN users"`, string(body))

	_, err = aClient.Send("   ")
	assert.ErrorIs(t, err, errEmptyCommand)
}

func TestServer_EnvelopeWire(t *testing.T) {
	t.Parallel()

	_, addr := startTestServer(t, testConfig(), new(echoHandler))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// Two commands in a single write, the second closed by the idle gap.
	_, err = io.WriteString(conn, Marker+"first\n"+Marker+"second")
	require.NoError(t, err)

	expected := `"first"` + Terminator + `"second"` + Terminator
	actual := make([]byte, 0, len(expected))
	buf := make([]byte, 64)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for len(actual) < len(expected) {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		actual = append(actual, buf[:n]...)
	}
	assert.Equal(t, expected, string(actual))
}

func TestServer_HTTP(t *testing.T) {
	t.Parallel()

	_, addr := startTestServer(t, testConfig(), new(echoHandler))

	for _, tc := range []struct {
		Command  string
		Expected string
	}{
		{"FIND * IN users", `"FIND * IN users"`},
		{"fail", `{"error":"it failed"}`},
		{"repeat 20", `"xxxxxxxxxxxxxxxxxxxx"`},
	} {
		resp, err := http.Post("http://"+addr+"/", "text/plain", strings.NewReader(tc.Command))
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.JSONEq(t, tc.Expected, string(body))
	}
}

func TestServer_DedicatedHTTPPort(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HTTPPort = freePort(t)

	srv, _ := startTestServer(t, cfg, new(echoHandler))
	require.NotNil(t, srv.HTTPAddr())

	resp, err := http.Post("http://"+localAddr(srv.HTTPAddr())+"/", "text/plain", strings.NewReader("DESCRIBE TABLE users"))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `"DESCRIBE TABLE users"`, string(body))
}

func TestServer_UnknownProtocolIsIgnored(t *testing.T) {
	t.Parallel()

	handler := new(echoHandler)
	_, addr := startTestServer(t, testConfig(), handler)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, "HELLO there\n")
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	data, err := io.ReadAll(conn)
	require.NoError(t, err, "server closes the connection")
	assert.Empty(t, data)
	assert.Empty(t, handler.seenSessions())
}

func TestServer_SessionScope(t *testing.T) {
	t.Parallel()

	send := func(t *testing.T, addr string) {
		aClient, err := NewClient(addr)
		require.NoError(t, err)
		defer aClient.Close()
		_, err = aClient.Send("ping")
		require.NoError(t, err)
	}

	t.Run("Global", func(t *testing.T) {
		handler := new(echoHandler)
		_, addr := startTestServer(t, testConfig(), handler)

		send(t, addr)
		send(t, addr)

		sessions := handler.seenSessions()
		require.Len(t, sessions, 2)
		assert.Same(t, sessions[0], sessions[1])
	})

	t.Run("Connection", func(t *testing.T) {
		cfg := testConfig()
		cfg.SessionScope = session.ScopeConnection

		handler := new(echoHandler)
		_, addr := startTestServer(t, cfg, handler)

		send(t, addr)
		send(t, addr)

		sessions := handler.seenSessions()
		require.Len(t, sessions, 2)
		assert.NotSame(t, sessions[0], sessions[1])
	})
}

func TestServer_StopClosesConnections(t *testing.T) {
	t.Parallel()

	srv, addr := startTestServer(t, testConfig(), new(echoHandler))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = io.WriteString(conn, Marker+"hello\n")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}
