package e2etests

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/config"
	"github.com/RichardKnop/ajxgate/internal/dispatch"
	"github.com/RichardKnop/ajxgate/internal/engine/sqlite"
	"github.com/RichardKnop/ajxgate/internal/parser"
	"github.com/RichardKnop/ajxgate/internal/protocol"
	"github.com/RichardKnop/ajxgate/internal/session"
)

// startServer wires the whole gateway on a random port backed by sqlite
// files in a temporary directory and returns the address to dial.
func startServer(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.Port = 0
	cfg.DataDir = t.TempDir()
	cfg.ChunkSize = 64
	cfg.IdleFlush = 20 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := zap.NewNop()

	anEngine, err := sqlite.New(cfg.DataDir, logger)
	require.NoError(t, err)

	aWorker := dispatch.NewWorker(dispatch.New(anEngine, parser.New(logger), logger), logger, 16)
	aWorker.Start(ctx)

	global := session.New()

	srv, err := protocol.NewServer(cfg, aWorker, global, logger)
	require.NoError(t, err)

	srv.Serve(ctx)

	t.Cleanup(func() {
		srv.Stop()
		aWorker.Stop()
		if err := global.Close(); err != nil {
			fmt.Printf("error closing database: %s\n", err)
		}
	})

	return fmt.Sprintf("127.0.0.1:%d", srv.Addr().(*net.TCPAddr).Port)
}

func newClient(t *testing.T, addr string) *protocol.Client {
	t.Helper()
	aClient, err := protocol.NewClient(addr)
	require.NoError(t, err)
	t.Cleanup(aClient.Close)
	return aClient
}

// mustSend sends a command and decodes the body into out.
func mustSend(t *testing.T, aClient *protocol.Client, command string, out any) {
	t.Helper()
	body, err := aClient.Send(command)
	require.NoError(t, err)
	if msg, ok := protocol.ParseError(body); ok {
		t.Fatalf("command %q failed: %s", command, msg)
	}
	require.NoError(t, json.Unmarshal(body, out), string(body))
}

// mustFail sends a command expecting an error body and returns its message.
func mustFail(t *testing.T, aClient *protocol.Client, command string) string {
	t.Helper()
	body, err := aClient.Send(command)
	require.NoError(t, err)
	msg, ok := protocol.ParseError(body)
	require.True(t, ok, "expected error body for %q, got %s", command, body)
	return msg
}
