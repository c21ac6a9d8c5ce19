package client

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/dkeye/WatchParty/internal/adapters/http"
	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/app/orch"
	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/config"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Mode:           "test",
		StaticPath:     "./web",
		ReadLimit:      32768,
		PingPeriod:     time.Second,
		WriteWait:      time.Second,
		SendBuffer:     64,
		Secret:         "test-secret",
		ChatRateLimit:  20,
		ChatRateWindow: time.Second,
	}
	o := orch.New(app.NewRegistry(), core.NewRegistry(), auth.NewMemoryStore(), app.SimplePolicy{})
	srv := httptest.NewServer(router.SetupRouter(ctx, cfg, o))
	t.Cleanup(srv.Close)
	return srv
}

type running struct {
	s     *Session
	stdin *io.PipeWriter
	done  chan error
}

func startSession(t *testing.T, ctx context.Context, opts Options) *running {
	t.Helper()
	s, err := NewSession(opts, io.Discard)
	require.NoError(t, err)
	pr, pw := io.Pipe()
	r := &running{s: s, stdin: pw, done: make(chan error, 1)}
	go func() { r.done <- s.Run(ctx, pr) }()
	t.Cleanup(func() { _ = pw.Close() })
	return r
}

func (r *running) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(r.stdin, line+"\n")
	require.NoError(t, err)
}

func TestSession_TwoPeersSync(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := startSession(t, ctx, Options{
		Server: srv.URL, RoomID: "movie", Password: "pw", Name: "alice",
		Create: true, File: "a.mp4", Ready: true,
	})
	require.Eventually(t, func() bool {
		return alice.s.Reconciler().State() == StateAwaitingHandshake
	}, 3*time.Second, 10*time.Millisecond)

	bob := startSession(t, ctx, Options{
		Server: srv.URL, RoomID: "movie", Password: "pw", Name: "bob",
		File: "b.mp4", Ready: true,
	})

	for _, p := range []*running{alice, bob} {
		require.Eventually(t, func() bool {
			return p.s.Reconciler().State() == StateActive
		}, 3*time.Second, 10*time.Millisecond)
	}

	alice.send(t, "seek 42")
	alice.send(t, "play")
	assert.Eventually(t, func() bool {
		pl := bob.s.Player()
		return !pl.Paused() && math.Abs(pl.CurrentTime()-42) < 1
	}, 3*time.Second, 10*time.Millisecond)

	bob.send(t, "say hello")
	assert.Eventually(t, func() bool {
		msgs := alice.s.Chat().Messages()
		return len(msgs) == 1 && msgs[0].Text == "hello" && msgs[0].SenderName == "bob"
	}, 3*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		msgs := bob.s.Chat().Messages()
		return len(msgs) == 1 && msgs[0].ID != ""
	}, 3*time.Second, 10*time.Millisecond, "own echo replaces the local copy")

	alice.send(t, "quit")
	select {
	case err := <-alice.done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("alice did not quit")
	}
}

func TestSession_CreateFallsBackToJoin(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := startSession(t, ctx, Options{Server: srv.URL, RoomID: "r", Name: "alice", Create: true, File: "x"})
	require.Eventually(t, func() bool {
		return first.s.Reconciler().State() == StateAwaitingHandshake
	}, 3*time.Second, 10*time.Millisecond)

	second := startSession(t, ctx, Options{Server: srv.URL, RoomID: "r", Name: "bob", Create: true, File: "y"})
	assert.Eventually(t, func() bool {
		return second.s.Reconciler().State() == StateAwaitingHandshake
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSession_RefusedJoinEndsSession(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := startSession(t, ctx, Options{Server: srv.URL, RoomID: "nowhere", Name: "alice"})
	select {
	case err := <-r.done:
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	case <-time.After(3 * time.Second):
		t.Fatal("session kept running")
	}
}

func TestSession_AuthBeforeJoin(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := startSession(t, ctx, Options{Server: srv.URL, RoomID: "r", Name: "alice", Create: true, AuthPassword: "secret", File: "x"})
	require.Eventually(t, func() bool {
		return r.s.Reconciler().State() == StateAwaitingHandshake
	}, 3*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-r.done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop")
	}
}

// mute is a socket server that never answers. It records the frame types
// each connection sent and, with dropFirst, hangs up the first connection
// as soon as it sees a login.
type mute struct {
	mu     sync.Mutex
	frames [][]string
}

func (m *mute) types(conn int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn >= len(m.frames) {
		return nil
	}
	return append([]string(nil), m.frames[conn]...)
}

func startMute(t *testing.T, dropFirst bool) (*httptest.Server, *mute) {
	t.Helper()
	m := &mute{}
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		m.mu.Lock()
		idx := len(m.frames)
		m.frames = append(m.frames, nil)
		m.mu.Unlock()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var env protocol.Envelope
			if json.Unmarshal(data, &env) != nil {
				continue
			}
			m.mu.Lock()
			m.frames[idx] = append(m.frames[idx], env.Type)
			m.mu.Unlock()
			if dropFirst && idx == 0 && env.Type == protocol.EventAuthLogin {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, m
}

func runWithTimeout(t *testing.T, ctx context.Context, opts Options, timeout time.Duration) <-chan error {
	t.Helper()
	s, err := NewSession(opts, io.Discard)
	require.NoError(t, err)
	s.requestTimeout = timeout
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, pr) }()
	return done
}

func TestSession_LoginTimeoutEndsSessionWithoutJoining(t *testing.T) {
	srv, m := startMute(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := runWithTimeout(t, ctx, Options{Server: srv.URL, RoomID: "r", Name: "alice", AuthPassword: "secret"}, 200*time.Millisecond)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(3 * time.Second):
		t.Fatal("session kept running")
	}
	assert.Equal(t, []string{protocol.EventAuthLogin}, m.types(0))
}

func TestSession_LoginCutByDisconnectWaitsForReconnect(t *testing.T) {
	srv, m := startMute(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := runWithTimeout(t, ctx, Options{Server: srv.URL, RoomID: "r", Name: "alice", AuthPassword: "secret"}, 300*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(m.types(1)) > 0
	}, 3*time.Second, 10*time.Millisecond)

	// the dropped connection never saw a join, and the new one logs in first
	assert.Equal(t, []string{protocol.EventAuthLogin}, m.types(0))
	assert.Equal(t, protocol.EventAuthLogin, m.types(1)[0])
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(3 * time.Second):
		t.Fatal("session kept running")
	}
	assert.NotContains(t, m.types(1), protocol.EventJoinRoom)
}

func TestNewSession_Validates(t *testing.T) {
	_, err := NewSession(Options{Server: "http://x", RoomID: "r"}, io.Discard)
	assert.ErrorIs(t, err, domain.ErrUsernameEmpty)

	_, err = NewSession(Options{Server: "http://x", Name: "a"}, io.Discard)
	assert.ErrorIs(t, err, domain.ErrRoomIDEmpty)

	_, err = NewSession(Options{Server: "ftp://x", RoomID: "r", Name: "a"}, io.Discard)
	assert.Error(t, err)
}
