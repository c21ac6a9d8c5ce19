package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/protocol"
)

// EventConnected is delivered on Inbound after every successful dial.
const EventConnected = "transport:connected"

const (
	writeWait     = 5 * time.Second
	readTimeout   = 75 * time.Second
	inboundBuffer = 256
	minReconnect  = time.Second
	maxReconnect  = 5 * time.Second
)

var ErrDisconnected = errors.New("not connected")

// Transport is the client end of the room socket. It redials forever with
// bounded backoff and pairs requests with their acks.
type Transport struct {
	url        string
	dialer     *websocket.Dialer
	newBackOff func() backoff.BackOff

	wmu  sync.Mutex
	conn *websocket.Conn

	mu      sync.Mutex
	pending map[string]chan protocol.Ack
	seq     atomic.Uint64

	inbound chan protocol.Envelope
}

// NewTransport accepts an http(s) or ws(s) server base URL.
func NewTransport(server string) (*Transport, error) {
	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"

	return &Transport{
		url:        u.String(),
		dialer:     websocket.DefaultDialer,
		newBackOff: reconnectBackOff,
		pending:    make(map[string]chan protocol.Ack),
		inbound:    make(chan protocol.Envelope, inboundBuffer),
	}, nil
}

func reconnectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minReconnect
	b.MaxInterval = maxReconnect
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (t *Transport) Inbound() <-chan protocol.Envelope { return t.inbound }

// Run keeps the socket up until ctx is done.
func (t *Transport) Run(ctx context.Context) error {
	for {
		conn, err := t.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		t.setConn(conn)
		log.Info().Str("module", "client.transport").Str("url", t.url).Msg("connected")
		t.deliver(ctx, protocol.Envelope{Type: EventConnected})

		err = t.readLoop(ctx, conn)
		t.setConn(nil)
		_ = conn.Close()
		t.failPending()
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Str("module", "client.transport").Msg("connection lost, reconnecting")
	}
}

func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	op := func() error {
		c, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("module", "client.transport").Dur("retry_in", wait).Msg("dial failed")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(t.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return conn, nil
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "client.transport").Msg("bad frame")
			continue
		}
		if env.Type == protocol.EventAck {
			t.resolve(env)
			continue
		}
		t.deliver(ctx, env)
	}
}

func (t *Transport) deliver(ctx context.Context, env protocol.Envelope) {
	select {
	case t.inbound <- env:
	case <-ctx.Done():
	}
}

func (t *Transport) setConn(conn *websocket.Conn) {
	t.wmu.Lock()
	t.conn = conn
	t.wmu.Unlock()
}

func (t *Transport) resolve(env protocol.Envelope) {
	var ack protocol.Ack
	if err := env.Decode(&ack); err != nil {
		log.Warn().Err(err).Str("module", "client.transport").Msg("bad ack")
		return
	}
	t.mu.Lock()
	ch, ok := t.pending[env.ID]
	delete(t.pending, env.ID)
	t.mu.Unlock()
	if !ok {
		log.Debug().Str("module", "client.transport").Str("id", env.ID).Msg("ack without request")
		return
	}
	ch <- ack
}

// failPending wakes every request waiting on the lost connection.
func (t *Transport) failPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

func (t *Transport) send(typ, id string, v any) error {
	frame, err := protocol.Encode(typ, id, v)
	if err != nil {
		return err
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.conn == nil {
		return ErrDisconnected
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

// Emit sends a fire-and-forget event.
func (t *Transport) Emit(typ string, v any) error {
	return t.send(typ, "", v)
}

// Request sends typ and waits for its ack.
func (t *Transport) Request(ctx context.Context, typ string, v any) (protocol.Ack, error) {
	id := strconv.FormatUint(t.seq.Add(1), 10)
	ch := make(chan protocol.Ack, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	if err := t.send(typ, id, v); err != nil {
		return protocol.Ack{}, err
	}
	select {
	case ack, ok := <-ch:
		if !ok {
			return protocol.Ack{}, ErrDisconnected
		}
		return ack, nil
	case <-ctx.Done():
		return protocol.Ack{}, ctx.Err()
	}
}
