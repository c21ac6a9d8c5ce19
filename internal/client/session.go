package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

const requestTimeout = 10 * time.Second

// ErrQuit ends a session on the user's request.
var ErrQuit = errors.New("quit")

type Options struct {
	Server       string
	RoomID       domain.RoomID
	Password     string
	Name         string
	Create       bool
	AuthPassword string
	File         string
	Ready        bool
}

// Session is one participant: a transport, a virtual player and the
// reconciler between them. Everything except the transport's reader runs on
// the loop goroutine.
type Session struct {
	opts   Options
	out    io.Writer
	tr     *Transport
	player *VirtualPlayer
	rec    *Reconciler
	chat   *ChatLog

	// bounds one enterRoom: login, optional signup and the room request
	requestTimeout time.Duration

	authed     bool
	inRoom     bool
	fileLoaded bool
	ready      bool
	peer       *domain.Member
}

func NewSession(opts Options, out io.Writer) (*Session, error) {
	if err := domain.ValidateUsername(opts.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateRoomID(opts.RoomID); err != nil {
		return nil, err
	}
	tr, err := NewTransport(opts.Server)
	if err != nil {
		return nil, err
	}
	s := &Session{
		opts:           opts,
		out:            out,
		requestTimeout: requestTimeout,
		tr:             tr,
		player:         NewVirtualPlayer(time.Now),
		chat:           NewChatLog(),
	}
	s.rec = NewReconciler(s.player, s.emitSync, time.Now)
	return s, nil
}

func (s *Session) Player() Player { return s.player }
func (s *Session) Reconciler() *Reconciler { return s.rec }
func (s *Session) Chat() *ChatLog { return s.chat }

// Run drives the session until ctx ends, the user quits or the room
// refuses us. Commands are read line by line from in.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	g, ctx := errgroup.WithContext(ctx)
	cmds := make(chan string)

	// the scanner may block on in past ctx; it is not part of the group
	go readLines(ctx, in, cmds)

	g.Go(func() error { return s.tr.Run(ctx) })
	g.Go(func() error { return s.loop(ctx, cmds) })

	err := g.Wait()
	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

func readLines(ctx context.Context, in io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case out <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) loop(ctx context.Context, cmds <-chan string) error {
	ticker := time.NewTicker(DriftInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-s.tr.Inbound():
			if err := s.handle(ctx, env); err != nil {
				return err
			}
		case ev := <-s.player.Events():
			s.rec.OnLocal(ev)
		case <-ticker.C:
			s.rec.Tick()
		case line, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			if err := s.command(line); err != nil {
				return err
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, env protocol.Envelope) error {
	switch env.Type {
	case EventConnected:
		return s.enterRoom(ctx)
	case protocol.EventRoomUpdate:
		var p protocol.RoomUpdate
		if err := env.Decode(&p); err != nil {
			return nil
		}
		s.updatePeers(p.Users)
	case protocol.EventUserJoined:
		var p protocol.Presence
		if err := env.Decode(&p); err != nil {
			return nil
		}
		s.printf("* %s joined\n", p.UserName)
		s.peer = &domain.Member{ConnID: p.UserID, Name: p.UserName}
		s.rec.SetRemoteReady(false)
	case protocol.EventUserLeft:
		var p protocol.Presence
		if err := env.Decode(&p); err != nil {
			return nil
		}
		if p.UserName == s.opts.Name {
			s.printf("* another session took over the name %s\n", p.UserName)
			return nil
		}
		s.printf("* %s left\n", p.UserName)
		if s.peer != nil && s.peer.ConnID == p.UserID {
			s.peer = nil
			s.rec.SetRemoteReady(false)
		}
	case protocol.EventReceiveMessage:
		var msg domain.ChatMessage
		if err := env.Decode(&msg); err != nil {
			return nil
		}
		if s.chat.Receive(msg) {
			s.printf("[%s] %s\n", msg.SenderName, msg.Text)
		}
	case protocol.EventUserTyping:
		var p protocol.Typing
		if err := env.Decode(&p); err == nil && p.IsTyping {
			s.printf("* %s is typing\n", p.UserName)
		}
	case protocol.EventSyncAction:
		var ev domain.SyncEvent
		if err := env.Decode(&ev); err != nil {
			return nil
		}
		s.rec.ApplyRemote(ev)
	case protocol.EventError:
		var p protocol.ErrorPayload
		_ = env.Decode(&p)
		log.Warn().Str("module", "client.session").Str("error", p.Error).Msg("server error")
	case protocol.EventPong:
	default:
		log.Debug().Str("module", "client.session").Str("type", env.Type).Msg("unhandled event")
	}
	return nil
}

// enterRoom runs after every (re)connect. A reconnect is a fresh join under
// the same name; the server evicts our stale entry and we restore status.
func (s *Session) enterRoom(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.requestTimeout)
	defer cancel()

	if s.opts.AuthPassword != "" && !s.authed {
		// never join unauthenticated
		if err := s.authenticate(ctx); err != nil {
			return requestFailed(parent, err)
		}
	}

	ack, err := s.requestRoom(ctx)
	if err != nil {
		return requestFailed(parent, fmt.Errorf("room request: %w", err))
	}
	if !ack.Success {
		s.printf("! %s\n", ack.Message)
		return ack.Err()
	}

	rejoin := s.inRoom
	s.inRoom = true
	s.chat.Reset(ack.Room.ChatHistory)
	s.updatePeers(ack.Room.Members)
	s.printf("* in room %s (%d/%d)\n", ack.Room.ID, len(ack.Room.Members), domain.MaxMembers)
	for _, m := range ack.Room.ChatHistory {
		s.printf("[%s] %s\n", m.SenderName, m.Text)
	}

	if rejoin {
		if s.fileLoaded {
			s.sendStatus(domain.StatusFileLoaded, true)
		}
		if s.ready {
			s.sendStatus(domain.StatusReady, true)
		}
		return nil
	}
	if s.opts.File != "" {
		s.loadFile(s.opts.File)
	}
	if s.opts.Ready {
		s.setReady()
	}
	return nil
}

// requestFailed decides whether a failed request ends the session. A lost
// connection does not: the transport redials and delivers EventConnected
// again. Anything else, a timeout included, does.
func requestFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, ErrDisconnected) {
		log.Warn().Err(err).Str("module", "client.session").Msg("request interrupted, waiting for reconnect")
		return nil
	}
	log.Error().Err(err).Str("module", "client.session").Msg("request failed")
	return err
}

// requestRoom creates or joins. A create that collides with an existing
// room falls back to joining it.
func (s *Session) requestRoom(ctx context.Context) (protocol.Ack, error) {
	if s.opts.Create {
		ack, err := s.tr.Request(ctx, protocol.EventCreateRoom, protocol.CreateRoomRequest{
			RoomID:   s.opts.RoomID,
			Password: s.opts.Password,
			UserName: s.opts.Name,
		})
		if err != nil || !errors.Is(ack.Err(), domain.ErrRoomAlreadyExists) {
			return ack, err
		}
	}
	return s.tr.Request(ctx, protocol.EventJoinRoom, protocol.JoinRoomRequest{
		RoomID:   s.opts.RoomID,
		Password: s.opts.Password,
		UserName: s.opts.Name,
	})
}

// authenticate logs in, signing up first when the account is unknown.
func (s *Session) authenticate(ctx context.Context) error {
	req := protocol.AuthRequest{Username: s.opts.Name, Password: s.opts.AuthPassword}
	ack, err := s.tr.Request(ctx, protocol.EventAuthLogin, req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if errors.Is(ack.Err(), domain.ErrUserNotFound) {
		ack, err = s.tr.Request(ctx, protocol.EventAuthSignup, req)
		if err != nil {
			return fmt.Errorf("signup: %w", err)
		}
	}
	if !ack.Success {
		s.printf("! %s\n", ack.Message)
		return ack.Err()
	}
	s.authed = true
	s.printf("* logged in as %s\n", ack.User.Name)
	return nil
}

func (s *Session) updatePeers(users []domain.Member) {
	s.peer = nil
	for _, m := range users {
		if m.Name != s.opts.Name {
			s.peer = &m
			break
		}
	}
	s.rec.SetRemoteReady(s.peer != nil && s.peer.Ready)
}

func (s *Session) emitSync(ev domain.SyncEvent) {
	ev.RoomID = s.opts.RoomID
	if err := s.tr.Emit(protocol.EventSyncAction, ev); err != nil {
		log.Warn().Err(err).Str("module", "client.session").Str("action", string(ev.Action)).Msg("sync not sent")
	}
}

func (s *Session) sendStatus(field domain.StatusField, value bool) {
	err := s.tr.Emit(protocol.EventStatusUpdate, protocol.StatusUpdate{
		RoomID: s.opts.RoomID,
		Type:   field,
		Value:  value,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "client.session").Str("field", string(field)).Msg("status not sent")
	}
}

func (s *Session) loadFile(name string) {
	s.fileLoaded = true
	s.rec.FileLoaded()
	s.sendStatus(domain.StatusFileLoaded, true)
	s.printf("* loaded %s\n", name)
}

func (s *Session) setReady() {
	if !s.fileLoaded {
		s.printf("! load a file first\n")
		return
	}
	s.ready = true
	st := s.rec.SetLocalReady(true)
	s.sendStatus(domain.StatusReady, true)
	s.printf("* ready (%s)\n", st)
}

func (s *Session) say(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	msg := domain.ChatMessage{
		Text:       text,
		SenderName: s.opts.Name,
		Timestamp:  time.Now(),
		ClientID:   uuid.NewString(),
	}
	s.chat.AddLocal(msg)
	s.printf("[%s] %s\n", msg.SenderName, msg.Text)
	err := s.tr.Emit(protocol.EventSendMessage, protocol.SendMessage{
		RoomID:   s.opts.RoomID,
		Message:  text,
		UserName: s.opts.Name,
		ClientID: msg.ClientID,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "client.session").Msg("message not sent")
	}
}

func (s *Session) command(line string) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch verb {
	case "":
	case "play":
		s.player.Play()
	case "pause":
		s.player.Pause()
	case "seek":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil || t < 0 {
			s.printf("! usage: seek <seconds>\n")
			return nil
		}
		s.player.SetCurrentTime(t)
	case "rate":
		r, err := strconv.ParseFloat(arg, 64)
		if err != nil || r <= 0 {
			s.printf("! usage: rate <factor>\n")
			return nil
		}
		s.player.SetPlaybackRate(r)
	case "say":
		s.say(arg)
	case "load":
		if arg == "" {
			arg = "video"
		}
		s.loadFile(arg)
	case "ready":
		s.setReady()
	case "status":
		s.printStatus()
	case "quit", "exit":
		return ErrQuit
	default:
		s.printf("! unknown command %q\n", verb)
	}
	return nil
}

func (s *Session) printStatus() {
	state := "paused"
	if !s.player.Paused() {
		state = "playing"
	}
	peer := "-"
	if s.peer != nil {
		peer = fmt.Sprintf("%s (ready=%t file=%t)", s.peer.Name, s.peer.Ready, s.peer.FileLoaded)
	}
	s.printf("* %s %.2fs x%.2f sync=%s peer=%s\n",
		state, s.player.CurrentTime(), s.player.PlaybackRate(), s.rec.State(), peer)
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
