package client

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
)

const (
	DriftInterval = 5 * time.Second

	tickTolerance   = 2.0
	actionTolerance = 0.5
)

type State int

const (
	StateIdle State = iota
	StateAwaitingHandshake
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingHandshake:
		return "awaiting-handshake"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Reconciler turns local player events into outbound sync events and
// applies the partner's sync events to the local player.
type Reconciler struct {
	mu     sync.Mutex
	player Player
	guard  *EchoGuard
	emit   func(domain.SyncEvent)

	state       State
	localReady  bool
	remoteReady bool
}

// NewReconciler wires the player to emit. emit is called with the
// reconciler's lock held and must not call back into it.
func NewReconciler(player Player, emit func(domain.SyncEvent), now func() time.Time) *Reconciler {
	return &Reconciler{
		player: player,
		guard:  NewEchoGuard(EchoWindow, now),
		emit:   emit,
	}
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// FileLoaded moves Idle to AwaitingHandshake.
func (r *Reconciler) FileLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		r.state = StateAwaitingHandshake
	}
	r.maybeActivate()
}

func (r *Reconciler) SetLocalReady(ready bool) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.localReady = ready
	r.maybeActivate()
	return r.state
}

func (r *Reconciler) SetRemoteReady(ready bool) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remoteReady = ready
	r.maybeActivate()
	return r.state
}

// maybeActivate enters Active once both sides are ready. There is no way back.
func (r *Reconciler) maybeActivate() {
	if r.state != StateAwaitingHandshake || !r.localReady || !r.remoteReady {
		return
	}
	r.state = StateActive
	log.Info().Str("module", "client.reconciler").Msg("sync armed")
}

// OnLocal handles an event fired by the local player.
func (r *Reconciler) OnLocal(ev PlayerEvent) {
	var action domain.SyncAction
	switch ev {
	case PlayerPlay:
		action = domain.ActionPlay
	case PlayerPause:
		action = domain.ActionPause
	case PlayerSeeked:
		action = domain.ActionSeek
	case PlayerRateChange:
		action = domain.ActionRateChange
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive || r.guard.Active() {
		return
	}
	r.emit(r.snapshot(action))
}

// Tick is the drift broadcast. It sends a syncTick only while active and
// playing, and never inside an echo window.
func (r *Reconciler) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateActive || r.player.Paused() || r.guard.Active() {
		return
	}
	r.emit(r.snapshot(domain.ActionSyncTick))
}

func (r *Reconciler) snapshot(action domain.SyncAction) domain.SyncEvent {
	return domain.SyncEvent{
		Action:       action,
		CurrentTime:  r.player.CurrentTime(),
		IsPlaying:    !r.player.Paused(),
		PlaybackRate: r.player.PlaybackRate(),
	}
}

// ApplyRemote reconciles the local player with the partner's event. Without
// a loaded file there is nothing to apply to.
func (r *Reconciler) ApplyRemote(ev domain.SyncEvent) {
	if !ev.Action.Valid() {
		log.Warn().Str("module", "client.reconciler").Str("action", string(ev.Action)).Msg("unknown sync action")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		return
	}

	r.guard.Arm()

	isTick := ev.Action == domain.ActionSyncTick
	tolerance := actionTolerance
	if isTick {
		tolerance = tickTolerance
	}
	if diff := math.Abs(r.player.CurrentTime() - ev.CurrentTime); diff > tolerance {
		log.Debug().Str("module", "client.reconciler").Float64("local", r.player.CurrentTime()).Float64("remote", ev.CurrentTime).Msg("correcting drift")
		r.player.SetCurrentTime(ev.CurrentTime)
	}

	switch {
	case ev.IsPlaying && r.player.Paused():
		r.player.Play()
	case !ev.IsPlaying && !isTick && !r.player.Paused():
		r.player.Pause()
	}

	if ev.PlaybackRate > 0 && r.player.PlaybackRate() != ev.PlaybackRate {
		r.player.SetPlaybackRate(ev.PlaybackRate)
	}
}
