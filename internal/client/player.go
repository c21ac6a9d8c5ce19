package client

import (
	"sync"
	"time"
)

// PlayerEvent mirrors the media element events the reconciler listens to.
type PlayerEvent string

const (
	PlayerPlay       PlayerEvent = "play"
	PlayerPause      PlayerEvent = "pause"
	PlayerSeeked     PlayerEvent = "seeked"
	PlayerRateChange PlayerEvent = "ratechange"
)

// Player is the local media element.
type Player interface {
	CurrentTime() float64
	Paused() bool
	PlaybackRate() float64

	SetCurrentTime(t float64)
	Play()
	Pause()
	SetPlaybackRate(r float64)
}

const playerEventBuffer = 32

// VirtualPlayer is a clock-driven stand-in for a video element. Position
// advances with wall time times rate while playing. Every mutation queues the
// matching event on Events instead of calling back, so listeners see it
// later, the way a browser dispatches media events.
type VirtualPlayer struct {
	mu       sync.Mutex
	now      func() time.Time
	position float64
	anchor   time.Time
	playing  bool
	rate     float64

	events chan PlayerEvent
}

var _ Player = (*VirtualPlayer)(nil)

func NewVirtualPlayer(now func() time.Time) *VirtualPlayer {
	if now == nil {
		now = time.Now
	}
	return &VirtualPlayer{
		now:    now,
		rate:   1,
		events: make(chan PlayerEvent, playerEventBuffer),
	}
}

func (p *VirtualPlayer) Events() <-chan PlayerEvent { return p.events }

// fire never blocks; a full queue drops the event.
func (p *VirtualPlayer) fire(ev PlayerEvent) {
	select {
	case p.events <- ev:
	default:
	}
}

// settle folds elapsed playing time into position. Caller holds mu.
func (p *VirtualPlayer) settle() {
	now := p.now()
	if p.playing {
		p.position += now.Sub(p.anchor).Seconds() * p.rate
	}
	p.anchor = now
}

func (p *VirtualPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settle()
	return p.position
}

func (p *VirtualPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing
}

func (p *VirtualPlayer) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *VirtualPlayer) SetCurrentTime(t float64) {
	if t < 0 {
		t = 0
	}
	p.mu.Lock()
	p.settle()
	p.position = t
	p.mu.Unlock()
	p.fire(PlayerSeeked)
}

func (p *VirtualPlayer) Play() {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return
	}
	p.settle()
	p.playing = true
	p.mu.Unlock()
	p.fire(PlayerPlay)
}

func (p *VirtualPlayer) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.settle()
	p.playing = false
	p.mu.Unlock()
	p.fire(PlayerPause)
}

func (p *VirtualPlayer) SetPlaybackRate(r float64) {
	if r <= 0 {
		return
	}
	p.mu.Lock()
	if r == p.rate {
		p.mu.Unlock()
		return
	}
	p.settle()
	p.rate = r
	p.mu.Unlock()
	p.fire(PlayerRateChange)
}
