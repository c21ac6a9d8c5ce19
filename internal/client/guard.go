// Package client is the headless participant: it keeps a local player in
// step with the partner's through the room socket.
package client

import "time"

// EchoWindow is how long local player events are swallowed after a remote
// event was applied.
const EchoWindow = 50 * time.Millisecond

// EchoGuard is a time-boxed soft lock. Arm opens (or extends) a window
// during which Active reports true; it closes by itself at the deadline.
//
// A genuine local action that lands inside the window is swallowed as well.
// The guard cannot tell it apart from the echo of the applied remote change.
type EchoGuard struct {
	window time.Duration
	now    func() time.Time
	until  time.Time
}

func NewEchoGuard(window time.Duration, now func() time.Time) *EchoGuard {
	if now == nil {
		now = time.Now
	}
	return &EchoGuard{window: window, now: now}
}

func (g *EchoGuard) Arm() {
	deadline := g.now().Add(g.window)
	if deadline.After(g.until) {
		g.until = deadline
	}
}

func (g *EchoGuard) Active() bool {
	return g.now().Before(g.until)
}
