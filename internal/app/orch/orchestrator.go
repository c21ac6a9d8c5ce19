package orch

import (
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/auth"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/dkeye/WatchParty/internal/protocol"
)

const roomStripes = 64

// Orchestrator is the session gateway: it turns protocol requests from one
// connection into RoomStore calls and fans the resulting notifications out
// to the room.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomStore
	Auth     auth.Credentials
	Policy   app.Policy

	// stripes serialize "mutate then notify" per room so every member sees
	// roster and chat notifications in the order the registry applied them.
	stripes [roomStripes]sync.Mutex
}

func New(reg *app.Registry, rooms core.RoomStore, creds auth.Credentials, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Auth:     creds,
		Policy:   policy,
	}
}

func (o *Orchestrator) lockRoom(id domain.RoomID) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &o.stripes[h.Sum32()%roomStripes]
	mu.Lock()
	return mu.Unlock
}

// PublishResult reports delivery stats/backpressure.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}

// publish encodes v once and offers it to every member except `except`.
func (o *Orchestrator) publish(room domain.RoomID, members []domain.Member, except domain.ConnID, typ string, v any) PublishResult {
	res := PublishResult{}
	frame, err := protocol.Encode(typ, "", v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("type", typ).Msg("publish encode")
		return res
	}
	for _, m := range members {
		if m.ConnID == except {
			continue
		}
		sess, ok := o.Registry.GetSession(m.ConnID)
		if !ok {
			continue
		}
		if err := sess.Signal.TrySend(core.Frame(frame)); err != nil {
			res.Dropped = append(res.Dropped, m.ConnID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.orch").Str("room", string(room)).Str("type", typ).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	o.onDropped(room, res.Dropped)
	return res
}

func (o *Orchestrator) onDropped(room domain.RoomID, dropped []domain.ConnID) {
	if o.Policy == nil {
		return
	}
	for _, conn := range dropped {
		switch o.Policy.OnBackPressure(room, conn) {
		case app.KickMember:
			log.Warn().Str("module", "app.orch").Str("room", string(room)).Str("conn", string(conn)).Msg("kicking slow member")
			o.Registry.Cancel(conn)
		case app.DropFrame, app.NoAction:
		}
	}
}

// resolveRoom returns the room conn belongs to. A payload naming a different
// room than the connection's membership is refused.
func (o *Orchestrator) resolveRoom(conn domain.ConnID, claimed domain.RoomID) (domain.RoomID, bool) {
	id, ok := o.Rooms.RoomOf(conn)
	if !ok {
		return "", false
	}
	if claimed != "" && claimed != id {
		log.Warn().Str("module", "app.orch").Str("conn", string(conn)).Str("room", string(id)).Str("claimed", string(claimed)).Msg("room mismatch")
		return "", false
	}
	return id, true
}
