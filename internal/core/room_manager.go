package core

import (
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/domain"
)

// Registry is a threadsafe in-memory RoomStore.
//
// Lock order is Registry.mu then roomEntry.mu. Membership changes (create,
// join, remove) hold Registry.mu exclusively because they touch the conn
// index and may delete a room; chat and status updates only share it and
// serialize on the room's own lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
	conns map[domain.ConnID]domain.RoomID
	now   func() time.Time
}

var _ RoomStore = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomID]*roomEntry),
		conns: make(map[domain.ConnID]domain.RoomID),
		now:   time.Now,
	}
}

func (r *Registry) CreateRoom(p CreateParams) (domain.Room, error) {
	if err := domain.ValidateRoomID(p.ID); err != nil {
		return domain.Room{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[p.ID]; ok {
		return domain.Room{}, domain.ErrRoomAlreadyExists
	}
	e := &roomEntry{
		id:        p.ID,
		password:  p.Password,
		permanent: p.Permanent,
		members:   []domain.Member{domain.NewMember(p.Conn, p.CreatorName)},
		stats: domain.RoomStats{
			CreatorName: p.CreatorName,
			CreatedAt:   r.now(),
		},
	}
	r.rooms[p.ID] = e
	r.conns[p.Conn] = p.ID
	log.Info().Str("module", "core.registry").Str("room", string(p.ID)).Str("conn", string(p.Conn)).Str("creator", p.CreatorName).Bool("permanent", p.Permanent).Msg("room created")
	return e.snapshot(true), nil
}

func (r *Registry) JoinRoom(p JoinParams) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rooms[p.ID]
	if !ok {
		return JoinResult{}, domain.ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.password != "" && e.password != p.Password {
		return JoinResult{}, domain.ErrBadPassword
	}

	// a connection joining the room it is already in replaces its own entry
	var self *domain.Member
	if i := e.indexOf(p.Conn); i >= 0 {
		m := e.removeAt(i)
		self = &m
	}

	res := JoinResult{Evicted: e.evictByName(p.Name)}
	switch {
	case res.Evicted != nil:
		delete(r.conns, res.Evicted.ConnID)
		log.Info().Str("module", "core.registry").Str("room", string(p.ID)).Str("conn", string(res.Evicted.ConnID)).Str("name", p.Name).Msg("ghost evicted")
	case self != nil:
		res.Evicted = self
	}
	if len(e.members) >= domain.MaxMembers {
		return res, domain.ErrRoomFull
	}
	e.members = append(e.members, domain.NewMember(p.Conn, p.Name))
	r.conns[p.Conn] = p.ID
	res.Room = e.snapshot(true)
	log.Info().Str("module", "core.registry").Str("room", string(p.ID)).Str("conn", string(p.Conn)).Str("name", p.Name).Int("members", len(e.members)).Msg("member joined")
	return res, nil
}

// RecordMessage stores msg in the room history, stamping ID and Timestamp
// when the caller left them empty, and returns the stored copy.
func (r *Registry) RecordMessage(id domain.RoomID, msg domain.ChatMessage) (domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return domain.ChatMessage{}, domain.ErrRoomNotFound
	}
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now()
	}
	e.mu.Lock()
	e.appendMessage(msg)
	e.mu.Unlock()
	return msg, nil
}

func (r *Registry) UpdateMemberStatus(id domain.RoomID, conn domain.ConnID, field domain.StatusField, value bool) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.setStatus(conn, field, value) {
		return domain.Room{}, false
	}
	log.Debug().Str("module", "core.registry").Str("room", string(id)).Str("conn", string(conn)).Str("field", string(field)).Bool("value", value).Msg("member status")
	return e.snapshot(false), true
}

// RemoveMember drops conn from whichever room holds it and deletes the room
// once it is empty. The permanent flag does not prevent deletion.
func (r *Registry) RemoveMember(conn domain.ConnID) (RemoveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.conns[conn]
	if !ok {
		return RemoveResult{}, false
	}
	delete(r.conns, conn)
	return r.removeLocked(id, conn)
}

// LeaveRoom drops conn from room id only. The connection's binding to
// another room, made by a create or join that just succeeded, is kept.
func (r *Registry) LeaveRoom(id domain.RoomID, conn domain.ConnID) (RemoveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[conn]; ok && cur == id {
		delete(r.conns, conn)
	}
	return r.removeLocked(id, conn)
}

// removeLocked needs r.mu held exclusively.
func (r *Registry) removeLocked(id domain.RoomID, conn domain.ConnID) (RemoveResult, bool) {
	e, ok := r.rooms[id]
	if !ok {
		return RemoveResult{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(conn)
	if i < 0 {
		return RemoveResult{}, false
	}
	res := RemoveResult{RoomID: id, Member: e.removeAt(i)}
	if len(e.members) == 0 {
		delete(r.rooms, id)
		res.Deleted = true
		log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room deleted")
	}
	res.Room = e.snapshot(false)
	log.Info().Str("module", "core.registry").Str("room", string(id)).Str("conn", string(conn)).Int("remaining", len(e.members)).Msg("member removed")
	return res, true
}

func (r *Registry) Snapshot(id domain.RoomID) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(true), true
}

// Members is Snapshot without the chat history copy, for hot paths.
func (r *Registry) Members(id domain.RoomID) ([]domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[id]
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Member(nil), e.members...), true
}

func (r *Registry) RoomOf(conn domain.ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[conn]
	return id, ok
}

func (r *Registry) List() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for _, e := range r.rooms {
		e.mu.Lock()
		out = append(out, e.info())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
