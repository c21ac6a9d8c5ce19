package core

import (
	"sync"

	"github.com/dkeye/WatchParty/internal/domain"
)

// roomEntry is the registry-owned state of one room. All fields are guarded
// by mu; members and chat never escape without being copied.
type roomEntry struct {
	mu        sync.Mutex
	id        domain.RoomID
	password  string
	permanent bool
	members   []domain.Member
	chat      []domain.ChatMessage
	stats     domain.RoomStats
}

func (e *roomEntry) indexOf(conn domain.ConnID) int {
	for i, m := range e.members {
		if m.ConnID == conn {
			return i
		}
	}
	return -1
}

func (e *roomEntry) removeAt(i int) domain.Member {
	m := e.members[i]
	e.members = append(e.members[:i], e.members[i+1:]...)
	return m
}

// evictByName drops the member holding name. Name equality is the only
// proof of identity here: two people with the same display name collide.
func (e *roomEntry) evictByName(name string) *domain.Member {
	for i, m := range e.members {
		if m.Name == name {
			old := e.removeAt(i)
			return &old
		}
	}
	return nil
}

func (e *roomEntry) appendMessage(msg domain.ChatMessage) {
	e.chat = append(e.chat, msg)
	if over := len(e.chat) - domain.ChatHistoryCap; over > 0 {
		// copy so the evicted prefix does not pin the backing array forever
		e.chat = append([]domain.ChatMessage(nil), e.chat[over:]...)
	}
	e.stats.MessageCount++
}

func (e *roomEntry) setStatus(conn domain.ConnID, field domain.StatusField, value bool) bool {
	i := e.indexOf(conn)
	if i < 0 {
		return false
	}
	m := &e.members[i]
	switch field {
	case domain.StatusReady:
		m.Ready = value
	case domain.StatusFileLoaded:
		if value && !m.FileLoaded {
			e.stats.VideoLoadCount++
		}
		m.FileLoaded = value
	default:
		return false
	}
	return true
}

func (e *roomEntry) snapshot(withChat bool) domain.Room {
	r := domain.Room{
		ID:          e.id,
		Password:    e.password,
		HasPassword: e.password != "",
		Permanent:   e.permanent,
		Members:     append([]domain.Member(nil), e.members...),
		Stats:       e.stats,
	}
	if withChat {
		r.ChatHistory = append([]domain.ChatMessage(nil), e.chat...)
	}
	return r
}

func (e *roomEntry) info() domain.RoomInfo {
	return domain.RoomInfo{
		ID:          e.id,
		MemberCount: len(e.members),
		Permanent:   e.permanent,
		HasPassword: e.password != "",
	}
}
