package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/WatchParty/internal/domain"
)

func createRoom(t *testing.T, r *Registry, id, password, name, conn string) domain.Room {
	t.Helper()
	room, err := r.CreateRoom(CreateParams{
		ID:          domain.RoomID(id),
		Password:    password,
		CreatorName: name,
		Conn:        domain.ConnID(conn),
	})
	require.NoError(t, err)
	return room
}

func join(r *Registry, id, password, name, conn string) (JoinResult, error) {
	return r.JoinRoom(JoinParams{
		ID:       domain.RoomID(id),
		Password: password,
		Name:     name,
		Conn:     domain.ConnID(conn),
	})
}

func TestRegistry_CreateRoom(t *testing.T) {
	r := NewRegistry()
	room := createRoom(t, r, "r1", "x", "alice", "c1")

	assert.Equal(t, domain.RoomID("r1"), room.ID)
	assert.True(t, room.HasPassword)
	require.Len(t, room.Members, 1)
	assert.Equal(t, domain.Member{ConnID: "c1", Name: "alice"}, room.Members[0])
	assert.Equal(t, "alice", room.Stats.CreatorName)
	assert.False(t, room.Stats.CreatedAt.IsZero())

	_, err := r.CreateRoom(CreateParams{ID: "r1", CreatorName: "bob", Conn: "c2"})
	assert.ErrorIs(t, err, domain.ErrRoomAlreadyExists)

	_, err = r.CreateRoom(CreateParams{ID: "", CreatorName: "bob", Conn: "c2"})
	assert.ErrorIs(t, err, domain.ErrRoomIDEmpty)
}

func TestRegistry_EndToEndScenario(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "x", "alice", "a")

	_, err := join(r, "r1", "y", "bob", "b")
	assert.ErrorIs(t, err, domain.ErrBadPassword)

	res, err := join(r, "r1", "x", "bob", "b")
	require.NoError(t, err)
	assert.Len(t, res.Room.Members, 2)
	assert.Nil(t, res.Evicted)

	_, err = join(r, "r1", "x", "carol", "c")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	_, err = join(r, "nope", "", "carol", "c")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, ok := r.RoomOf("c")
	assert.False(t, ok)
}

func TestRegistry_OpenRoomIgnoresPassword(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "open", "", "alice", "a")
	_, err := join(r, "open", "whatever", "bob", "b")
	assert.NoError(t, err)
}

func TestRegistry_GhostEviction(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "old")
	_, err := join(r, "r1", "", "bob", "b")
	require.NoError(t, err)

	res, err := join(r, "r1", "", "alice", "new")
	require.NoError(t, err)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, domain.ConnID("old"), res.Evicted.ConnID)

	var alices []domain.Member
	for _, m := range res.Room.Members {
		if m.Name == "alice" {
			alices = append(alices, m)
		}
	}
	require.Len(t, alices, 1)
	assert.Equal(t, domain.ConnID("new"), alices[0].ConnID)

	// the stale connection disconnecting later must not remove anyone
	_, removed := r.RemoveMember("old")
	assert.False(t, removed)
	room, ok := r.Snapshot("r1")
	require.True(t, ok)
	assert.Len(t, room.Members, 2)
}

func TestRegistry_GhostEvictionOfSoleMemberKeepsRoom(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "old")

	res, err := join(r, "r1", "", "alice", "new")
	require.NoError(t, err)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, []domain.Member{{ConnID: "new", Name: "alice"}}, res.Room.Members)
}

func TestRegistry_ChatHistoryBound(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "a")

	const n = 73
	for i := 0; i < n; i++ {
		msg, err := r.RecordMessage("r1", domain.ChatMessage{Text: fmt.Sprintf("m%d", i), SenderID: "a", SenderName: "alice"})
		require.NoError(t, err)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
	}

	room, ok := r.Snapshot("r1")
	require.True(t, ok)
	require.Len(t, room.ChatHistory, domain.ChatHistoryCap)
	for i, m := range room.ChatHistory {
		assert.Equal(t, fmt.Sprintf("m%d", n-domain.ChatHistoryCap+i), m.Text)
	}
	assert.Equal(t, n, room.Stats.MessageCount)

	_, err := r.RecordMessage("missing", domain.ChatMessage{Text: "x"})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRegistry_ChatIDsAreOrdered(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "a")
	prev := ""
	for i := 0; i < 20; i++ {
		msg, err := r.RecordMessage("r1", domain.ChatMessage{Text: "hi"})
		require.NoError(t, err)
		assert.Greater(t, msg.ID, prev)
		prev = msg.ID
	}
}

func TestRegistry_UpdateMemberStatus(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "a")

	room, ok := r.UpdateMemberStatus("r1", "a", domain.StatusFileLoaded, true)
	require.True(t, ok)
	assert.True(t, room.Members[0].FileLoaded)
	assert.Equal(t, 1, room.Stats.VideoLoadCount)

	// repeated true is not a new load
	room, _ = r.UpdateMemberStatus("r1", "a", domain.StatusFileLoaded, true)
	assert.Equal(t, 1, room.Stats.VideoLoadCount)

	room, ok = r.UpdateMemberStatus("r1", "a", domain.StatusReady, true)
	require.True(t, ok)
	assert.True(t, room.Members[0].Ready)

	_, ok = r.UpdateMemberStatus("r1", "ghost", domain.StatusReady, true)
	assert.False(t, ok)
	_, ok = r.UpdateMemberStatus("missing", "a", domain.StatusReady, true)
	assert.False(t, ok)
	_, ok = r.UpdateMemberStatus("r1", "a", domain.StatusField("volume"), true)
	assert.False(t, ok)
}

func TestRegistry_RemoveMemberDeletesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateRoom(CreateParams{ID: "r1", CreatorName: "alice", Conn: "a", Permanent: true})
	require.NoError(t, err)
	_, err = join(r, "r1", "", "bob", "b")
	require.NoError(t, err)

	res, ok := r.RemoveMember("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), res.RoomID)
	assert.Equal(t, "alice", res.Member.Name)
	assert.False(t, res.Deleted)
	assert.Len(t, res.Room.Members, 1)

	// permanent does not keep the room alive
	res, ok = r.RemoveMember("b")
	require.True(t, ok)
	assert.True(t, res.Deleted)
	_, ok = r.Snapshot("r1")
	assert.False(t, ok)
	assert.Empty(t, r.List())

	_, ok = r.RemoveMember("b")
	assert.False(t, ok)
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "b", "pw", "alice", "a")
	createRoom(t, r, "a", "", "bob", "b")

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.RoomInfo{ID: "a", MemberCount: 1}, list[0])
	assert.Equal(t, domain.RoomInfo{ID: "b", MemberCount: 1, HasPassword: true}, list[1])
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	room := createRoom(t, r, "r1", "", "alice", "a")
	room.Members[0].Name = "mallory"

	fresh, ok := r.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, "alice", fresh.Members[0].Name)
}

func TestRegistry_CapacityUnderConcurrency(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "host", "host")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := fmt.Sprintf("c%d", i)
			if _, err := join(r, "r1", "", fmt.Sprintf("u%d", i%5), conn); err == nil {
				r.UpdateMemberStatus("r1", domain.ConnID(conn), domain.StatusReady, true)
				if i%2 == 0 {
					r.RemoveMember(domain.ConnID(conn))
				}
			}
			if room, ok := r.Snapshot("r1"); ok {
				assert.LessOrEqual(t, len(room.Members), domain.MaxMembers)
			}
		}(i)
	}
	wg.Wait()

	if room, ok := r.Snapshot("r1"); ok {
		assert.LessOrEqual(t, len(room.Members), domain.MaxMembers)
		names := map[string]bool{}
		for _, m := range room.Members {
			assert.False(t, names[m.Name], "duplicate name %s", m.Name)
			names[m.Name] = true
			id, ok := r.RoomOf(m.ConnID)
			assert.True(t, ok)
			assert.Equal(t, domain.RoomID("r1"), id)
		}
	}
}

func TestRegistry_RejoinOwnRoom(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "a")

	res, err := join(r, "r1", "", "alice", "a")
	require.NoError(t, err)
	require.NotNil(t, res.Evicted)
	assert.Equal(t, domain.ConnID("a"), res.Evicted.ConnID)
	assert.Equal(t, []domain.Member{{ConnID: "a", Name: "alice"}}, res.Room.Members)

	res, err = join(r, "r1", "", "alicia", "a")
	require.NoError(t, err, "a new name on the same connection replaces the entry")
	assert.Equal(t, []domain.Member{{ConnID: "a", Name: "alicia"}}, res.Room.Members)

	id, ok := r.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r1"), id)
}

func TestRegistry_LeaveRoomKeepsNewBinding(t *testing.T) {
	r := NewRegistry()
	createRoom(t, r, "r1", "", "alice", "a")
	_, err := join(r, "r1", "", "bob", "b")
	require.NoError(t, err)
	createRoom(t, r, "r2", "", "bob", "b")

	res, ok := r.LeaveRoom("r1", "b")
	require.True(t, ok)
	assert.False(t, res.Deleted)
	assert.Equal(t, []domain.Member{{ConnID: "a", Name: "alice"}}, res.Room.Members)

	id, ok := r.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, domain.RoomID("r2"), id)

	_, ok = r.LeaveRoom("r1", "b")
	assert.False(t, ok)
}
