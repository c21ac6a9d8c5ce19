package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/WatchParty/internal/domain"
)

func TestChatLog_TaggedEcho(t *testing.T) {
	l := NewChatLog()
	l.AddLocal(domain.ChatMessage{Text: "hi", SenderName: "alice", ClientID: "t1"})

	echo := domain.ChatMessage{ID: "01J", Text: "hi", SenderName: "alice", ClientID: "t1"}
	assert.False(t, l.Receive(echo))
	assert.Equal(t, []domain.ChatMessage{echo}, l.Messages(), "echo replaces the local copy")

	// same text again from the same sender is a new message when tagged
	assert.True(t, l.Receive(domain.ChatMessage{ID: "01K", Text: "hi", SenderName: "alice", ClientID: "t2"}))
	assert.Len(t, l.Messages(), 2)
}

func TestChatLog_UntaggedHeuristic(t *testing.T) {
	l := NewChatLog()
	l.AddLocal(domain.ChatMessage{Text: "hi", SenderName: "alice"})

	assert.False(t, l.Receive(domain.ChatMessage{Text: "hi", SenderName: "alice"}))
	assert.True(t, l.Receive(domain.ChatMessage{Text: "hi", SenderName: "bob"}))
	assert.True(t, l.Receive(domain.ChatMessage{Text: "hi", SenderName: "alice"}))
	assert.Len(t, l.Messages(), 3)
}

func TestChatLog_Reset(t *testing.T) {
	l := NewChatLog()
	l.AddLocal(domain.ChatMessage{Text: "lost", ClientID: "t1"})
	l.Reset([]domain.ChatMessage{{ID: "1", Text: "old"}})

	assert.Equal(t, "old", l.Messages()[0].Text)
	assert.True(t, l.Receive(domain.ChatMessage{Text: "lost", ClientID: "t1"}))
}
