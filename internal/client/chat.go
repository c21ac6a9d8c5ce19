package client

import (
	"sync"

	"github.com/dkeye/WatchParty/internal/domain"
)

// ChatLog is the local view of the room chat, including messages shown
// before the server echoed them back.
type ChatLog struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
	pending  map[string]int
}

func NewChatLog() *ChatLog {
	return &ChatLog{pending: make(map[string]int)}
}

// Reset replaces the log with the history from a join snapshot.
func (l *ChatLog) Reset(history []domain.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append([]domain.ChatMessage(nil), history...)
	l.pending = make(map[string]int)
}

// AddLocal records an outbound message before the server confirms it.
func (l *ChatLog) AddLocal(msg domain.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg.ClientID != "" {
		l.pending[msg.ClientID] = len(l.messages)
	}
	l.messages = append(l.messages, msg)
}

// Receive merges a server message and reports whether it is new to the
// reader. A tagged echo replaces its local copy. Untagged messages that
// repeat the last sender and text are treated as echoes.
func (l *ChatLog) Receive(msg domain.ChatMessage) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if msg.ClientID != "" {
		if i, ok := l.pending[msg.ClientID]; ok {
			delete(l.pending, msg.ClientID)
			l.messages[i] = msg
			return false
		}
	} else if n := len(l.messages); n > 0 {
		last := l.messages[n-1]
		if last.SenderName == msg.SenderName && last.Text == msg.Text {
			return false
		}
	}
	l.messages = append(l.messages, msg)
	return true
}

func (l *ChatLog) Messages() []domain.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ChatMessage(nil), l.messages...)
}
