package domain

import "time"

// ChatMessage is what the room stores and echoes to every member.
// ClientID is an optional sender-generated tag used for echo dedup.
type ChatMessage struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SenderID   ConnID    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Timestamp  time.Time `json:"timestamp"`
	ClientID   string    `json:"clientId,omitempty"`
}
