package domain

import "time"

const (
	MaxMembers     = 2
	ChatHistoryCap = 50
)

type RoomID string

// RoomStats is bookkeeping only; nothing reads it back for decisions.
type RoomStats struct {
	CreatorName    string    `json:"creatorName"`
	CreatedAt      time.Time `json:"createdAt"`
	MessageCount   int       `json:"messageCount"`
	VideoLoadCount int       `json:"videoLoadCount"`
}

// Room is an immutable snapshot handed out by the registry.
// Permanent is stored and reported but does not keep an empty room alive.
type Room struct {
	ID          RoomID        `json:"id"`
	Password    string        `json:"-"`
	HasPassword bool          `json:"hasPassword"`
	Permanent   bool          `json:"permanent"`
	Members     []Member      `json:"users"`
	ChatHistory []ChatMessage `json:"chatHistory"`
	Stats       RoomStats     `json:"stats"`
}

// RoomInfo is the listing view used by the REST API.
type RoomInfo struct {
	ID          RoomID `json:"id"`
	MemberCount int    `json:"memberCount"`
	Permanent   bool   `json:"permanent"`
	HasPassword bool   `json:"hasPassword"`
}
