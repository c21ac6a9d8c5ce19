package protocol

import "github.com/dkeye/WatchParty/internal/domain"

type CreateRoomRequest struct {
	RoomID      domain.RoomID `json:"roomId"`
	Password    string        `json:"password"`
	UserName    string        `json:"userName"`
	IsPermanent bool          `json:"isPermanent"`
}

type JoinRoomRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Password string        `json:"password"`
	UserName string        `json:"userName"`
}

type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StatusUpdate struct {
	RoomID domain.RoomID      `json:"roomId"`
	Type   domain.StatusField `json:"type"`
	Value  bool               `json:"value"`
}

type RoomUpdate struct {
	Users []domain.Member `json:"users"`
}

type SendMessage struct {
	RoomID   domain.RoomID `json:"roomId"`
	Message  string        `json:"message"`
	UserName string        `json:"userName"`
	ClientID string        `json:"clientId,omitempty"`
}

type Typing struct {
	RoomID   domain.RoomID `json:"roomId,omitempty"`
	UserName string        `json:"userName"`
	IsTyping bool          `json:"isTyping"`
}

// Presence is the payload of user-joined and user-left.
type Presence struct {
	UserName string        `json:"userName"`
	UserID   domain.ConnID `json:"userId"`
}
