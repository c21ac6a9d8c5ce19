// Package protocol defines the JSON frames exchanged over the room socket.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/WatchParty/internal/domain"
)

// Event names. Request/response events carry an envelope id and are answered
// by exactly one EventAck with the same id.
const (
	EventCreateRoom = "create-room"
	EventJoinRoom   = "join-room"
	EventAuthSignup = "auth-signup"
	EventAuthLogin  = "auth-login"

	EventStatusUpdate   = "status-update"
	EventRoomUpdate     = "room-update"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventTyping         = "typing"
	EventUserTyping     = "user-typing"
	EventSyncAction     = "sync-action"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"

	EventAck   = "ack"
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"
)

type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps v into an envelope frame.
func Encode(typ, id string, v any) ([]byte, error) {
	env := Envelope{Type: typ, ID: id}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", typ, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode unwraps the payload of env into v. An absent payload leaves v untouched.
func (env Envelope) Decode(v any) error {
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return nil
}

// Ack is the single reply to a request event.
type Ack struct {
	Success bool         `json:"success"`
	Room    *domain.Room `json:"room,omitempty"`
	User    *domain.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
}

func Fail(err error) Ack {
	return Ack{Error: domain.Reason(err), Message: domain.Message(err)}
}

// Err resolves a failed ack back into a domain error.
func (a Ack) Err() error {
	if a.Success {
		return nil
	}
	if err := domain.ErrorForReason(a.Error); err != nil {
		return err
	}
	return fmt.Errorf("%s: %s", a.Error, a.Message)
}

type ErrorPayload struct {
	Error string `json:"error"`
}
