package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomFull          = errors.New("room is full")
	ErrBadPassword       = errors.New("incorrect room password")
	ErrRoomIDEmpty       = errors.New("room id empty")
	ErrRoomIDTooLong     = errors.New("room id too long")

	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUsernameTaken     = errors.New("username taken")
	ErrUsernameEmpty     = errors.New("username empty")
	ErrUsernameTooLong   = errors.New("username too long")
)

type reason struct {
	err     error
	code    string
	message string
}

var reasons = []reason{
	{ErrRoomNotFound, "RoomNotFound", "Room not found."},
	{ErrRoomAlreadyExists, "RoomAlreadyExists", "Room ID already exists."},
	{ErrRoomFull, "RoomFull", "Room is full."},
	{ErrBadPassword, "BadPassword", "Incorrect password."},
	{ErrRoomIDEmpty, "InvalidRoomID", "Room ID is required."},
	{ErrRoomIDTooLong, "InvalidRoomID", "Room ID is too long."},
	{ErrUserNotFound, "UserNotFound", "User not found."},
	{ErrIncorrectPassword, "IncorrectPassword", "Incorrect password."},
	{ErrUsernameTaken, "UsernameTaken", "Username already taken."},
	{ErrUsernameEmpty, "InvalidUsername", "Username is required."},
	{ErrUsernameTooLong, "InvalidUsername", "Username is too long."},
}

// Reason maps err to its wire reason code; unknown errors become "Internal".
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "Internal"
}

// Message maps err to the text shown to the user.
func Message(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.message
		}
	}
	return "Internal error."
}

// ErrorForReason is the inverse of Reason, used by clients decoding acks.
// Codes shared by several errors resolve to the first match.
func ErrorForReason(code string) error {
	for _, r := range reasons {
		if r.code == code {
			return r.err
		}
	}
	return nil
}

func ValidateRoomID(id RoomID) error {
	if id == "" {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
