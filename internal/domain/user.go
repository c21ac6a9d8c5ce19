// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"
)

const (
	MaxUsernameLen = 36
	MaxRoomIDLen   = 64
)

// User is the minimal account record returned by auth-login/auth-signup.
// Password is never serialized.
type User struct {
	Name     string    `json:"name"`
	Password string    `json:"-"`
	Created  time.Time `json:"created"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(name, password string, now time.Time) (*User, error) {
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}
	return &User{Name: name, Password: password, Created: now}, nil
}

func ValidateUsername(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
