package models

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// ErrUserNotFound is returned by gateways when a handle cannot be resolved.
var ErrUserNotFound = errors.New("models: user not found")

// ChatID identifies a group chat.
type ChatID int64

// UserID identifies a platform user.
type UserID int64

// User is a platform user as observed in a chat.
type User struct {
	ID        UserID `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// DisplayName returns the best human-readable name for notices.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("user %d", u.ID)
}

// Mention renders an HTML mention of the user.
func (u User) Mention() string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, u.ID, html.EscapeString(u.DisplayName()))
}

// MessageRef points to one message in a chat.
type MessageRef struct {
	Chat ChatID `json:"chat"`
	ID   int64  `json:"id"`
}

// NormalizeHandle strips the leading @ and lower-cases a username.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
