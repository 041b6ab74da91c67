package interfaces

import (
	"context"
	"time"

	"github.com/elum-utils/moderator/models"
)

// Gateway is the messaging platform capability used by the moderator.
type Gateway interface {
	// MemberStatus returns the user's current standing in the chat.
	MemberStatus(ctx context.Context, chat models.ChatID, user models.UserID) (models.Level, error)
	DeleteMessage(ctx context.Context, ref models.MessageRef) error
	// SendMessage posts an HTML formatted notice.
	SendMessage(ctx context.Context, chat models.ChatID, html string) error
	// RestrictSending revokes send permission until the given time.
	// A nil until lifts the restriction.
	RestrictSending(ctx context.Context, chat models.ChatID, user models.UserID, until *time.Time) error
	// ResolveUserByHandle returns models.ErrUserNotFound for unknown handles.
	ResolveUserByHandle(ctx context.Context, chat models.ChatID, handle string) (models.User, error)
}

// Storage persists advertising markers.
type Storage interface {
	AddToken(ctx context.Context, token string) error
	RemoveToken(ctx context.Context, token string) error
	GetTokens(ctx context.Context) ([]string, error)
	TokenExists(ctx context.Context, token string) (bool, error)
}

// ProcessedHandler receives the outcome of every processed text message.
type ProcessedHandler interface {
	OnProcessed(ctx context.Context, message models.TextMessage, outcome models.Outcome) error
}

// Logger is an optional structured logger.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}
