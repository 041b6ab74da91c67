package core

import (
	"context"
	"fmt"

	"github.com/elum-utils/moderator/models"
)

// IsElevated reports whether user is an administrator or owner of chat.
// The status is fetched from the gateway on every call.
func (c *Core) IsElevated(ctx context.Context, chat models.ChatID, user models.UserID) (bool, error) {
	if err := c.validate(); err != nil {
		return false, err
	}
	level, err := c.gateway.MemberStatus(ctx, chat, user)
	if err != nil {
		return false, fmt.Errorf("%w: user %d in chat %d: %w", ErrLookupFailed, user, chat, err)
	}
	return level.Elevated(), nil
}
