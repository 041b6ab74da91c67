package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/elum-utils/moderator/models"
)

// Dispatch routes one incoming event. Text messages go through ProcessMessage,
// /mute and /unmute go to the command handlers, other commands are ignored.
func (c *Core) Dispatch(ctx context.Context, event models.Event) error {
	switch e := event.(type) {
	case models.TextMessage:
		if strings.TrimSpace(e.Text) == "" {
			return nil
		}
		_, err := c.ProcessMessage(ctx, e)
		return err
	case models.Command:
		switch e.Name {
		case CommandMute:
			return c.HandleMute(ctx, e)
		case CommandUnmute:
			return c.HandleUnmute(ctx, e)
		default:
			return nil
		}
	default:
		return fmt.Errorf("core: unsupported event %T", event)
	}
}
