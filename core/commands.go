package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elum-utils/moderator/models"
)

// HandleMute restricts the @username target of an administrator's /mute command
// for the mute duration. It never touches warning counts.
func (c *Core) HandleMute(ctx context.Context, cmd models.Command) error {
	return c.handleRestrictCommand(ctx, cmd, true)
}

// HandleUnmute lifts the send restriction of the @username target.
func (c *Core) HandleUnmute(ctx context.Context, cmd models.Command) error {
	return c.handleRestrictCommand(ctx, cmd, false)
}

func (c *Core) handleRestrictCommand(ctx context.Context, cmd models.Command, mute bool) error {
	if err := c.validate(); err != nil {
		return err
	}
	fields := map[string]any{"chat": cmd.Chat, "invoker": cmd.Invoker.ID, "command": cmd.Name}

	if err := c.authorize(ctx, cmd); err != nil {
		c.logInfo("command rejected", withError(fields, err))
		c.dispatchEvent(ctx, ModerationEvent{Name: EventDenied, Chat: cmd.Chat, User: cmd.Invoker, Invoker: cmd.Invoker.ID})
		return c.reply(ctx, cmd.Chat, noticePermissionDenied)
	}

	target, err := c.resolveTarget(ctx, cmd)
	if err != nil {
		c.logInfo("command target not resolved", withError(fields, err))
		if errors.Is(err, errMissingTarget) {
			return c.reply(ctx, cmd.Chat, usageNotice(cmd.Name))
		}
		return c.reply(ctx, cmd.Chat, noticeUserNotFound)
	}
	fields["target"] = target.ID

	if !mute {
		if err := c.gateway.RestrictSending(ctx, cmd.Chat, target.ID, nil); err != nil {
			return fmt.Errorf("%w: unrestrict user %d: %w", ErrGatewayActionFailed, target.ID, err)
		}
		c.dispatchEvent(ctx, ModerationEvent{Name: EventAdminUnmute, Chat: cmd.Chat, User: target, Invoker: cmd.Invoker.ID})
		c.logInfo("user unmuted by administrator", fields)
		return c.reply(ctx, cmd.Chat, unmuteNotice(target))
	}

	until := c.eventTime(cmd.Date).Add(c.muteDuration)
	if err := c.gateway.RestrictSending(ctx, cmd.Chat, target.ID, &until); err != nil {
		return fmt.Errorf("%w: restrict user %d: %w", ErrGatewayActionFailed, target.ID, err)
	}
	c.dispatchEvent(ctx, ModerationEvent{Name: EventAdminMute, Chat: cmd.Chat, User: target, Invoker: cmd.Invoker.ID, Until: until})
	fields["until"] = until.Format(time.RFC3339)
	c.logInfo("user muted by administrator", fields)
	return c.reply(ctx, cmd.Chat, adminMuteNotice(target, c.muteDuration))
}

// authorize fails closed: a lookup error denies the command.
func (c *Core) authorize(ctx context.Context, cmd models.Command) error {
	elevated, err := c.IsElevated(ctx, cmd.Chat, cmd.Invoker.ID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	if !elevated {
		return ErrPermissionDenied
	}
	return nil
}

// resolveTarget takes the first command argument as the target handle.
// Reply context is not consulted.
func (c *Core) resolveTarget(ctx context.Context, cmd models.Command) (models.User, error) {
	if len(cmd.Args) == 0 {
		return models.User{}, fmt.Errorf("%w: %w", ErrResolutionFailed, errMissingTarget)
	}
	handle := models.NormalizeHandle(cmd.Args[0])
	if handle == "" {
		return models.User{}, fmt.Errorf("%w: %w", ErrResolutionFailed, errMissingTarget)
	}
	user, err := c.gateway.ResolveUserByHandle(ctx, cmd.Chat, handle)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: @%s: %w", ErrResolutionFailed, handle, err)
	}
	return user, nil
}

func (c *Core) reply(ctx context.Context, chat models.ChatID, text string) error {
	if err := c.gateway.SendMessage(ctx, chat, text); err != nil {
		return fmt.Errorf("%w: reply: %w", ErrGatewayActionFailed, err)
	}
	return nil
}
