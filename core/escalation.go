package core

import (
	"context"
	"fmt"

	"github.com/elum-utils/moderator/models"
)

// ProcessMessage runs one text message through classification and escalation.
//
// Flagged messages from non-exempt authors are deleted and counted. The third
// warning mutes the author for the mute duration and resets the count. A failed
// exemption lookup moderates the author. A failed delete is logged and ignored.
// Restrict and send failures are returned wrapping ErrGatewayActionFailed together
// with the outcome that was already committed to the ledger.
func (c *Core) ProcessMessage(ctx context.Context, msg models.TextMessage) (models.Outcome, error) {
	if err := c.validate(); err != nil {
		return models.Ignored(), err
	}
	if !c.classifier.IsAdvertising(msg.Text) {
		c.record(ctx, msg, models.Ignored())
		return models.Ignored(), nil
	}

	fields := map[string]any{"chat": msg.Chat, "user": msg.Author.ID, "message": msg.MessageID}

	elevated, err := c.IsElevated(ctx, msg.Chat, msg.Author.ID)
	if err != nil {
		c.logWarn("exemption lookup failed, moderating author", withError(fields, err))
	} else if elevated {
		c.logDebug("flagged message from exempt author", fields)
		c.record(ctx, msg, models.Ignored())
		return models.Ignored(), nil
	}

	if err := c.gateway.DeleteMessage(ctx, msg.Ref()); err != nil {
		c.logWarn("delete flagged message failed", withError(fields, err))
	}

	count, tripped := c.ledger.Increment(c.ledger.KeyFor(msg.Chat, msg.Author.ID), c.warnThreshold)
	if !tripped {
		outcome := models.Warned(count)
		c.record(ctx, msg, outcome)
		c.dispatchEvent(ctx, ModerationEvent{Name: EventWarned, Chat: msg.Chat, User: msg.Author, Count: count})
		if err := c.gateway.SendMessage(ctx, msg.Chat, warningNotice(msg.Author, count, c.warnThreshold)); err != nil {
			return outcome, fmt.Errorf("%w: send warning: %w", ErrGatewayActionFailed, err)
		}
		c.logInfo("user warned", fields)
		return outcome, nil
	}

	outcome := models.Muted()
	c.record(ctx, msg, outcome)
	until := c.eventTime(msg.Date).Add(c.muteDuration)
	if err := c.gateway.RestrictSending(ctx, msg.Chat, msg.Author.ID, &until); err != nil {
		return outcome, fmt.Errorf("%w: restrict user %d: %w", ErrGatewayActionFailed, msg.Author.ID, err)
	}
	c.dispatchEvent(ctx, ModerationEvent{Name: EventMuted, Chat: msg.Chat, User: msg.Author, Count: count, Until: until})
	if err := c.gateway.SendMessage(ctx, msg.Chat, autoMuteNotice(msg.Author, c.warnThreshold, c.muteDuration)); err != nil {
		return outcome, fmt.Errorf("%w: send mute notice: %w", ErrGatewayActionFailed, err)
	}
	fields["until"] = until
	c.logInfo("user muted", fields)
	return outcome, nil
}

func withError(fields map[string]any, err error) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
