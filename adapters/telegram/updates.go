package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/elum-utils/moderator/interfaces"
	"github.com/elum-utils/moderator/models"
)

const (
	defaultPollTimeout = 25 * time.Second
	defaultRetryDelay  = 2 * time.Second
)

type apiChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type apiEntity struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type apiMessage struct {
	MessageID      int64       `json:"message_id"`
	From           *apiUser    `json:"from"`
	Chat           apiChat     `json:"chat"`
	Date           int64       `json:"date"`
	Text           string      `json:"text"`
	Entities       []apiEntity `json:"entities"`
	ReplyToMessage *apiMessage `json:"reply_to_message"`
}

type apiUpdate struct {
	UpdateID int64       `json:"update_id"`
	Message  *apiMessage `json:"message"`
}

func (m *apiMessage) isGroup() bool {
	return m.Chat.Type == "group" || m.Chat.Type == "supergroup"
}

func (m *apiMessage) isCommand() bool {
	for _, e := range m.Entities {
		if e.Type == "bot_command" && e.Offset == 0 {
			return true
		}
	}
	return false
}

func (m *apiMessage) textMessage() models.TextMessage {
	out := models.TextMessage{
		Chat:      models.ChatID(m.Chat.ID),
		Text:      m.Text,
		MessageID: m.MessageID,
		Date:      time.Unix(m.Date, 0).UTC(),
	}
	if m.From != nil {
		out.Author = m.From.toModel()
	}
	return out
}

// toEvent normalizes a group message. ok is false for updates the moderator
// does not handle: non-group chats, messages from bots, messages without text
// and commands addressed to a bot other than self.
func (u apiUpdate) toEvent(self string) (models.Event, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.From.IsBot || !m.isGroup() || m.Text == "" {
		return nil, false
	}
	if !m.isCommand() {
		return m.textMessage(), true
	}
	name, mention, args, ok := models.ParseCommand(m.Text)
	if !ok || (mention != "" && mention != self) {
		return nil, false
	}
	cmd := models.Command{
		Name:      name,
		Args:      args,
		Chat:      models.ChatID(m.Chat.ID),
		Invoker:   m.From.toModel(),
		MessageID: m.MessageID,
		Date:      time.Unix(m.Date, 0).UTC(),
	}
	if m.ReplyToMessage != nil {
		reply := m.ReplyToMessage.textMessage()
		cmd.ReplyTo = &reply
	}
	return cmd, true
}

// getUpdates long-polls for updates after offset.
func (c *Client) getUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]apiUpdate, error) {
	var updates []apiUpdate
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout / time.Second),
		"allowed_updates": []string{"message"},
	}, &updates)
	return updates, err
}

// Handler receives normalized events from the poller.
type Handler func(ctx context.Context, event models.Event)

// Poller turns getUpdates long polling into a stream of events.
type Poller struct {
	client     *Client
	logger     interfaces.Logger
	timeout    time.Duration
	retryDelay time.Duration
	offset     int64
	username   string
}

// PollerOptions configures a poller.
type PollerOptions struct {
	Logger     interfaces.Logger
	Timeout    time.Duration
	RetryDelay time.Duration
	// Username is the bot's own handle. It is fetched with getMe when empty.
	Username string
}

// NewPoller creates a poller over client.
func NewPoller(client *Client, opt PollerOptions) *Poller {
	p := &Poller{
		client:     client,
		logger:     opt.Logger,
		timeout:    defaultPollTimeout,
		retryDelay: defaultRetryDelay,
		username:   models.NormalizeHandle(opt.Username),
	}
	if opt.Timeout > 0 {
		p.timeout = opt.Timeout
	}
	if opt.RetryDelay > 0 {
		p.retryDelay = opt.RetryDelay
	}
	return p
}

// Run polls until context cancellation, calling handle for every event in order.
// Authors of observed messages are recorded in the client's directory.
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.PollOnce(ctx, handle); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay := p.retryDelay
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				delay = time.Duration(apiErr.RetryAfter) * time.Second
			}
			p.logWarn("poll failed", map[string]any{"error": err.Error(), "retry_in": delay.String()})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

// PollOnce fetches one batch of updates and dispatches them.
func (p *Poller) PollOnce(ctx context.Context, handle Handler) error {
	if p.username == "" {
		me, err := p.client.Me(ctx)
		if err != nil {
			return err
		}
		if me.Username == "" {
			return errors.New("telegram: getMe returned no username")
		}
		p.username = models.NormalizeHandle(me.Username)
	}
	updates, err := p.client.getUpdates(ctx, p.offset, p.timeout)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		if u.Message != nil && u.Message.From != nil {
			chat := models.ChatID(u.Message.Chat.ID)
			p.client.directory.Observe(chat, u.Message.From.toModel())
			if r := u.Message.ReplyToMessage; r != nil && r.From != nil {
				p.client.directory.Observe(chat, r.From.toModel())
			}
		}
		event, ok := u.toEvent(p.username)
		if !ok {
			continue
		}
		handle(ctx, event)
	}
	return nil
}

// Username returns the bot handle commands are accepted for.
func (p *Poller) Username() string { return p.username }

// Offset returns the next update id to request.
func (p *Poller) Offset() int64 { return p.offset }

func (p *Poller) logWarn(msg string, fields map[string]any) {
	if p.logger != nil {
		p.logger.Warn(msg, fields)
	}
}
