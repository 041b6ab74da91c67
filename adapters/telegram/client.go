package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/elum-utils/moderator/models"
	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultTimeout     = 30 * time.Second
	defaultDirCapacity = 100_000
	defaultDirTTL      = 7 * 24 * time.Hour

	// Telegram treats restrictions ending less than 30s from now as permanent.
	minRestriction = 31 * time.Second
)

// Member statuses reported by getChatMember.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

// APIError is an unsuccessful Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Code, e.Description)
}

// Client is a Bot API client implementing interfaces.Gateway.
type Client struct {
	client    *resty.Client
	directory *Directory
	now       func() time.Time
}

// Options configures the client.
type Options struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	// Directory resolves @handles. A default one is created when nil.
	Directory *Directory
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewClient creates client instance.
func NewClient(opt Options) (*Client, error) {
	if strings.TrimSpace(opt.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if strings.TrimSpace(opt.BaseURL) == "" {
		opt.BaseURL = defaultBaseURL
	}
	if opt.Timeout <= 0 {
		opt.Timeout = defaultTimeout
	}
	if opt.Directory == nil {
		opt.Directory = NewDirectory(defaultDirCapacity, defaultDirTTL)
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	base := strings.TrimRight(opt.BaseURL, "/") + "/bot" + opt.Token
	return &Client{
		client: resty.New().
			SetTimeout(opt.Timeout).
			SetBaseURL(base).
			SetHeader("Content-Type", "application/json"),
		directory: opt.Directory,
		now:       opt.Now,
	}, nil
}

// Directory returns the handle directory used by ResolveUserByHandle.
func (c *Client) Directory() *Directory { return c.directory }

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/" + method)
	if err != nil {
		// url.Error carries the request URL, which embeds the bot token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram: %s: %w", method, err)
	}

	var body apiResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("telegram: %s: status %d: %w", method, resp.StatusCode(), err)
	}
	if !body.OK {
		apiErr := &APIError{Method: method, Code: body.ErrorCode, Description: body.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		if body.Parameters != nil {
			apiErr.RetryAfter = body.Parameters.RetryAfter
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body.Result, out)
}

type apiUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

func (u apiUser) toModel() models.User {
	return models.User{ID: models.UserID(u.ID), Username: u.Username, FirstName: u.FirstName}
}

type chatMember struct {
	Status string  `json:"status"`
	User   apiUser `json:"user"`
}

// Me returns the bot's own account.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var me apiUser
	if err := c.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return models.User{}, err
	}
	return me.toModel(), nil
}

func (c *Client) getChatMember(ctx context.Context, chat models.ChatID, user models.UserID) (chatMember, error) {
	var member chatMember
	err := c.call(ctx, "getChatMember", map[string]any{
		"chat_id": int64(chat),
		"user_id": int64(user),
	}, &member)
	return member, err
}

// MemberStatus maps creator to owner and administrator to administrator.
// Every other status is a plain member.
func (c *Client) MemberStatus(ctx context.Context, chat models.ChatID, user models.UserID) (models.Level, error) {
	member, err := c.getChatMember(ctx, chat, user)
	if err != nil {
		return models.LevelMember, err
	}
	c.directory.Observe(chat, member.User.toModel())
	switch member.Status {
	case StatusCreator:
		return models.LevelOwner, nil
	case StatusAdministrator:
		return models.LevelAdministrator, nil
	default:
		return models.LevelMember, nil
	}
}

// DeleteMessage removes a message from its chat.
func (c *Client) DeleteMessage(ctx context.Context, ref models.MessageRef) error {
	return c.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    int64(ref.Chat),
		"message_id": ref.ID,
	}, nil)
}

// SendMessage posts html to the chat with link previews disabled.
func (c *Client) SendMessage(ctx context.Context, chat models.ChatID, html string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  int64(chat),
		"text":                     html,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}, nil)
}

// ChatPermissions is the subset of send permissions toggled by mute and unmute.
type ChatPermissions struct {
	CanSendMessages       bool `json:"can_send_messages"`
	CanSendAudios         bool `json:"can_send_audios"`
	CanSendDocuments      bool `json:"can_send_documents"`
	CanSendPhotos         bool `json:"can_send_photos"`
	CanSendVideos         bool `json:"can_send_videos"`
	CanSendVideoNotes     bool `json:"can_send_video_notes"`
	CanSendVoiceNotes     bool `json:"can_send_voice_notes"`
	CanSendPolls          bool `json:"can_send_polls"`
	CanSendOtherMessages  bool `json:"can_send_other_messages"`
	CanAddWebPagePreviews bool `json:"can_add_web_page_previews"`
}

func sendPermissions(allowed bool) ChatPermissions {
	return ChatPermissions{
		CanSendMessages:       allowed,
		CanSendAudios:         allowed,
		CanSendDocuments:      allowed,
		CanSendPhotos:         allowed,
		CanSendVideos:         allowed,
		CanSendVideoNotes:     allowed,
		CanSendVoiceNotes:     allowed,
		CanSendPolls:          allowed,
		CanSendOtherMessages:  allowed,
		CanAddWebPagePreviews: allowed,
	}
}

// RestrictSending revokes every send permission until the given time, or
// restores them when until is nil. An until closer than minRestriction is
// moved forward so a late mute stays temporary.
func (c *Client) RestrictSending(ctx context.Context, chat models.ChatID, user models.UserID, until *time.Time) error {
	payload := map[string]any{
		"chat_id":                          int64(chat),
		"user_id":                          int64(user),
		"use_independent_chat_permissions": true,
	}
	if until == nil {
		payload["permissions"] = sendPermissions(true)
	} else {
		payload["permissions"] = sendPermissions(false)
		end := *until
		if earliest := c.now().Add(minRestriction); end.Before(earliest) {
			end = earliest
		}
		payload["until_date"] = end.Unix()
	}
	return c.call(ctx, "restrictChatMember", payload, nil)
}

// ResolveUserByHandle looks the handle up in the directory and confirms with
// getChatMember that the user still owns it.
func (c *Client) ResolveUserByHandle(ctx context.Context, chat models.ChatID, handle string) (models.User, error) {
	known, ok := c.directory.Lookup(chat, handle)
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	member, err := c.getChatMember(ctx, chat, known.ID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == 400 {
			c.directory.Forget(chat, handle)
			return models.User{}, models.ErrUserNotFound
		}
		return models.User{}, err
	}
	fresh := member.User.toModel()
	if models.NormalizeHandle(fresh.Username) != models.NormalizeHandle(handle) {
		c.directory.Forget(chat, handle)
		c.directory.Observe(chat, fresh)
		return models.User{}, models.ErrUserNotFound
	}
	return fresh, nil
}
