package models

import (
	"strings"
	"time"
)

// Event is one normalized incoming update.
type Event interface {
	isEvent()
}

// TextMessage is a plain text message posted in a chat.
type TextMessage struct {
	Chat      ChatID    `json:"chat"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	MessageID int64     `json:"message_id"`
	Date      time.Time `json:"date"`
}

// Ref returns the message reference.
func (m TextMessage) Ref() MessageRef {
	return MessageRef{Chat: m.Chat, ID: m.MessageID}
}

// Command is a bot command such as /mute @user.
type Command struct {
	Name      string       `json:"name"`
	Args      []string     `json:"args,omitempty"`
	Chat      ChatID       `json:"chat"`
	Invoker   User         `json:"invoker"`
	MessageID int64        `json:"message_id"`
	ReplyTo   *TextMessage `json:"reply_to,omitempty"`
	Date      time.Time    `json:"date"`
}

func (TextMessage) isEvent() {}
func (Command) isEvent()     {}

// ParseCommand splits "/name@bot arg1 arg2" into a command name, the
// addressed bot handle and arguments. mention is empty when the command names
// no bot. ok is false when text is not a command.
func ParseCommand(text string) (name, mention string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", "", nil, false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name, mention = name[:i], NormalizeHandle(name[i+1:])
	}
	if name == "" {
		return "", "", nil, false
	}
	return strings.ToLower(name), mention, fields[1:], true
}
