package telegram

import (
	"time"

	"github.com/elum-utils/moderator/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type handleKey struct {
	chat   models.ChatID
	handle string
}

// Directory remembers which user owns a @handle in a chat. The Bot API has no
// username lookup, so entries are learned from observed messages.
type Directory struct {
	handles *expirable.LRU[handleKey, models.User]
}

// NewDirectory creates a directory. Capacity of zero means unlimited size,
// ttl of zero means entries never expire.
func NewDirectory(capacity int, ttl time.Duration) *Directory {
	return &Directory{handles: expirable.NewLRU[handleKey, models.User](capacity, nil, ttl)}
}

// Observe records the user's current handle in chat.
func (d *Directory) Observe(chat models.ChatID, user models.User) {
	handle := models.NormalizeHandle(user.Username)
	if handle == "" {
		return
	}
	d.handles.Add(handleKey{chat: chat, handle: handle}, user)
}

// Lookup returns the last user seen with handle in chat.
func (d *Directory) Lookup(chat models.ChatID, handle string) (models.User, bool) {
	return d.handles.Get(handleKey{chat: chat, handle: models.NormalizeHandle(handle)})
}

// Forget drops a handle, for example after the user renamed.
func (d *Directory) Forget(chat models.ChatID, handle string) {
	d.handles.Remove(handleKey{chat: chat, handle: models.NormalizeHandle(handle)})
}

// Len returns the number of remembered handles.
func (d *Directory) Len() int {
	return d.handles.Len()
}
