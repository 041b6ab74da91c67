// Package ledger keeps in-memory warning counts for chat members.
package ledger

import (
	"fmt"
	"strings"

	"github.com/elum-utils/moderator/models"
	"github.com/puzpuzpuz/xsync/v3"
)

// Scope selects how warning counts are keyed.
type Scope int

const (
	// ScopeChat keeps a separate count per (chat, user) pair.
	ScopeChat Scope = iota
	// ScopeGlobal shares one count per user across every moderated chat.
	ScopeGlobal
)

func (s Scope) String() string {
	if s == ScopeGlobal {
		return "global"
	}
	return "chat"
}

// ParseScope maps "chat" or "global" to a Scope.
func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "chat":
		return ScopeChat, nil
	case "global":
		return ScopeGlobal, nil
	default:
		return ScopeChat, fmt.Errorf("ledger: unknown scope %q", v)
	}
}

// Key identifies one warning counter.
type Key struct {
	Chat models.ChatID
	User models.UserID
}

// Ledger maps keys to warning counts. Increments are atomic per key.
type Ledger struct {
	scope  Scope
	counts *xsync.MapOf[Key, int]
}

// New creates an empty ledger.
func New(scope Scope) *Ledger {
	return &Ledger{scope: scope, counts: xsync.NewMapOf[Key, int]()}
}

// Scope returns the keying mode.
func (l *Ledger) Scope() Scope { return l.scope }

// KeyFor builds the counter key for a user in a chat according to the scope.
func (l *Ledger) KeyFor(chat models.ChatID, user models.UserID) Key {
	if l.scope == ScopeGlobal {
		return Key{User: user}
	}
	return Key{Chat: chat, User: user}
}

// Increment adds one warning and returns the new count. When the new count reaches
// threshold the counter is reset to zero in the same step and tripped is true.
func (l *Ledger) Increment(key Key, threshold int) (count int, tripped bool) {
	l.counts.Compute(key, func(old int, _ bool) (int, bool) {
		count = old + 1
		if threshold > 0 && count >= threshold {
			tripped = true
			return 0, true
		}
		return count, false
	})
	return count, tripped
}

// Count returns the current warning count for key.
func (l *Ledger) Count(key Key) int {
	v, _ := l.counts.Load(key)
	return v
}

// Reset clears the warning count for key.
func (l *Ledger) Reset(key Key) {
	l.counts.Delete(key)
}

// Len returns the number of keys with a non-zero count.
func (l *Ledger) Len() int {
	return l.counts.Size()
}
