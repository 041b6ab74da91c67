package models

import "fmt"

// OutcomeKind is the result class of processing one message.
type OutcomeKind int

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeWarned
	OutcomeMuted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeWarned:
		return "warned"
	case OutcomeMuted:
		return "muted"
	default:
		return "unknown"
	}
}

// Outcome is the moderation decision for one flagged message.
// Count is set only for OutcomeWarned.
type Outcome struct {
	Kind  OutcomeKind
	Count int
}

// Ignored returns the outcome for messages that need no action.
func Ignored() Outcome { return Outcome{Kind: OutcomeIgnored} }

// Warned returns a warning outcome with the current count.
func Warned(count int) Outcome { return Outcome{Kind: OutcomeWarned, Count: count} }

// Muted returns the mute outcome.
func Muted() Outcome { return Outcome{Kind: OutcomeMuted} }

func (o Outcome) String() string {
	if o.Kind == OutcomeWarned {
		return fmt.Sprintf("warned(%d)", o.Count)
	}
	return o.Kind.String()
}

// Level is a member's standing in a chat.
type Level int

const (
	LevelMember Level = iota
	LevelAdministrator
	LevelOwner
)

// Elevated reports whether the level exempts a user from moderation.
func (l Level) Elevated() bool {
	return l == LevelAdministrator || l == LevelOwner
}

func (l Level) String() string {
	switch l {
	case LevelAdministrator:
		return "administrator"
	case LevelOwner:
		return "owner"
	default:
		return "member"
	}
}
