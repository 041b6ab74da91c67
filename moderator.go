package moderator

import (
	"github.com/elum-utils/moderator/classifier"
	"github.com/elum-utils/moderator/core"
	"github.com/elum-utils/moderator/interfaces"
)

// Re-export core API at module root for convenient imports.
type (
	Core            = core.Core
	Options         = core.Options
	EventName       = core.EventName
	ModerationEvent = core.ModerationEvent
	EventHandler    = core.EventHandler
	Gateway         = interfaces.Gateway
	Storage         = interfaces.Storage
)

const (
	EventWarned      = core.EventWarned
	EventMuted       = core.EventMuted
	EventAdminMute   = core.EventAdminMute
	EventAdminUnmute = core.EventAdminUnmute
	EventDenied      = core.EventDenied
)

var (
	ErrLookupFailed        = core.ErrLookupFailed
	ErrGatewayActionFailed = core.ErrGatewayActionFailed
	ErrResolutionFailed    = core.ErrResolutionFailed
	ErrPermissionDenied    = core.ErrPermissionDenied
)

// New creates a new moderator.
func New(opt Options) *Core {
	return core.New(opt)
}

// IsAdvertising reports whether text contains a default advertising marker.
func IsAdvertising(text string) bool {
	return classifier.IsAdvertising(text)
}
