package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elum-utils/moderator/classifier"
	"github.com/elum-utils/moderator/interfaces"
	"github.com/elum-utils/moderator/ledger"
	"github.com/elum-utils/moderator/models"
)

const (
	defaultWarnThreshold = 3
	defaultMuteDuration  = 5 * time.Minute
	defaultSyncInterval  = 5 * time.Minute
)

// Recognized command names.
const (
	CommandMute   = "mute"
	CommandUnmute = "unmute"
)

// EventName is a callback bus event.
type EventName string

const (
	EventWarned      EventName = "warned"
	EventMuted       EventName = "muted"
	EventAdminMute   EventName = "admin_mute"
	EventAdminUnmute EventName = "admin_unmute"
	EventDenied      EventName = "denied"
)

// ModerationEvent is callback payload.
type ModerationEvent struct {
	Name    EventName
	Chat    models.ChatID
	User    models.User
	Invoker models.UserID
	Count   int
	Until   time.Time
}

// EventHandler handles one moderation event.
type EventHandler func(ctx context.Context, event ModerationEvent) error

// Options configure the moderator core.
type Options struct {
	Gateway    interfaces.Gateway
	Storage    interfaces.Storage
	Processed  interfaces.ProcessedHandler
	Logger     interfaces.Logger
	Classifier *classifier.Classifier
	Ledger     *ledger.Ledger

	// Scope is used when Ledger is nil.
	Scope         ledger.Scope
	WarnThreshold int
	MuteDuration  time.Duration
	SyncInterval  time.Duration
	// Now is used for events that carry no timestamp.
	Now func() time.Time
}

// Core is the moderation escalation engine.
type Core struct {
	gateway    interfaces.Gateway
	storage    interfaces.Storage
	allCb      interfaces.ProcessedHandler
	logger     interfaces.Logger
	classifier *classifier.Classifier
	ledger     *ledger.Ledger

	warnThreshold int
	muteDuration  time.Duration
	syncInterval  time.Duration
	now           func() time.Time

	eventsMu sync.RWMutex
	events   map[EventName][]EventHandler

	processed [3]atomic.Int64
}

// New creates a core instance. Configuration errors are returned on Run/Process methods.
func New(opt Options) *Core {
	c := &Core{
		gateway:       opt.Gateway,
		storage:       opt.Storage,
		allCb:         opt.Processed,
		logger:        opt.Logger,
		classifier:    opt.Classifier,
		ledger:        opt.Ledger,
		warnThreshold: defaultWarnThreshold,
		muteDuration:  defaultMuteDuration,
		syncInterval:  defaultSyncInterval,
		now:           time.Now,
		events:        make(map[EventName][]EventHandler, 5),
	}
	if c.classifier == nil {
		c.classifier = classifier.New()
	}
	if c.ledger == nil {
		c.ledger = ledger.New(opt.Scope)
	}
	if opt.WarnThreshold > 0 {
		c.warnThreshold = opt.WarnThreshold
	}
	if opt.MuteDuration > 0 {
		c.muteDuration = opt.MuteDuration
	}
	if opt.SyncInterval > 0 {
		c.syncInterval = opt.SyncInterval
	}
	if opt.Now != nil {
		c.now = opt.Now
	}
	return c
}

// On registers event handlers.
func (c *Core) On(event EventName, handler EventHandler) error {
	if handler == nil {
		return errors.New("core: handler is nil")
	}
	c.eventsMu.Lock()
	c.events[event] = append(c.events[event], handler)
	c.eventsMu.Unlock()
	return nil
}

// Run loads markers from storage and keeps them in sync until context cancellation.
// Without storage it only waits for cancellation.
func (c *Core) Run(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	if c.storage == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := c.SyncOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.SyncOnce(ctx); err != nil {
				c.logWarn("marker sync failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// SyncOnce reloads advertising markers from storage. Stored markers extend the defaults.
func (c *Core) SyncOnce(ctx context.Context) error {
	if c.storage == nil {
		return errors.New("core: storage is nil")
	}
	tokens, err := c.storage.GetTokens(ctx)
	if err != nil {
		return err
	}
	markers := make([]string, 0, len(classifier.DefaultMarkers)+len(tokens))
	markers = append(markers, classifier.DefaultMarkers...)
	markers = append(markers, tokens...)
	c.classifier.ReplaceAll(markers)
	c.logDebug("markers synced", map[string]any{"count": c.classifier.Count()})
	return nil
}

// Metrics returns count of processed text messages by outcome.
func (c *Core) Metrics() map[models.OutcomeKind]int64 {
	out := make(map[models.OutcomeKind]int64, len(c.processed))
	for i := range c.processed {
		out[models.OutcomeKind(i)] = c.processed[i].Load()
	}
	return out
}

// WarningCount returns the current warning count of a user in a chat.
func (c *Core) WarningCount(chat models.ChatID, user models.UserID) int {
	return c.ledger.Count(c.ledger.KeyFor(chat, user))
}

// MarkerCount returns number of in-memory advertising markers.
func (c *Core) MarkerCount() int {
	return c.classifier.Count()
}

func (c *Core) record(ctx context.Context, msg models.TextMessage, outcome models.Outcome) {
	if k := int(outcome.Kind); k >= 0 && k < len(c.processed) {
		c.processed[k].Add(1)
	}
	if c.allCb != nil {
		if err := c.allCb.OnProcessed(ctx, msg, outcome); err != nil {
			c.logWarn("processed callback failed", map[string]any{"error": err.Error()})
		}
	}
}

func (c *Core) dispatchEvent(ctx context.Context, e ModerationEvent) {
	c.eventsMu.RLock()
	handlers := append([]EventHandler(nil), c.events[e.Name]...)
	c.eventsMu.RUnlock()
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			c.logWarn("event handler failed", map[string]any{"error": err.Error(), "event": e.Name})
		}
	}
}

func (c *Core) eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}

func (c *Core) validate() error {
	if c.gateway == nil {
		return errors.New("core: gateway is nil")
	}
	return nil
}

func (c *Core) logDebug(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Core) logInfo(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}

func (c *Core) logWarn(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}
