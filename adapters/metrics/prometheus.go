package metrics

import (
	"context"

	"github.com/elum-utils/moderator/core"
	"github.com/elum-utils/moderator/interfaces"
	"github.com/elum-utils/moderator/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports moderation counters to Prometheus.
type Collector struct {
	outcomes *prometheus.CounterVec
	actions  *prometheus.CounterVec
}

var _ interfaces.ProcessedHandler = (*Collector)(nil)

// New creates a collector and registers it with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderator_messages_total",
			Help: "Number of text messages processed, by moderation outcome",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderator_actions_total",
			Help: "Number of moderation actions, by event",
		}, []string{"event"}),
	}
	for _, col := range []prometheus.Collector{c.outcomes, c.actions} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnProcessed(_ context.Context, _ models.TextMessage, outcome models.Outcome) error {
	c.outcomes.WithLabelValues(outcome.Kind.String()).Inc()
	return nil
}

// Attach subscribes the collector to the core event bus.
func (c *Collector) Attach(m *core.Core) error {
	for _, name := range []core.EventName{
		core.EventWarned,
		core.EventMuted,
		core.EventAdminMute,
		core.EventAdminUnmute,
		core.EventDenied,
	} {
		if err := m.On(name, c.onEvent); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) onEvent(_ context.Context, e core.ModerationEvent) error {
	c.actions.WithLabelValues(string(e.Name)).Inc()
	return nil
}
