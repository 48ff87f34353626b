// Package metrics exposes Prometheus collectors for the deals bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dealpulse/dealpulse-bot/internal/relay"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searches_total",
			Help: "Total number of catalog searches labeled by outcome",
		},
		[]string{"outcome"},
	)
	searchResultCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_result_count",
			Help:    "Number of offers returned per search",
			Buckets: []float64{0, 1, 3, 5, 10, 25, 50, 100},
		},
	)
	relayTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_transitions_total",
			Help: "Total number of relay session transitions",
		},
		[]string{"transition"},
	)
	relayMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Total relayed messages labeled by direction and payload type",
		},
		[]string{"direction", "payload"},
	)
	activeRelaySessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_relay_sessions",
			Help: "Current number of bound relay sessions",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

func init() {
	relay.RegisterTransitionRecorder(RecordRelayTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordSearch tracks one search and its result size.
func RecordSearch(results int) {
	outcome := "hit"
	if results == 0 {
		outcome = "empty"
	}

	searchesTotal.WithLabelValues(outcome).Inc()
	searchResultCount.Observe(float64(results))
}

// RecordRelayTransition tracks relay session transitions.
func RecordRelayTransition(transition string) {
	if transition == "" {
		transition = "unknown"
	}

	relayTransitionsTotal.WithLabelValues(transition).Inc()
}

// RecordRelayMessage tracks one relayed message.
func RecordRelayMessage(direction, payload string) {
	if direction == "" {
		direction = "unknown"
	}
	if payload == "" {
		payload = "unknown"
	}

	relayMessagesTotal.WithLabelValues(direction, payload).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}

// SetActiveRelaySessions updates the bound-session gauge.
func SetActiveRelaySessions(count int) {
	activeRelaySessions.Set(float64(count))
}

// SessionCollector periodically counts bound relay sessions and updates the
// gauge.
type SessionCollector struct {
	manager relay.Manager
}

// NewSessionCollector builds a collector bound to the provided manager.
func NewSessionCollector(manager relay.Manager) *SessionCollector {
	return &SessionCollector{manager: manager}
}

// Run polls the session store every 10 seconds until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.manager == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *SessionCollector) collect(ctx context.Context) error {
	sessions, err := c.manager.Sessions(ctx)
	if err != nil {
		return err
	}

	bound := 0
	for key := range sessions {
		if key.Kind == relay.KindOperator {
			bound++
		}
	}

	SetActiveRelaySessions(bound)
	return nil
}
