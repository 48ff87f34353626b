package relay

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts relay sessions idle longer than the TTL. The original bots
// kept bindings forever; a forgotten session silently routes a user's every
// message to the operator group, so eviction closes that gap.
type Cleaner struct {
	manager  Manager
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(manager Manager, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		manager:  manager,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the sweep loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.manager == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if reason := ctx.Err(); reason != nil {
				c.log.Info("relay cleaner stopped", slog.String("reason", reason.Error()))
			}
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep evicts every binding whose last activity is older than the TTL.
// Ending one side tears down the whole triple, so each stale session is
// only processed once.
func (c *Cleaner) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	sessions, err := c.manager.Sessions(ctx)
	if err != nil {
		c.log.Error("relay cleaner failed to list sessions", slog.Any("error", err))
		return 0
	}

	evicted := 0
	for key, session := range sessions {
		if session == nil || key.Kind != KindOperator {
			continue
		}

		if time.Since(session.UpdatedAt) <= c.ttl {
			continue
		}

		if _, err := c.manager.End(ctx, key.Kind, key.ChatID); err != nil {
			c.log.Error("relay cleaner failed to end session",
				slog.String("key", key.String()), slog.Any("error", err))
			continue
		}

		transitionRecorder(TransitionExpire)
		evicted++
		c.log.Info("stale relay session evicted",
			slog.Int64("operator_id", session.OperatorID),
			slog.Int64("user_id", session.UserID))
	}

	return evicted
}
