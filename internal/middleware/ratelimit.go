// Package middleware holds cross-cutting concerns applied to incoming
// updates before they reach handlers.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming updates.
// Free-text searches get their own tighter rule since they scan the catalog.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		chatID := sender.ID
		if chat := c.Chat(); chat != nil && chat.Type != telebot.ChatPrivate {
			// Group traffic follows the whitelist, not per-user limits.
			if m.rules.IsWhitelisted(chat.ID) {
				return next(c)
			}
		}
		if m.rules.IsWhitelisted(chatID) {
			return next(c)
		}

		if !m.allow(chatID, "user", m.rules.GetPerUserLimit) {
			return c.Send("Too many requests. Please slow down.")
		}

		if isFreeTextSearch(c) && !m.allow(chatID, "search", m.rules.GetSearchLimit) {
			return c.Send("Too many searches. Please try again in a minute.")
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) allow(chatID int64, scope string, rule func() (int, time.Duration, error)) bool {
	limit, window, err := rule()
	if err != nil {
		m.log.Error("failed to load rate limit rule",
			slog.String("scope", scope),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
		return true
	}

	key := fmt.Sprintf("%s:%d", scope, chatID)
	result, err := m.limiter.Check(context.Background(), key, limit, window)
	if err != nil && !errors.Is(err, ratelimit.ErrLimitExceeded) {
		// Fail open: a broken limiter must not take the bot down.
		m.log.Warn("rate limiter error",
			slog.String("scope", scope),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
		return true
	}

	if result == nil || !result.Allowed {
		m.log.Warn("rate limit exceeded",
			slog.String("scope", scope),
			slog.Int64("chat_id", chatID))
		return false
	}

	return true
}

func isFreeTextSearch(c telebot.Context) bool {
	if c.Callback() != nil {
		return false
	}

	text := c.Text()
	return text != "" && !strings.HasPrefix(text, "/")
}
