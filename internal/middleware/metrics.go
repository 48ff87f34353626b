package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/dealpulse/dealpulse-bot/internal/bot/handlers"
	"github.com/dealpulse/dealpulse-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(actionName(c), status, time.Since(start))

		return err
	}
}

// actionName collapses updates into a bounded label set to keep the metric
// cardinality under control.
func actionName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		data := strings.TrimPrefix(cb.Data, "\f")
		if idx := strings.IndexAny(data, ":|"); idx > 0 {
			data = data[:idx]
		}
		if data == "" {
			return "callback"
		}
		return "cb_" + data
	}

	text := c.Text()
	if strings.HasPrefix(text, "/") {
		if idx := strings.IndexByte(text, ' '); idx > 0 {
			text = text[:idx]
		}
		return text
	}

	if text != "" {
		return "search"
	}

	return "message"
}
