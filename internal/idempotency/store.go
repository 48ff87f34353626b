// Package idempotency deduplicates repeated callback taps and retried
// commands so side effects run at most once per key.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Record captures the outcome of a deduplicated operation.
type Record struct {
	Status   string `json:"status"`
	Response []byte `json:"response,omitempty"`
}

// Store persists dedupe records and short-lived execution locks.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ReleaseLock(ctx context.Context, key string) error
}

// GenerateKey builds a deterministic key from the provided parts.
// Callers pass the chat ID, the action name, and the action payload.
func GenerateKey(parts ...interface{}) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v:", part)
	}

	return hex.EncodeToString(h.Sum(nil))
}
