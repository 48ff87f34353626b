package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// ErrInProgress is returned when the same key is already being processed.
var ErrInProgress = errors.New("operation with this key is already in progress")

const (
	lockTTL      = 5 * time.Minute
	pollInterval = 100 * time.Millisecond
)

// Operation is the side-effecting function guarded by a dedupe key.
type Operation func(ctx context.Context) (interface{}, error)

// Result reports the operation outcome and whether it was served from a
// previous execution.
type Result struct {
	Response  interface{}
	FromCache bool
}

// Manager executes operations at most once per key within a TTL window.
type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager backed by the given store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	for {
		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}

		if record != nil {
			switch record.Status {
			case StatusProcessing:
				return nil, ErrInProgress
			case StatusCompleted:
				var response interface{}
				if len(record.Response) > 0 {
					if err := json.Unmarshal(record.Response, &response); err != nil {
						return nil, err
					}
				}
				return &Result{Response: response, FromCache: true}, nil
			}
		}

		locked, err := m.store.Lock(ctx, key, lockTTL)
		if err != nil {
			return nil, err
		}

		if locked {
			return m.run(ctx, key, ttl, fn)
		}

		// Lock holder has not written a record yet. Wait and retry.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (m *manager) run(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	defer func() {
		if err := m.store.ReleaseLock(ctx, key); err != nil {
			m.log.Warn("failed to release dedupe lock",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}()

	if err := m.store.Set(ctx, key, &Record{Status: StatusProcessing}, lockTTL); err != nil {
		return nil, err
	}

	response, err := fn(ctx)
	if err != nil {
		// Drop the processing marker so a retry of the failed
		// operation is not refused as a duplicate.
		if delErr := m.store.Delete(ctx, key); delErr != nil {
			m.log.Warn("failed to clear dedupe record", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	record := &Record{Status: StatusCompleted, Response: encoded}
	if err := m.store.Set(ctx, key, record, ttl); err != nil {
		return nil, err
	}

	return &Result{Response: response, FromCache: false}, nil
}
