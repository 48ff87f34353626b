package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	relayScanPattern   = "relay:*"
	relayScanBatch     = 100
	redisStorageMaxTTL = 24 * time.Hour
)

// RedisStorage persists relay sessions in Redis so bindings survive a bot
// restart. The 24h ceiling is a backstop; the cleaner evicts much sooner.
type RedisStorage struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client *redis.Client, log *slog.Logger) Storage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
	}
}

// Get returns the stored session or ErrSessionNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, key Key) (*Session, error) {
	data, err := s.client.Get(ctx, key.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}

		s.log.Error("failed to get relay session from redis", "key", key.String(), "error", err)
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		s.log.Error("failed to decode relay session", "key", key.String(), "error", err)
		return nil, err
	}

	return &session, nil
}

// Set saves the session under key with the backstop TTL.
func (s *RedisStorage) Set(ctx context.Context, key Key, session *Session) error {
	if session == nil {
		return ErrSessionNotFound
	}

	data, err := json.Marshal(session)
	if err != nil {
		s.log.Error("failed to encode relay session", "key", key.String(), "error", err)
		return err
	}

	if err := s.client.Set(ctx, key.String(), data, redisStorageMaxTTL).Err(); err != nil {
		s.log.Error("failed to save relay session in redis", "key", key.String(), "error", err)
		return err
	}

	return nil
}

// Clear removes the entry for key.
func (s *RedisStorage) Clear(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		s.log.Error("failed to clear relay session", "key", key.String(), "error", err)
		return err
	}

	return nil
}

// All retrieves every stored session by scanning Redis keys.
func (s *RedisStorage) All(ctx context.Context) (map[Key]*Session, error) {
	var cursor uint64
	result := make(map[Key]*Session)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, relayScanPattern, relayScanBatch).Result()
		if err != nil {
			s.log.Error("failed to scan relay sessions", "error", err)
			return nil, err
		}

		for _, raw := range keys {
			key, ok := parseKey(raw)
			if !ok {
				s.log.Warn("unexpected relay key format", "key", raw)
				continue
			}

			data, err := s.client.Get(ctx, raw).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch relay session", "key", raw, "error", err)
				return nil, err
			}

			var session Session
			if err := json.Unmarshal([]byte(data), &session); err != nil {
				s.log.Error("failed to decode relay session", "key", raw, "error", err)
				continue
			}

			copied := session
			result[key] = &copied
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func parseKey(raw string) (Key, bool) {
	segments := strings.Split(raw, ":")
	if len(segments) != 3 || segments[0] != "relay" {
		return Key{}, false
	}

	kind := SessionKind(segments[1])
	switch kind {
	case KindOperator, KindGroup, KindUser:
	default:
		return Key{}, false
	}

	chatID, err := strconv.ParseInt(segments[2], 10, 64)
	if err != nil {
		return Key{}, false
	}

	return Key{Kind: kind, ChatID: chatID}, true
}
