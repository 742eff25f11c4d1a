package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix  = "chat:session:"
	markerPrefix = "chat:email:"
)

// RedisStore keeps sessions in Redis so every replica sees the same
// conversation. State is a JSON string; markers are a hash per session
// keyed by reservation id. Both expire ttl after the last write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns found=false when the key is missing or expired.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*chatdomain.ConversationState, bool, error) {
	data, err := s.client.Get(ctx, statePrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var st chatdomain.ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &st, true, nil
}

// Save writes state and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, state *chatdomain.ConversationState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.SessionID, err)
	}
	return s.client.Set(ctx, statePrefix+state.SessionID, b, s.ttl).Err()
}

// Delete drops the session state and its e-mail markers.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, statePrefix+sessionID, markerPrefix+sessionID).Err()
}

// GetMarker returns EmailUnsent when no marker exists.
func (s *RedisStore) GetMarker(ctx context.Context, sessionID, reservationID string) (chatdomain.EmailMarker, error) {
	v, err := s.client.HGet(ctx, markerPrefix+sessionID, reservationID).Result()
	if errors.Is(err, redis.Nil) {
		return chatdomain.EmailUnsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("get email marker: %w", err)
	}
	return chatdomain.EmailMarker(v), nil
}

// SetMarker stores the marker; EmailUnsent removes it.
func (s *RedisStore) SetMarker(ctx context.Context, sessionID, reservationID string, marker chatdomain.EmailMarker) error {
	key := markerPrefix + sessionID
	if marker == chatdomain.EmailUnsent {
		return s.client.HDel(ctx, key, reservationID).Err()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, reservationID, string(marker))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

// Ping checks the connection, for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
