/*
Copyright (C) 2026 Lumenworks

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package kvstore provides the typed key-value store backing speaker
// state, per-source cache slots and request cooldowns.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Key prefixes for store records.
const (
	KeySpeakerState = "showgate:speaker:state"
	KeySpeakerLock  = "showgate:speaker:lock"
	KeyCooldown     = "showgate:speaker:cooldown:" // + identity
	KeySourceCache  = "showgate:source:"           // + source name
)

// Store is a typed key-value store with per-key TTLs. All authoritative
// shared state lives behind this interface; callers use read-then-write
// semantics per call.
type Store interface {
	// GetJSON unmarshals the value at key into dest. The second return
	// is false when the key is absent or expired.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	// SetJSON marshals value at key. A zero TTL means no expiry.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Config contains Redis store configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DisableOnError trips a circuit breaker on Redis errors, after which
	// reads report misses and writes are dropped.
	DisableOnError bool
}

// RedisStore is a Redis-backed Store with graceful degradation.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool
}

// NewRedis creates a Redis store. If Redis is unreachable the store comes
// up disabled and every read is a miss.
func NewRedis(cfg Config, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := &RedisStore{
		client: client,
		logger: logger.With().Str("component", "kvstore").Logger(),
		config: cfg,
	}

	if err := client.Ping(ctx).Err(); err != nil {
		store.logger.Warn().Err(err).Msg("Redis unavailable, store starts disabled")
		store.disabled = true
		return store
	}

	store.logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis store initialized")
	return store
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// IsAvailable returns true if the store is operational.
func (s *RedisStore) IsAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disabled && s.client != nil
}

func (s *RedisStore) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	s.logger.Debug().Err(err).Str("operation", operation).Msg("store operation failed")

	if s.config.DisableOnError {
		s.mu.Lock()
		s.disabled = true
		s.mu.Unlock()
		s.logger.Warn().Msg("disabling store due to Redis error")
	}
}

// GetJSON retrieves a value and unmarshals it.
func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.IsAvailable() {
		return false, nil
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		s.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal stored value")
		return false, nil
	}

	return true, nil
}

// SetJSON stores a value with TTL.
func (s *RedisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !s.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal store value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.handleError(err, "set")
		return err
	}

	return nil
}

// Delete removes a key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if !s.IsAvailable() {
		return nil
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.handleError(err, "delete")
		return err
	}

	return nil
}
