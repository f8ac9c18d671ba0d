// Package redis provides a Redis-backed key-value store used for the
// embedding cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ErrKeyNotFound is returned by Get for missing keys.
var ErrKeyNotFound = errors.New("key not found")

// Config holds connection parameters.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// TTL is applied to every Set. Zero stores keys without expiry.
	TTL time.Duration
}

// KVStore is a small byte-oriented key-value store over rueidis.
type KVStore struct {
	client rueidis.Client
	ttl    time.Duration
}

// NewKVStore connects to Redis.
func NewKVStore(cfg Config) (*KVStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &KVStore{client: client, ttl: cfg.TTL}, nil
}

// newKVStoreWithClient wraps an existing client.
func newKVStoreWithClient(c rueidis.Client, ttl time.Duration) *KVStore {
	return &KVStore{client: c, ttl: ttl}
}

// Get returns the value at key, or ErrKeyNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.B().Get().Key(key).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value at key with the configured TTL.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	var cmd rueidis.Completed
	if s.ttl > 0 {
		cmd = s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(s.ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *KVStore) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *KVStore) Close() error {
	s.client.Close()
	return nil
}
