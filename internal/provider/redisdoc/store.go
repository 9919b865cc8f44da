// Package redisdoc serves advertisements stored as JSON documents in Redis.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

// Store reads advertisements from "<prefix><id>" keys. Documents never expire.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// New creates a Store connected to the configured Redis instance.
func New(cfg config.PrimaryRedisConfig, logger *slog.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password.Value(),
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})
	return NewWithClient(client, cfg.KeyPrefix, logger)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis-provider"),
	}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// FetchByID returns (nil, nil) when no document exists for id.
func (s *Store) FetchByID(ctx context.Context, id string) (*types.Advertisement, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key(id), err)
	}

	var adv types.Advertisement
	if err := json.Unmarshal(data, &adv); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", types.ErrSerializationFailed, s.key(id), err)
	}
	if adv.WebID == "" {
		adv.WebID = id
	}
	return &adv, nil
}

// Put stores adv under its WebID.
func (s *Store) Put(ctx context.Context, adv *types.Advertisement) error {
	if adv == nil || adv.WebID == "" {
		return fmt.Errorf("%w: advertisement without id", types.ErrInvalidKey)
	}
	data, err := json.Marshal(adv)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSerializationFailed, err)
	}
	return s.client.Set(ctx, s.key(adv.WebID), data, 0).Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	s.logger.Debug("Closing redis provider")
	return s.client.Close()
}

var _ types.Provider = (*Store)(nil)
