package types

import (
	"context"
	"time"
)

// Provider is the call contract shared by the primary and backup sources.
// A nil advertisement with a nil error means the id is unknown to the source.
type Provider interface {
	FetchByID(ctx context.Context, id string) (*Advertisement, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(ctx context.Context, id string) (*Advertisement, error)

// FetchByID calls f(ctx, id).
func (f ProviderFunc) FetchByID(ctx context.Context, id string) (*Advertisement, error) {
	return f(ctx, id)
}

// AdvertisementCache is the read-through cache capability used by the lookup service.
type AdvertisementCache interface {
	Get(ctx context.Context, id string) (*Advertisement, bool)
	Put(ctx context.Context, id string, adv *Advertisement, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type CacheInfo interface {
	Name() string
	IsAvailable() bool
}

// CacheLayer is a byte store with per-entry TTL. Get returns ErrCacheMiss for
// absent or expired keys.
type CacheLayer interface {
	CacheInfo
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

type MemoryStatsProvider interface {
	Stats() MemoryCacheStats
	EntryCount() int
	HitRatio() float64
}

type MemoryCacheLayer interface {
	CacheLayer
	MemoryStatsProvider
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

type MetricsRecorder interface {
	RecordLookup(id string, source Source, latency time.Duration)
	RecordPrimaryFailure(id string, attempt int, err error)
	RecordHealthGateSkip(id string, recentFailures int)
	RecordCacheError(layer string, operation string, err error)
	RecordCircuitBreakerStateChange(from, to string)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
