// Package types provides shared types for the billboard lookup library.
// This package breaks import cycles between pkg/billboard and the internal packages.
package types

import "time"

// Advertisement is the entity served by the lookup service. The core treats it
// as an opaque payload identified by WebID.
type Advertisement struct {
	WebID       string `json:"webId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Clone returns a copy that callers may mutate without affecting shared state.
func (a *Advertisement) Clone() *Advertisement {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Source identifies which tier satisfied a lookup.
type Source int

const (
	SourceNone Source = iota
	SourceCache
	SourcePrimary
	SourceBackup
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourceCache:
		return "cache"
	case SourcePrimary:
		return "primary"
	case SourceBackup:
		return "backup"
	default:
		return "unknown"
	}
}

// CacheLevel specifies which cache layers back the fallback cache.
type CacheLevel int

const (
	LevelMemoryOnly CacheLevel = iota + 1
	LevelRedisOnly
	LevelMemoryThenRedis
)

func (l CacheLevel) String() string {
	switch l {
	case LevelMemoryOnly:
		return "memory-only"
	case LevelRedisOnly:
		return "redis-only"
	case LevelMemoryThenRedis:
		return "memory-then-redis"
	default:
		return "unknown"
	}
}

func (l CacheLevel) IncludesMemory() bool {
	return l == LevelMemoryOnly || l == LevelMemoryThenRedis
}

func (l CacheLevel) IncludesRedis() bool {
	return l == LevelRedisOnly || l == LevelMemoryThenRedis
}

// ParseCacheLevel maps a configuration string to a CacheLevel.
// Unknown values fall back to LevelMemoryOnly.
func ParseCacheLevel(s string) CacheLevel {
	switch s {
	case "redis-only":
		return LevelRedisOnly
	case "memory-then-redis":
		return LevelMemoryThenRedis
	default:
		return LevelMemoryOnly
	}
}

// CacheEntry is a stored value together with its absolute expiry.
type CacheEntry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the entry is stale at now. A zero ExpiresAt never expires.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(e.ExpiresAt)
}

type MemoryCacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Expired   int64
}
