package config

import "time"

// Defaults for the lookup core.
const (
	DefaultRetryBackoff       = time.Second
	DefaultCacheTTL           = 5 * time.Minute
	DefaultCacheNamespace     = "AdvKey_"
	DefaultHealthGateCapacity = 20
	DefaultHealthGateWindow   = time.Hour
	DefaultHealthGateLimit    = 10
)

// DefaultConfig returns a configuration with sensible defaults.
// Retry.Count defaults to 3; callers that load it from elsewhere must still pass Validate.
func DefaultConfig() *Config {
	return &Config{
		Lookup: LookupConfig{
			LockMode: LockModePerKey,
		},
		Retry: RetryConfig{
			Count:   3,
			Backoff: DefaultRetryBackoff,
		},
		HealthGate: HealthGateConfig{
			Capacity:  DefaultHealthGateCapacity,
			Threshold: DefaultHealthGateLimit,
			Window:    DefaultHealthGateWindow,
		},
		Cache: CacheConfig{
			Namespace: DefaultCacheNamespace,
			TTL:       DefaultCacheTTL,
			Level:     "memory-only",
		},
		Memory: MemoryConfig{
			MaxSizeMB:        256,
			CleanupInterval:  10 * time.Second,
			Shards:           1024,
			MaxEntrySize:     64 * 1024,
			HardMaxCacheSize: false,
		},
		Redis: RedisConfig{
			Address:             "localhost:6379",
			Password:            SecretString{},
			DB:                  0,
			KeyPrefix:           "billboard:",
			PoolSize:            100,
			MinIdleConns:        10,
			DialTimeout:         5 * time.Second,
			ReadTimeout:         3 * time.Second,
			WriteTimeout:        3 * time.Second,
			PoolTimeout:         4 * time.Second,
			EnableTLS:           false,
			TLSSkipVerify:       false,
			HealthCheckInterval: 5 * time.Second,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        false,
			MaxConcurrent:  100,
			MaxQueue:       50,
			AcquireTimeout: 100 * time.Millisecond,
		},
		Primary: PrimaryConfig{
			Driver: DriverNone,
			Redis: PrimaryRedisConfig{
				Address:     "localhost:6379",
				KeyPrefix:   "ads:",
				DialTimeout: 2 * time.Second,
				ReadTimeout: time.Second,
			},
			Dynamo: DynamoConfig{
				Region: "us-east-1",
				Table:  "advertisements",
			},
		},
		Backup: BackupConfig{
			Driver:       DriverNone,
			Table:        "advertisements",
			MaxOpenConns: 10,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "billboard",
				Tags:      []string{},
			},
		},
		IDValidation: IDValidationConfig{
			Enabled:           true,
			MaxLength:         256,
			AllowControlChars: false,
			AllowWhitespace:   false,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests:
// memory-only cache, no backoff wait, metrics off.
func ForTesting() *Config {
	cfg := DefaultConfig()
	cfg.Retry = RetryConfig{Count: 3, Backoff: 0}
	cfg.Memory = MemoryConfig{
		MaxSizeMB:        16,
		CleanupInterval:  time.Second,
		Shards:           64,
		MaxEntrySize:     16 * 1024,
		HardMaxCacheSize: false,
	}
	cfg.Redis.KeyPrefix = "test:"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 1
	cfg.Redis.DialTimeout = time.Second
	cfg.Redis.ReadTimeout = time.Second
	cfg.Redis.WriteTimeout = time.Second
	cfg.Redis.PoolTimeout = time.Second
	cfg.Redis.HealthCheckInterval = 0
	cfg.CircuitBreaker = CircuitBreakerConfig{
		Enabled:             false,
		FailureThreshold:    3,
		SuccessThreshold:    1,
		OpenDuration:        time.Second,
		HalfOpenMaxRequests: 1,
	}
	cfg.Bulkhead = BulkheadConfig{
		Enabled:        false,
		MaxConcurrent:  10,
		MaxQueue:       5,
		AcquireTimeout: 50 * time.Millisecond,
	}
	cfg.Metrics = MetricsConfig{
		Enabled:         false,
		PublishInterval: time.Second,
	}
	return cfg
}

// ForTestingWithRedis returns a test config with a memory-then-redis cache.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Cache.Level = "memory-then-redis"
	cfg.Redis.Address = addr
	return cfg
}
