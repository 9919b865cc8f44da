package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

const envPrefix = "BILLBOARD_"

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func env(name string) string {
	return os.Getenv(envPrefix + name)
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) error {
	if v := env("LOOKUP_LOCK_MODE"); v != "" {
		cfg.Lookup.LockMode = strings.ToLower(strings.TrimSpace(v))
	}

	// The retry count is the one setting whose absence or corruption must stop startup.
	if v := env("RETRY_COUNT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sRETRY_COUNT %q is not an integer", types.ErrInvalidConfig, envPrefix, v)
		}
		cfg.Retry.Count = n
	}
	if v := env("RETRY_BACKOFF"); v != "" {
		cfg.Retry.Backoff = parseDuration(v, cfg.Retry.Backoff)
	}

	if v := env("HEALTH_GATE_CAPACITY"); v != "" {
		cfg.HealthGate.Capacity = parseInt(v, cfg.HealthGate.Capacity)
	}
	if v := env("HEALTH_GATE_THRESHOLD"); v != "" {
		cfg.HealthGate.Threshold = parseInt(v, cfg.HealthGate.Threshold)
	}
	if v := env("HEALTH_GATE_WINDOW"); v != "" {
		cfg.HealthGate.Window = parseDuration(v, cfg.HealthGate.Window)
	}

	if v := env("CACHE_NAMESPACE"); v != "" {
		cfg.Cache.Namespace = v
	}
	if v := env("CACHE_TTL"); v != "" {
		cfg.Cache.TTL = parseDuration(v, cfg.Cache.TTL)
	}
	if v := env("CACHE_LEVEL"); v != "" {
		cfg.Cache.Level = v
	}

	if v := env("MEMORY_MAX_SIZE_MB"); v != "" {
		cfg.Memory.MaxSizeMB = parseInt(v, cfg.Memory.MaxSizeMB)
	}

	if v := env("REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := env("REDIS_DB"); v != "" {
		cfg.Redis.DB = parseInt(v, cfg.Redis.DB)
	}
	if v := env("REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := env("REDIS_POOL_SIZE"); v != "" {
		cfg.Redis.PoolSize = parseInt(v, cfg.Redis.PoolSize)
	}
	if v := env("REDIS_ENABLE_TLS"); v != "" {
		cfg.Redis.EnableTLS = parseBool(v)
	}
	if v := env("REDIS_TLS_SKIP_VERIFY"); v != "" {
		cfg.Redis.TLSSkipVerify = parseBool(v)
	}

	if v := env("CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := env("CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := env("CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := env("BULKHEAD_ENABLED"); v != "" {
		cfg.Bulkhead.Enabled = parseBool(v)
	}
	if v := env("BULKHEAD_MAX_CONCURRENT"); v != "" {
		cfg.Bulkhead.MaxConcurrent = parseInt(v, cfg.Bulkhead.MaxConcurrent)
	}

	if v := env("PRIMARY_DRIVER"); v != "" {
		cfg.Primary.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := env("PRIMARY_REDIS_ADDRESS"); v != "" {
		cfg.Primary.Redis.Address = v
	}
	if v := env("PRIMARY_REDIS_PASSWORD"); v != "" {
		cfg.Primary.Redis.Password = NewSecretString(v)
	}
	if v := env("PRIMARY_REDIS_KEY_PREFIX"); v != "" {
		cfg.Primary.Redis.KeyPrefix = v
	}
	if v := env("PRIMARY_DYNAMO_REGION"); v != "" {
		cfg.Primary.Dynamo.Region = v
	}
	if v := env("PRIMARY_DYNAMO_TABLE"); v != "" {
		cfg.Primary.Dynamo.Table = v
	}
	if v := env("PRIMARY_DYNAMO_ENDPOINT"); v != "" {
		cfg.Primary.Dynamo.Endpoint = v
	}

	if v := env("BACKUP_DRIVER"); v != "" {
		cfg.Backup.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := env("BACKUP_DSN"); v != "" {
		cfg.Backup.DSN = NewSecretString(v)
	}
	if v := env("BACKUP_TABLE"); v != "" {
		cfg.Backup.Table = v
	}

	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
	if v := os.Getenv("DD_VERSION"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "version:"+v)
	}

	if v := env("DATADOG_ENABLED"); v != "" {
		if os.Getenv("DD_AGENT_HOST") == "" {
			cfg.Metrics.DataDog.Enabled = parseBool(v)
		}
	}
	if v := env("DATADOG_PREFIX"); v != "" {
		if os.Getenv("DD_SERVICE") == "" {
			cfg.Metrics.DataDog.Prefix = v
		}
	}
	return nil
}

// Validate checks if the configuration is valid. Every failure wraps types.ErrInvalidConfig.
//
//nolint:gocyclo // One check per documented constraint
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{types.ErrInvalidConfig}, args...)...))
	}

	if c.Retry.Count < 1 {
		invalid("retry.count must be at least 1, got %d", c.Retry.Count)
	}
	if c.Retry.Backoff < 0 {
		invalid("retry.backoff must not be negative")
	}

	switch c.Lookup.LockMode {
	case LockModePerKey, LockModeGlobal:
	default:
		invalid("lookup.lockMode must be %q or %q, got %q", LockModePerKey, LockModeGlobal, c.Lookup.LockMode)
	}

	if c.HealthGate.Capacity <= 0 {
		invalid("healthGate.capacity must be positive")
	}
	if c.HealthGate.Threshold <= 0 {
		invalid("healthGate.threshold must be positive")
	}
	if c.HealthGate.Threshold > c.HealthGate.Capacity {
		invalid("healthGate.threshold %d exceeds healthGate.capacity %d", c.HealthGate.Threshold, c.HealthGate.Capacity)
	}
	if c.HealthGate.Window <= 0 {
		invalid("healthGate.window must be positive")
	}

	if c.Cache.TTL <= 0 {
		invalid("cache.ttl must be positive")
	}
	switch c.Cache.Level {
	case "memory-only", "redis-only", "memory-then-redis":
	default:
		invalid("cache.level %q is not one of memory-only, redis-only, memory-then-redis", c.Cache.Level)
	}

	level := types.ParseCacheLevel(c.Cache.Level)
	if level.IncludesMemory() {
		if c.Memory.MaxSizeMB <= 0 {
			invalid("memory.maxSizeMB must be positive")
		}
		if c.Memory.Shards <= 0 || (c.Memory.Shards&(c.Memory.Shards-1)) != 0 {
			invalid("memory.shards must be a positive power of 2")
		}
	}
	if level.IncludesRedis() {
		if c.Redis.Address == "" {
			invalid("redis.address is required when the cache level uses redis")
		}
		if c.Redis.PoolSize <= 0 {
			invalid("redis.poolSize must be positive")
		}
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			invalid("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			invalid("circuitBreaker.openDuration must be positive")
		}
	}

	if c.Bulkhead.Enabled && c.Bulkhead.MaxConcurrent <= 0 {
		invalid("bulkhead.maxConcurrent must be positive")
	}

	switch c.Primary.Driver {
	case "", DriverNone:
	case DriverRedis:
		if c.Primary.Redis.Address == "" {
			invalid("primary.redis.address is required for the redis driver")
		}
	case DriverDynamoDB:
		if c.Primary.Dynamo.Table == "" || c.Primary.Dynamo.Region == "" {
			invalid("primary.dynamo.table and primary.dynamo.region are required for the dynamodb driver")
		}
	default:
		invalid("primary.driver %q is not one of none, redis, dynamodb", c.Primary.Driver)
	}

	switch c.Backup.Driver {
	case "", DriverNone:
	case DriverSQLite, DriverPgx, DriverMySQL:
		if c.Backup.DSN.IsEmpty() {
			invalid("backup.dsn is required for the %s driver", c.Backup.Driver)
		}
	default:
		invalid("backup.driver %q is not one of none, sqlite, pgx, mysql", c.Backup.Driver)
	}

	return errors.Join(errs...)
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
