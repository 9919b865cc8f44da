// Package config provides configuration management for billboard.
package config

import (
	"time"

	"github.com/LavishGent/billboard/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Lock modes for the lookup read path.
const (
	LockModePerKey = "per-key"
	LockModeGlobal = "global"
)

// Primary provider drivers.
const (
	DriverNone     = "none"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
)

// Backup provider drivers. The names are the database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
	DriverMySQL  = "mysql"
)

// Config contains all configuration for the advertisement lookup service.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	Lookup         LookupConfig         `json:"lookup"`
	Retry          RetryConfig          `json:"retry"`
	HealthGate     HealthGateConfig     `json:"healthGate"`
	Cache          CacheConfig          `json:"cache"`
	Memory         MemoryConfig         `json:"memory"`
	Redis          RedisConfig          `json:"redis"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Bulkhead       BulkheadConfig       `json:"bulkhead"`
	Primary        PrimaryConfig        `json:"primary"`
	Backup         BackupConfig         `json:"backup"`
	Metrics        MetricsConfig        `json:"metrics"`
	IDValidation   IDValidationConfig   `json:"idValidation"`
}

// LookupConfig controls mutual exclusion over the read path.
// "per-key" coalesces concurrent lookups of one id; "global" serializes every lookup.
type LookupConfig struct {
	LockMode string `json:"lockMode"`
}

// RetryConfig bounds primary-provider attempts per lookup.
type RetryConfig struct {
	Count   int           `json:"count"`
	Backoff time.Duration `json:"backoff"`
}

// HealthGateConfig sizes the failure window in front of the primary provider.
type HealthGateConfig struct {
	Capacity  int           `json:"capacity"`
	Threshold int           `json:"threshold"`
	Window    time.Duration `json:"window"`
}

// CacheConfig describes the fallback cache: key namespace, entry TTL and which layers back it.
type CacheConfig struct {
	Namespace string        `json:"namespace"`
	TTL       time.Duration `json:"ttl"`
	Level     string        `json:"level"`
}

// MemoryConfig contains configuration for the memory cache layer.
type MemoryConfig struct {
	CleanupInterval  time.Duration `json:"cleanupInterval"`
	MaxSizeMB        int           `json:"maxSizeMB"`
	Shards           int           `json:"shards"`
	MaxEntrySize     int           `json:"maxEntrySize"`
	HardMaxCacheSize bool          `json:"hardMaxCacheSize"`
}

// RedisConfig contains configuration for the Redis cache layer.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DialTimeout         time.Duration `json:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`
	Password            SecretString  `json:"password"`
	Address             string        `json:"address"`
	KeyPrefix           string        `json:"keyPrefix"`
	DB                  int           `json:"db"`
	PoolSize            int           `json:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns"`
	EnableTLS           bool          `json:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify"`
}

// CircuitBreakerConfig contains configuration for the breaker guarding the Redis layer.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled"`
	FailureThreshold    int           `json:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests"`
}

// BulkheadConfig bounds concurrent primary-provider calls.
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout"`
}

// PrimaryConfig selects and configures the primary provider.
type PrimaryConfig struct {
	Driver string             `json:"driver"`
	Redis  PrimaryRedisConfig `json:"redis"`
	Dynamo DynamoConfig       `json:"dynamo"`
}

// PrimaryRedisConfig points at the Redis instance holding advertisement documents.
type PrimaryRedisConfig struct {
	Password    SecretString  `json:"password"`
	Address     string        `json:"address"`
	KeyPrefix   string        `json:"keyPrefix"`
	DialTimeout time.Duration `json:"dialTimeout"`
	ReadTimeout time.Duration `json:"readTimeout"`
	DB          int           `json:"db"`
}

// DynamoConfig points at the DynamoDB table holding advertisements.
// Endpoint overrides the AWS endpoint, typically for DynamoDB Local.
type DynamoConfig struct {
	SecretAccessKey SecretString `json:"secretAccessKey"`
	Region          string       `json:"region"`
	Table           string       `json:"table"`
	Endpoint        string       `json:"endpoint"`
	AccessKeyID     string       `json:"accessKeyId"`
}

// BackupConfig selects and configures the SQL backup provider.
type BackupConfig struct {
	DSN          SecretString `json:"dsn"`
	Driver       string       `json:"driver"`
	Table        string       `json:"table"`
	MaxOpenConns int          `json:"maxOpenConns"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}

// IDValidationConfig contains configuration for advertisement id validation.
type IDValidationConfig struct {
	ReservedPatterns  []string `json:"reservedPatterns"`
	MaxLength         int      `json:"maxLength"`
	Enabled           bool     `json:"enabled"`
	AllowControlChars bool     `json:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace"`
}

// ToTypesConfig converts this config to a types.IDValidationConfig.
func (c IDValidationConfig) ToTypesConfig() types.IDValidationConfig {
	return types.IDValidationConfig{
		MaxLength:         c.MaxLength,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPatterns:  c.ReservedPatterns,
	}
}
