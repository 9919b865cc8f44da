// Package provider builds the primary and backup advertisement sources from
// configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/provider/dynamodoc"
	"github.com/LavishGent/billboard/internal/provider/redisdoc"
	"github.com/LavishGent/billboard/internal/provider/sqlstore"
	"github.com/LavishGent/billboard/internal/types"
)

// Func adapts a plain function into a provider.
type Func = types.ProviderFunc

// Source is a provider that holds resources released by Close.
type Source interface {
	types.Provider
	Close() error
}

// NewPrimary builds the primary provider named by cfg.Driver. DriverNone
// yields (nil, nil), which makes every lookup skip the primary tier. An
// unreachable Redis is logged, not fatal.
func NewPrimary(ctx context.Context, cfg config.PrimaryConfig, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", config.DriverNone:
		return nil, nil
	case config.DriverRedis:
		s := redisdoc.New(cfg.Redis, logger)
		if err := s.Ping(ctx); err != nil {
			logger.Warn("Primary redis not reachable at startup", "address", cfg.Redis.Address, "error", err)
		}
		return s, nil
	case config.DriverDynamoDB:
		s, err := dynamodoc.New(ctx, cfg.Dynamo, logger)
		if err != nil {
			return nil, fmt.Errorf("primary dynamodb: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown primary driver %q", types.ErrInvalidConfig, cfg.Driver)
	}
}

// NewBackup builds the SQL backup provider. DriverNone yields (nil, nil).
func NewBackup(ctx context.Context, cfg config.BackupConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Driver {
	case "", config.DriverNone:
		return nil, nil
	case config.DriverSQLite, config.DriverPgx, config.DriverMySQL:
		s, err := sqlstore.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("backup %s: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown backup driver %q", types.ErrInvalidConfig, cfg.Driver)
	}
}
