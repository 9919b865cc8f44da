package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LavishGent/billboard/internal/config"
	"github.com/LavishGent/billboard/internal/types"
)

func TestNewPrimary(t *testing.T) {
	ctx := context.Background()

	t.Run("none yields no provider", func(t *testing.T) {
		p, err := NewPrimary(ctx, config.PrimaryConfig{Driver: config.DriverNone}, nil)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("unreachable redis is not fatal", func(t *testing.T) {
		cfg := config.DefaultConfig().Primary
		cfg.Driver = config.DriverRedis
		cfg.Redis.Address = "127.0.0.1:1"

		p, err := NewPrimary(ctx, cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, p)
		defer p.Close()

		_, err = p.FetchByID(ctx, "1")
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewPrimary(ctx, config.PrimaryConfig{Driver: "cassandra"}, nil)
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})
}

func TestNewBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("none yields no provider", func(t *testing.T) {
		p, err := NewBackup(ctx, config.BackupConfig{}, nil)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("sqlite", func(t *testing.T) {
		p, err := NewBackup(ctx, config.BackupConfig{
			Driver:       config.DriverSQLite,
			DSN:          config.NewSecretString("file:provider_backup?mode=memory&cache=shared"),
			Table:        "advertisements",
			MaxOpenConns: 1,
		}, nil)
		require.NoError(t, err)
		defer p.Close()

		adv, err := p.FetchByID(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, adv)
	})

	t.Run("missing dsn", func(t *testing.T) {
		_, err := NewBackup(ctx, config.BackupConfig{Driver: config.DriverPgx}, nil)
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewBackup(ctx, config.BackupConfig{Driver: "oracle"}, nil)
		assert.ErrorIs(t, err, types.ErrInvalidConfig)
	})
}

func TestFunc(t *testing.T) {
	var p types.Provider = Func(func(ctx context.Context, id string) (*types.Advertisement, error) {
		return &types.Advertisement{WebID: id}, nil
	})

	adv, err := p.FetchByID(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "5", adv.WebID)
}
