package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, int64(500), cfg.Marketplace.MinBudget)
	assert.Equal(t, 3, cfg.Marketplace.MinDeadlineDays)
	assert.Equal(t, 5*time.Second, cfg.Marketplace.PersistTimeout)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "@every 30s", cfg.Storage.SyncSchedule)
	assert.Equal(t, "order_marketplace", cfg.Mongo.Database)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":               "production",
		"STORAGE_DRIVER":    "postgres",
		"POSTGRES_DSN":      "postgres://localhost/marketplace",
		"MIN_BUDGET":        "1000",
		"MIN_DEADLINE_DAYS": "7",
		"PERSIST_TIMEOUT":   "2s",
		"LOGIN_RATE":        "0.5",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, int64(1000), cfg.Marketplace.MinBudget)
	assert.Equal(t, 7, cfg.Marketplace.MinDeadlineDays)
	assert.Equal(t, 2*time.Second, cfg.Marketplace.PersistTimeout)
	assert.Equal(t, 0.5, cfg.Login.Rate)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":    {"STORAGE_DRIVER": "sqlite"},
		"postgres no dsn":   {"STORAGE_DRIVER": "postgres"},
		"negative budget":   {"MIN_BUDGET": "-1"},
		"zero login burst":  {"LOGIN_BURST": "0"},
		"malformed timeout": {"PERSIST_TIMEOUT": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}
