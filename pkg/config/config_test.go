package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SchedulingConfig(t *testing.T) {
	os.Setenv("SCHED_LOCK_WAIT", "500ms")
	os.Setenv("SCHED_DEFAULT_DURATION_MIN", "20")
	os.Setenv("SCHED_BACKFILL_ENABLED", "true")
	defer func() {
		os.Unsetenv("SCHED_LOCK_WAIT")
		os.Unsetenv("SCHED_DEFAULT_DURATION_MIN")
		os.Unsetenv("SCHED_BACKFILL_ENABLED")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Scheduling.LockWait)
	assert.Equal(t, 20, cfg.Scheduling.DefaultDurationMinutes)
	assert.True(t, cfg.Scheduling.BackfillEnabled)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SCHED_LOCK_WAIT", "SCHED_DEFAULT_DURATION_MIN", "SCHED_BACKFILL_ENABLED",
		"DB_DRIVER", "SERVER_PORT",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Scheduling.LockWait)
	assert.Equal(t, 30, cfg.Scheduling.DefaultDurationMinutes)
	assert.Equal(t, 9, cfg.Scheduling.DayStartHour)
	assert.Equal(t, 19, cfg.Scheduling.DayEndHour)
	assert.False(t, cfg.Scheduling.BackfillEnabled)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host: "db", Port: 5433, User: "vet", Password: "secret",
		Database: "vetcore", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5433 user=vet password=secret dbname=vetcore sslmode=disable",
		cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := &RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
