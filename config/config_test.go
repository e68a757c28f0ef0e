package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PVZ_APP_PORT", "")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "pvz-workforce-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "pvz.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "12", cfg.Schedule.PlannedHours.String())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PVZ_APP_PORT", "9090")
	t.Setenv("PVZ_APP_ENV", "production")
	t.Setenv("PVZ_DATABASE_PATH", ":memory:")
	t.Setenv("PVZ_LOG_FORMAT", "json")
	t.Setenv("PVZ_SCHEDULE_PLANNED_HOURS", "11.5")
	t.Setenv("PVZ_HTTP_READ_TIMEOUT", "5s")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "11.5", cfg.Schedule.PlannedHours.String())
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
}

func TestLoad_RejectsInvalidPlannedHours(t *testing.T) {
	t.Run("not a number", func(t *testing.T) {
		t.Setenv("PVZ_SCHEDULE_PLANNED_HOURS", "twelve")
		_, err := fromViper(viper.New())
		assert.ErrorContains(t, err, "schedule.planned_hours")
	})

	t.Run("zero", func(t *testing.T) {
		t.Setenv("PVZ_SCHEDULE_PLANNED_HOURS", "0")
		_, err := fromViper(viper.New())
		assert.ErrorContains(t, err, "must be positive")
	})
}
