package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdeck/teamdeck/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/teamdeck")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "postgres://localhost/teamdeck", cfg.DatabaseURL)
	assert.Equal(t, "", cfg.SelectionPath)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, "dev", cfg.Version)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	// t.Setenv registers the restore; the variable must be truly unset for
	// envconfig's required check to trip.
	t.Setenv("DATABASE_URL", "placeholder")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/teamdeck")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SELECTION_PATH", "/tmp/current_team")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/current_team", cfg.SelectionPath)
	assert.Equal(t, 4, cfg.BcryptCost)
}
