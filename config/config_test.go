package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddress)
	assert.Equal(t, ":9090", cfg.Server.RPCAddress)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 3, cfg.Game.MaxDays)
	assert.Equal(t, 10, cfg.Game.StarterDeckSize)
	assert.Equal(t, 100, cfg.Game.LobbyWaitTicks)
	assert.Equal(t, 30*time.Second, cfg.Game.RoomLinger)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  http_address: ":7000"
game:
  max_days: 5
  room_linger: 2m
database:
  driver: gorm
  postgres:
    host: db
    port: 6543
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("GAME_MAX_PLAYERS", "2")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddress)
	assert.Equal(t, 5, cfg.Game.MaxDays)
	assert.Equal(t, 2, cfg.Game.MaxPlayers)
	assert.Equal(t, 2*time.Minute, cfg.Game.RoomLinger)
	assert.Equal(t, "gorm", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.Postgres.DSN(), "host=db port=6543")

	rules := cfg.Game.Rules()
	assert.Equal(t, 2, rules.MaxPlayers)
	assert.Equal(t, 5, rules.MaxDays)
	assert.NotNil(t, rules.Registry)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("game:\n  max_days: 0\n"), 0o644))
	_, err := LoadConfig(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [\n"), 0o644))
	_, err = LoadConfig(dir)
	assert.Error(t, err)
}
