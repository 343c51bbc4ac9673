package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[game]
tick_rate = "20ms"
auto_restart = true

[leaderboard]
cooldown = "2h"
settle_delay = "250ms"

[server]
backend = "postgres"
`))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, cfg.Game.TickRate)
	assert.True(t, cfg.Game.AutoRestart)
	assert.Equal(t, 2*time.Hour, cfg.Leaderboard.Cooldown)
	assert.Equal(t, 250*time.Millisecond, cfg.Leaderboard.SettleDelay)
	assert.Equal(t, "postgres", cfg.Server.Backend)

	// untouched keys keep their defaults
	assert.Equal(t, "data/levels.yaml", cfg.Game.LevelsFile)
	assert.Equal(t, time.Second, cfg.Game.FinishDwell)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	for name, raw := range map[string]string{
		"tick":    "[game]\ntick_rate = \"0s\"\n",
		"level":   "[game]\ninitial_level = 0\n",
		"backend": "[server]\nbackend = \"sqlite\"\n",
		"syntax":  "[game\n",
	} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadShippedConfigs(t *testing.T) {
	for _, name := range []string{"gravitybox.toml", "leaderboardd.toml"} {
		path := filepath.Join("..", "..", "config", name)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		_, err := Load(path)
		assert.NoError(t, err, name)
	}
}
