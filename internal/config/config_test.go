package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("BLOCKVERSE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
server:
  port: 25570
  motd: "Test"
world:
  seed: 1234
  generator: normal
  save_format: json
  compression: none
players:
  backend: badger
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25570, cfg.Server.GetPort())
	assert.Equal(t, "Test", cfg.Server.MOTD)
	assert.Equal(t, int64(1234), cfg.World.Seed)
	assert.Equal(t, "normal", cfg.World.Generator)
	assert.Equal(t, "json", cfg.World.SaveFormat)
	assert.Equal(t, "badger", cfg.Players.Backend)
	// Незаданные поля сохраняют значения по умолчанию
	assert.Equal(t, 384, cfg.World.Height)
	assert.Equal(t, 8, cfg.Server.ViewDistance)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  save_format: xml\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPortEnvFallback(t *testing.T) {
	t.Setenv("BLOCKVERSE_PORT", "30000")
	s := ServerConfig{}
	assert.Equal(t, 30000, s.GetPort())

	s.Port = 25566
	assert.Equal(t, 25566, s.GetPort(), "значение из конфига приоритетнее env")

	t.Setenv("BLOCKVERSE_METRICS_PORT", "")
	m := MetricsConfig{}
	assert.Equal(t, 2112, m.GetPort())
}
