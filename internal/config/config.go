package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	World   WorldConfig   `yaml:"world"`
	Players PlayersConfig `yaml:"players"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Host               string  `yaml:"host"`
	Port               int     `yaml:"port"`
	MOTD               string  `yaml:"motd"`
	MaxPlayers         int     `yaml:"max_players"`
	ViewDistance       int     `yaml:"view_distance"`
	SimulationDistance int     `yaml:"simulation_distance"`
	ConnectionsPerSec  float64 `yaml:"connections_per_second"`
	ConnectionBurst    int     `yaml:"connection_burst"`
	// RegistryCodec путь к заранее снятому NBT registry codec, пустой путь означает встроенный
	RegistryCodec string `yaml:"registry_codec"`
}

type WorldConfig struct {
	Path        string `yaml:"path"`
	Seed        int64  `yaml:"seed"`
	Generator   string `yaml:"generator"`
	SaveFormat  string `yaml:"save_format"`
	Compression string `yaml:"compression"`
	MinY        int    `yaml:"min_y"`
	Height      int    `yaml:"height"`
}

type PlayersConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Directory string `yaml:"directory"`
	Console   bool   `yaml:"console"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			MOTD:               "A Blockverse Server",
			MaxPlayers:         20,
			ViewDistance:       8,
			SimulationDistance: 8,
			ConnectionsPerSec:  10,
			ConnectionBurst:    20,
		},
		World: WorldConfig{
			Path:        "world",
			Generator:   "flat",
			SaveFormat:  "nbt",
			Compression: "zstd",
			MinY:        -64,
			Height:      384,
		},
		Players: PlayersConfig{
			Backend: "file",
			Path:    "world/players",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: "logs",
			Console:   true,
		},
	}
}

// GetPort возвращает TCP порт с поддержкой fallback значений
func (s *ServerConfig) GetPort() int {
	return getPortWithEnvFallback(s.Port, "BLOCKVERSE_PORT", 25565)
}

// Address возвращает адрес для net.Listen
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.GetPort())
}

// GetPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "BLOCKVERSE_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет значения, которые нельзя исправить молча
func (c *Config) Validate() error {
	switch c.World.Generator {
	case "flat", "normal":
	default:
		return fmt.Errorf("world.generator: unknown generator %q", c.World.Generator)
	}
	switch c.World.SaveFormat {
	case "nbt", "json":
	default:
		return fmt.Errorf("world.save_format: unknown format %q", c.World.SaveFormat)
	}
	switch c.World.Compression {
	case "none", "zstd":
	default:
		return fmt.Errorf("world.compression: unknown compression %q", c.World.Compression)
	}
	switch c.Players.Backend {
	case "file", "badger", "memory":
	default:
		return fmt.Errorf("players.backend: unknown backend %q", c.Players.Backend)
	}
	if c.World.MinY%16 != 0 || c.World.Height <= 0 || c.World.Height%16 != 0 {
		return fmt.Errorf("world: min_y and height must be multiples of 16 (min_y=%d, height=%d)", c.World.MinY, c.World.Height)
	}
	if c.Server.ViewDistance < 2 || c.Server.ViewDistance > 32 {
		return fmt.Errorf("server.view_distance must be in [2, 32], got %d", c.Server.ViewDistance)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV BLOCKVERSE_CONFIG, иначе возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BLOCKVERSE_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
