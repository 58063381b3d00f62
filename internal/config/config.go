// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// =============================================================================
// SERVER CONFIGURATION (TOML file, env overrides on top)
// =============================================================================

// ServerConfig holds the server-level runtime keys: map file path, max
// concurrent players, broker host/port, client id, tick rate override.
type ServerConfig struct {
	MapFile     string        `toml:"map_file"`
	MaxPlayers  int           `toml:"max_players"`
	BrokerHost  string        `toml:"broker_host"`
	BrokerPort  int           `toml:"broker_port"`
	ClientID    string        `toml:"client_id"`
	TickRateHz  int           `toml:"tick_rate_hz"`
	AdminPort   int           `toml:"admin_port"`
}

// DefaultServer returns the default server configuration: tick = 10 Hz,
// max players = 10 000.
func DefaultServer() ServerConfig {
	return ServerConfig{
		MapFile:    "config/map.json",
		MaxPlayers: 10_000,
		BrokerHost: "127.0.0.1",
		BrokerPort: 4222,
		ClientID:   "mobacore",
		TickRateHz: 10,
		AdminPort:  8090,
	}
}

// TickInterval converts TickRateHz into the ΔT duration the scheduler
// advances by each tick.
func (s ServerConfig) TickInterval() time.Duration {
	if s.TickRateHz <= 0 {
		return 100 * time.Millisecond
	}
	return time.Second / time.Duration(s.TickRateHz)
}

// AssetPaths locates the three static configuration file families (map,
// abilities, entities). DefaultAssetPaths takes the map path as given and
// fixes the other two at config/abilities.json and config/entities.json,
// whatever the map file's directory; no env variable overrides them.
type AssetPaths struct {
	MapFile     string
	AbilityFile string
	EntityFile  string
}

func DefaultAssetPaths(mapFile string) AssetPaths {
	return AssetPaths{
		MapFile:     mapFile,
		AbilityFile: "config/abilities.json",
		EntityFile:  "config/entities.json",
	}
}

// Load reads serverPath as TOML (if present), applies environment
// variable overrides, and returns the fully resolved server config. A
// missing file is not an error (defaults plus env apply) but a malformed
// file is: config errors are fatal at load, the server refuses to start.
func Load(serverPath string) (ServerConfig, error) {
	cfg := DefaultServer()

	if data, err := os.ReadFile(serverPath); err == nil {
		if decodeErr := toml.Unmarshal(data, &cfg); decodeErr != nil {
			return ServerConfig{}, fmt.Errorf("config: malformed %s: %w", serverPath, decodeErr)
		}
	} else if !os.IsNotExist(err) {
		return ServerConfig{}, fmt.Errorf("config: reading %s: %w", serverPath, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *ServerConfig) {
	if v := os.Getenv("MOBA_MAP_FILE"); v != "" {
		cfg.MapFile = v
	}
	if v := getEnvInt("MOBA_MAX_PLAYERS", 0); v > 0 {
		cfg.MaxPlayers = v
	}
	if v := os.Getenv("MOBA_BROKER_HOST"); v != "" {
		cfg.BrokerHost = v
	}
	if v := getEnvInt("MOBA_BROKER_PORT", 0); v > 0 {
		cfg.BrokerPort = v
	}
	if v := os.Getenv("MOBA_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := getEnvInt("MOBA_TICK_RATE_HZ", 0); v > 0 {
		cfg.TickRateHz = v
	}
	if v := getEnvInt("MOBA_ADMIN_PORT", 0); v > 0 {
		cfg.AdminPort = v
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
