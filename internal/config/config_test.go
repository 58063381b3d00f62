package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("expected a missing config file to be non-fatal, got %v", err)
	}
	want := DefaultServer()
	if cfg != want {
		t.Fatalf("expected defaults when no file present, got %+v", cfg)
	}
}

func TestLoadParsesTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	toml := "map_file = \"config/custom.json\"\nmax_players = 42\ntick_rate_hz = 20\n"
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MapFile != "config/custom.json" || cfg.MaxPlayers != 42 || cfg.TickRateHz != 20 {
		t.Fatalf("unexpected parsed config: %+v", cfg)
	}
	// Unset fields keep their package defaults rather than zeroing out.
	if cfg.BrokerPort != DefaultServer().BrokerPort {
		t.Fatalf("expected unset broker_port to retain its default, got %d", cfg.BrokerPort)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("this is not = [valid toml"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a malformed config file to return an error")
	}
}

func TestEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("max_players = 5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("MOBA_MAX_PLAYERS", "777")
	t.Setenv("MOBA_CLIENT_ID", "override-client")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPlayers != 777 {
		t.Fatalf("expected env override to win over file value, got %d", cfg.MaxPlayers)
	}
	if cfg.ClientID != "override-client" {
		t.Fatalf("expected env override for client id, got %q", cfg.ClientID)
	}
}

func TestTickIntervalFromHz(t *testing.T) {
	cfg := ServerConfig{TickRateHz: 10}
	if got := cfg.TickInterval(); got.Milliseconds() != 100 {
		t.Fatalf("expected 100ms tick interval at 10hz, got %v", got)
	}
	zero := ServerConfig{TickRateHz: 0}
	if got := zero.TickInterval(); got.Milliseconds() != 100 {
		t.Fatalf("expected a zero tick rate to fall back to 100ms, got %v", got)
	}
}
