package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected base url %s", cfg.API.BaseURL)
	}
	if cfg.Chain.ChainID != 31337 {
		t.Errorf("unexpected chain id %d", cfg.Chain.ChainID)
	}
	if cfg.Input.DebounceMS != 500 {
		t.Errorf("unexpected debounce %d", cfg.Input.DebounceMS)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
api:
  base_url: "http://book.internal:9000"
  book_poll_ms: 250
chain:
  bid_token: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OBCLIENT_RPC_URL", "http://chain.internal:8545")
	t.Setenv("OBCLIENT_PRIVATE_KEY", "deadbeef")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL != "http://book.internal:9000" || cfg.API.BookPollMS != 250 {
		t.Errorf("file values not applied: %+v", cfg.API)
	}
	// Defaults survive for keys the file omits.
	if cfg.API.OrdersPollMS != 2000 {
		t.Errorf("default orders poll lost: %d", cfg.API.OrdersPollMS)
	}
	if cfg.Chain.RPCURL != "http://chain.internal:8545" {
		t.Errorf("env override not applied: %s", cfg.Chain.RPCURL)
	}
	if cfg.Chain.PrivateKey != "deadbeef" {
		t.Error("private key env override not applied")
	}
}

func TestLoadConfig_LiveModeFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	t.Setenv("OBCLIENT_MODE", "live")

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected LIVE without key to fail validation")
	}

	t.Setenv("OBCLIENT_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Chain.Mode != ModeLive {
		t.Errorf("expected LIVE, got %s", cfg.Chain.Mode)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Bad API URL", func(c *Config) { c.API.BaseURL = "ftp://x" }},
		{"Bad RPC URL", func(c *Config) { c.Chain.RPCURL = "localhost:8545" }},
		{"Zero poll", func(c *Config) { c.API.BalancesPollMS = 0 }},
		{"Zero debounce", func(c *Config) { c.Input.DebounceMS = 0 }},
		{"Bad token", func(c *Config) { c.Chain.AskToken = "0x123" }},
		{"Missing rollup", func(c *Config) { c.Chain.Rollup = "" }},
		{"Bad session address", func(c *Config) { c.Session.Address = "alice" }},
		{"Bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"Unknown mode", func(c *Config) { c.Chain.Mode = "PAPER" }},
		{"Live without key", func(c *Config) { c.Chain.Mode = ModeLive }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
