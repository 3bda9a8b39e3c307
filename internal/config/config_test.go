package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reader.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
exchange:
  ws_url: wss://testnet.binance.vision
  api_key: test-key
  api_secret: test-secret
  symbol: ETHUSDT
database:
  host: localhost
  port: 5432
  name: crypto
  user: reader
  password: readerpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Exchange.WSURL != "wss://testnet.binance.vision" {
		t.Errorf("Exchange.WSURL = %q, want %q", cfg.Exchange.WSURL, "wss://testnet.binance.vision")
	}
	if cfg.Exchange.Symbol != "ETHUSDT" {
		t.Errorf("Exchange.Symbol = %q, want %q", cfg.Exchange.Symbol, "ETHUSDT")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Password != "readerpass" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "readerpass")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  name: crypto
  user: reader
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  host: localhost
  user: reader
  password: readerpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Exchange.WSURL != DefaultWSURL {
		t.Errorf("Exchange.WSURL = %q, want default %q", cfg.Exchange.WSURL, DefaultWSURL)
	}
	if cfg.Exchange.Symbol != DefaultSymbol {
		t.Errorf("Exchange.Symbol = %q, want default %q", cfg.Exchange.Symbol, DefaultSymbol)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.Name != DefaultDBName {
		t.Errorf("Database.Name = %q, want default %q", cfg.Database.Name, DefaultDBName)
	}
	if cfg.Supervisor.PollInterval != time.Second {
		t.Errorf("Supervisor.PollInterval = %v, want 1s", cfg.Supervisor.PollInterval)
	}
	if cfg.Supervisor.Backoff != 60*time.Second {
		t.Errorf("Supervisor.Backoff = %v, want 60s", cfg.Supervisor.Backoff)
	}
	if cfg.Supervisor.Cooldown != 60*time.Second {
		t.Errorf("Supervisor.Cooldown = %v, want 60s", cfg.Supervisor.Cooldown)
	}
	if cfg.Stream.MaxReconnects != DefaultMaxReconnects {
		t.Errorf("Stream.MaxReconnects = %d, want default %d", cfg.Stream.MaxReconnects, DefaultMaxReconnects)
	}
	if cfg.Proxy.HTTP != "" || cfg.Proxy.HTTPS != "" {
		t.Errorf("Proxy = %+v, want empty by default", cfg.Proxy)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *ReaderConfig {
		cfg := &ReaderConfig{
			Database: DBConfig{
				Host:     "localhost",
				User:     "reader",
				Password: "readerpass",
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ReaderConfig)
	}{
		{name: "missing symbol", mutate: func(c *ReaderConfig) { c.Exchange.Symbol = "" }},
		{name: "missing ws url", mutate: func(c *ReaderConfig) { c.Exchange.WSURL = "" }},
		{name: "missing db host", mutate: func(c *ReaderConfig) { c.Database.Host = "" }},
		{name: "missing db password", mutate: func(c *ReaderConfig) { c.Database.Password = "" }},
		{name: "min conns above max", mutate: func(c *ReaderConfig) { c.Database.MinConns = 10 }},
		{name: "zero poll interval", mutate: func(c *ReaderConfig) { c.Supervisor.PollInterval = 0 }},
		{name: "bad health port", mutate: func(c *ReaderConfig) { c.Health.Port = 70000 }},
		{name: "bad log level", mutate: func(c *ReaderConfig) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
