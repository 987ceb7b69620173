package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.BaseQuoteSize != 100 {
		t.Fatalf("base quote size = %v, want default 100", cfg.Engine.BaseQuoteSize)
	}
	if cfg.Mode != "serve" {
		t.Fatalf("mode = %q, want serve", cfg.Mode)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hftsim.toml")
	data := `
mode = "sim"

[engine]
risk_aversion = 0.05

[server]
port = 9090
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("HFTSIM_SERVER_PORT", "7070")
	t.Setenv("HFTSIM_ENGINE_SPREAD_MULTIPLIER", "2.0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "sim" {
		t.Fatalf("mode = %q, want sim", cfg.Mode)
	}
	if cfg.Engine.RiskAversion != 0.05 {
		t.Fatalf("risk aversion = %v, want 0.05 from file", cfg.Engine.RiskAversion)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Engine.SpreadMultiplier != 2.0 {
		t.Fatalf("spread multiplier = %v, want env override 2.0", cfg.Engine.SpreadMultiplier)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Server.APIKey = "secret-key"
	cfg.Notify.TelegramToken = "bot-token"

	red := RedactedConfig(&cfg)
	if red.Redis.Password != "***" {
		t.Fatalf("redis password not redacted: %q", red.Redis.Password)
	}
	if red.Server.APIKey != "***" {
		t.Fatalf("api key not redacted: %q", red.Server.APIKey)
	}
	if red.Notify.TelegramToken != "***" {
		t.Fatalf("telegram token not redacted: %q", red.Notify.TelegramToken)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Fatal("original config mutated by redaction")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "turbo" }},
		{"zero depth", func(c *Config) { c.Engine.DefaultDepth = 0 }},
		{"negative slippage", func(c *Config) { c.Engine.MaxSlippage = -0.1 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
		{"s3 without postgres", func(c *Config) { c.S3.Enabled = true; c.S3.Bucket = "fills" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
