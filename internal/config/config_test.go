package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9000\njwt:\n  secret: from-file\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "salescrm.db" {
		t.Fatalf("dsn default = %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("log level default = %q", cfg.Logging.Level)
	}

	t.Setenv("SALESCRM_DSN", "file:other.db")
	t.Setenv("SALESCRM_PORT", "9100")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.Database.DSN != "file:other.db" {
		t.Fatalf("dsn override = %q", cfg.Database.DSN)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("port override = %d", cfg.Server.Port)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected an error without a jwt secret")
	}

	t.Setenv("SALESCRM_JWT_SECRET", "from-env")
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Fatalf("secret = %q", cfg.JWT.Secret)
	}
}

func TestJWTExpiryDefault(t *testing.T) {
	var j JWTConfig
	if j.Expiry() != 12*time.Hour {
		t.Fatalf("default expiry = %v", j.Expiry())
	}
	j.ExpiryMinutes = 30
	if j.Expiry() != 30*time.Minute {
		t.Fatalf("expiry = %v", j.Expiry())
	}
}

func TestServerAddr(t *testing.T) {
	var s ServerConfig
	if s.Addr() != ":8318" {
		t.Fatalf("default addr = %q", s.Addr())
	}
	s.Host = "127.0.0.1"
	s.Port = 9000
	if s.Addr() != "127.0.0.1:9000" {
		t.Fatalf("addr = %q", s.Addr())
	}
}
