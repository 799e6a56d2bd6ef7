package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
server:
  port: 9090

db:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: stride_alice

digest:
  cron: "30 6 * * *"
`

const minimalYAML = `
server:
  port: 8081
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.DB.Driver != "mysql" {
		t.Errorf("DB.Driver = %q, want mysql", cfg.DB.Driver)
	}
	if cfg.DB.Host != "10.0.0.5" {
		t.Errorf("DB.Host = %q, want 10.0.0.5", cfg.DB.Host)
	}
	if cfg.DB.Port != 3307 {
		t.Errorf("DB.Port = %d, want 3307", cfg.DB.Port)
	}
	if cfg.DB.Database != "stride_alice" {
		t.Errorf("DB.Database = %q, want stride_alice", cfg.DB.Database)
	}
	if cfg.Digest.Cron != "30 6 * * *" {
		t.Errorf("Digest.Cron = %q, want 30 6 * * *", cfg.Digest.Cron)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("DB.Driver = %q, want sqlite default", cfg.DB.Driver)
	}
	if cfg.DB.Path != "stride.db" {
		t.Errorf("DB.Path = %q, want stride.db default", cfg.DB.Path)
	}
	if cfg.Digest.Cron != "0 0 * * *" {
		t.Errorf("Digest.Cron = %q, want midnight default", cfg.Digest.Cron)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte("db:\n  driver: mysql\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Host != "127.0.0.1" || cfg.DB.Port != 3306 || cfg.DB.Database != "stride" {
		t.Errorf("mysql defaults = %+v", cfg.DB)
	}
}

func TestParse_UnknownDriver(t *testing.T) {
	_, err := Parse([]byte("db:\n  driver: mongo\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "db.driver") {
		t.Errorf("error %q does not mention db.driver", err)
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("server: [not a map"))
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stride.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Database != "stride_alice" {
		t.Errorf("DB.Database = %q, want stride_alice", cfg.DB.Database)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 || cfg.DB.Driver != "sqlite" {
		t.Errorf("Default() = %+v", cfg)
	}
}
