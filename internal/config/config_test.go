package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	// Point at a directory with no config file so only defaults and env apply.
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis.addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
	if cfg.Storage.OriginalBucket != "memes-original" ||
		cfg.Storage.ThumbnailBucket != "memes-thumbnails" ||
		cfg.Storage.CompressedBucket != "memes-compressed" {
		t.Errorf("bucket defaults = %q/%q/%q", cfg.Storage.OriginalBucket,
			cfg.Storage.ThumbnailBucket, cfg.Storage.CompressedBucket)
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Errorf("auth.access_ttl = %v, want 1h", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 7*24*time.Hour {
		t.Errorf("auth.refresh_ttl = %v, want 168h", cfg.Auth.RefreshTTL)
	}
	if cfg.Upload.MaxFileSizeMB != 10 {
		t.Errorf("upload.max_file_size_mb = %d, want 10", cfg.Upload.MaxFileSizeMB)
	}
	if cfg.Upload.ListCacheTTL != 5*time.Minute {
		t.Errorf("upload.list_cache_ttl = %v, want 5m", cfg.Upload.ListCacheTTL)
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("jwt secret not bound from environment")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  mode: release
database:
  driver: postgres
  host: db.internal
  port: 5433
  user: svc
  name: memes
upload:
  max_file_size_mb: 25
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.Mode != "release" {
		t.Errorf("server = %+v, want port 9090 release", cfg.Server)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("database.driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Upload.MaxFileSizeMB != 25 {
		t.Errorf("upload.max_file_size_mb = %d, want 25", cfg.Upload.MaxFileSizeMB)
	}

	dsn := cfg.Database.DSN()
	want := "host=db.internal port=5433 user=svc password= dbname=memes sslmode=disable"
	if dsn != want {
		t.Errorf("DSN = %q, want %q", dsn, want)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load must fail without a JWT secret")
	}
}

func TestSQLiteDSN(t *testing.T) {
	cfg := DatabaseConfig{Driver: "sqlite", Path: "./data/test.db"}
	if got := cfg.DSN(); got != "./data/test.db" {
		t.Errorf("DSN = %q, want the sqlite path", got)
	}
}
