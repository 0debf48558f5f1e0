package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_RECOGNIZER_TIMEOUT", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 5<<20 {
		t.Errorf("Server.MaxUploadBytes = %d, want %d", cfg.Server.MaxUploadBytes, 5<<20)
	}
	if cfg.Recognizer.Timeout != 5*time.Second {
		t.Errorf("Recognizer.Timeout = %v, want 5s", cfg.Recognizer.Timeout)
	}
	if cfg.Recognizer.ExtractPath != "/v1/faces/extract" || cfg.Recognizer.MatchPath != "/v1/faces/match" {
		t.Errorf("unexpected recognizer paths: %q %q", cfg.Recognizer.ExtractPath, cfg.Recognizer.MatchPath)
	}
	if cfg.JWT.TTL != 7*24*time.Hour {
		t.Errorf("JWT.TTL = %v, want 168h", cfg.JWT.TTL)
	}
	if cfg.JWT.CookieName != "auth_session" {
		t.Errorf("JWT.CookieName = %q, want auth_session", cfg.JWT.CookieName)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9000
recognizer:
  base_url: http://recognizer:5000
  timeout: 3s
minio:
  prefix: from-file
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("APP_PORT", "9100")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("APP_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_MINIO_PREFIX", "staging")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Recognizer.BaseURL != "http://recognizer:5000" {
		t.Errorf("Recognizer.BaseURL = %q", cfg.Recognizer.BaseURL)
	}
	if cfg.Recognizer.Timeout != 3*time.Second {
		t.Errorf("Recognizer.Timeout = %v, want 3s", cfg.Recognizer.Timeout)
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, want from-env", cfg.JWT.Secret)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.MinIO.Prefix != "staging" || cfg.MinIO.Bucket != "face-enrollments" {
		t.Errorf("MinIO = %+v, want env prefix and default bucket", cfg.MinIO)
	}
}

func TestLoadRejectsMissingSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for production without jwt secret")
	}
}
