// Package config loads service configuration from an optional YAML file, an optional
// .env file, and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvironmentProduction = "production"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	JWT        JWTConfig        `yaml:"jwt"`
	NATS       NATSConfig       `yaml:"nats"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	GRPCPort        int           `yaml:"grpc_port"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Production reports whether the service runs in the production environment.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Environment, EnvironmentProduction)
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	ResultTTL time.Duration `yaml:"result_ttl"`
}

type RecognizerConfig struct {
	BaseURL     string        `yaml:"base_url"`
	ExtractPath string        `yaml:"extract_path"`
	MatchPath   string        `yaml:"match_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Audience   string        `yaml:"audience"`
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
}

// NATSConfig is optional; an empty URL disables check-in event publishing.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// MinIOConfig is optional; an empty endpoint disables enrollment photo archiving.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads config from the YAML file at path (a missing file is not an error), then
// applies .env and environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Production() && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		return errors.New("jwt secret must be set in production")
	}
	if c.Recognizer.Timeout <= 0 {
		return errors.New("recognizer timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}
	return nil
}

const defaultJWTSecret = "dev-secret"

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = 9090
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 5 << 20
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "host=postgres user=postgres password=postgres dbname=attendance port=5432 sslmode=disable"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "redis:6379"
	}
	if cfg.Redis.ResultTTL == 0 {
		cfg.Redis.ResultTTL = 5 * time.Minute
	}
	if cfg.Recognizer.BaseURL == "" {
		cfg.Recognizer.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Recognizer.ExtractPath == "" {
		cfg.Recognizer.ExtractPath = "/v1/faces/extract"
	}
	if cfg.Recognizer.MatchPath == "" {
		cfg.Recognizer.MatchPath = "/v1/faces/match"
	}
	if cfg.Recognizer.Timeout == 0 {
		cfg.Recognizer.Timeout = 5 * time.Second
	}
	if cfg.JWT.Secret == "" && !cfg.Server.Production() {
		cfg.JWT.Secret = defaultJWTSecret
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 7 * 24 * time.Hour
	}
	if cfg.JWT.CookieName == "" {
		cfg.JWT.CookieName = "auth_session"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "face-enrollments"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("APP_GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.GRPCPort = port
		}
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("APP_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("APP_RECOGNIZER_URL"); v != "" {
		cfg.Recognizer.BaseURL = v
	}
	if v := os.Getenv("APP_RECOGNIZER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognizer.Timeout = d
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		cfg.JWT.Audience = v
	}
	if v := os.Getenv("APP_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("APP_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("APP_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("APP_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("APP_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("APP_MINIO_PREFIX"); v != "" {
		cfg.MinIO.Prefix = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
