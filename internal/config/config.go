package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	S3       S3Config
	Workflow WorkflowConfig
	LogLevel string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

// DatabaseConfig holds PostgreSQL connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection URL
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string
}

// S3Config holds S3 connection details
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional, for MinIO or other S3-compatible services
}

// Enabled reports whether evidence uploads can be stored
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// WorkflowConfig tunes the task engine
type WorkflowConfig struct {
	RuleCacheTTL          time.Duration
	QuotaLocation         *time.Location
	EvidenceRetentionDays int
	EvidencePruneSchedule string
}

// EvidenceRetention is how long dedup sightings are kept
func (w WorkflowConfig) EvidenceRetention() time.Duration {
	return time.Duration(w.EvidenceRetentionDays) * 24 * time.Hour
}

// Load reads configs/.env when present, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
		},
		Workflow: WorkflowConfig{
			EvidencePruneSchedule: getEnv("EVIDENCE_PRUNE_SCHEDULE", "0 30 3 * * *"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWT.Secret = "default_super_secret_key"
	}

	ttl, err := time.ParseDuration(getEnv("RULE_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RULE_CACHE_TTL: %w", err)
	}
	cfg.Workflow.RuleCacheTTL = ttl

	loc, err := time.LoadLocation(getEnv("QUOTA_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE: %w", err)
	}
	cfg.Workflow.QuotaLocation = loc

	days, err := strconv.Atoi(getEnv("EVIDENCE_RETENTION_DAYS", "90"))
	if err != nil || days < 0 {
		return nil, fmt.Errorf("invalid EVIDENCE_RETENTION_DAYS: %q", os.Getenv("EVIDENCE_RETENTION_DAYS"))
	}
	cfg.Workflow.EvidenceRetentionDays = days

	if cfg.S3.Enabled() && (cfg.S3.AccessKeyID == "" || cfg.S3.SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when S3_BUCKET is set")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
