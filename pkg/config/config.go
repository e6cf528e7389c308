package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Export     ExportConfig
	Compliance ComplianceConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExportConfig governs the asynchronous export pipeline. BatchSize and
// ResultTTL are empirical constants, kept configurable on purpose.
type ExportConfig struct {
	StorageDir        string
	BatchSize         int
	ResultTTL         time.Duration
	SweepInterval     time.Duration
	WorkerConcurrency int
	QueueBuffer       int
}

// ComplianceConfig governs the subject-data export variant. Retention is
// longer than regular exports by regulatory requirement.
type ComplianceConfig struct {
	StorageDir      string
	SignedURLSecret string
	ResultTTL       time.Duration
	SweepInterval   time.Duration
}

// CacheConfig tunes read-through caching of export metadata.
type CacheConfig struct {
	Enabled   bool
	StatusTTL time.Duration
	FieldsTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Export = ExportConfig{
		StorageDir:        v.GetString("EXPORT_STORAGE_DIR"),
		BatchSize:         v.GetInt("EXPORT_BATCH_SIZE"),
		ResultTTL:         parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		SweepInterval:     parseDuration(v.GetString("EXPORT_SWEEP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORT_WORKER_CONCURRENCY"),
		QueueBuffer:       v.GetInt("EXPORT_QUEUE_BUFFER"),
	}

	cfg.Compliance = ComplianceConfig{
		StorageDir:      v.GetString("COMPLIANCE_STORAGE_DIR"),
		SignedURLSecret: v.GetString("COMPLIANCE_SIGNED_URL_SECRET"),
		ResultTTL:       parseDuration(v.GetString("COMPLIANCE_RESULT_TTL"), 7*24*time.Hour),
		SweepInterval:   parseDuration(v.GetString("COMPLIANCE_SWEEP_INTERVAL"), 6*time.Hour),
	}

	cfg.Cache = CacheConfig{
		Enabled:   v.GetBool("ENABLE_CACHE"),
		StatusTTL: parseDuration(v.GetString("CACHE_STATUS_TTL"), 5*time.Second),
		FieldsTTL: parseDuration(v.GetString("CACHE_FIELDS_TTL"), time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "relatia_crm")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXPORT_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORT_BATCH_SIZE", 1000)
	v.SetDefault("EXPORT_RESULT_TTL", "24h")
	v.SetDefault("EXPORT_SWEEP_INTERVAL", "1h")
	v.SetDefault("EXPORT_WORKER_CONCURRENCY", 2)
	v.SetDefault("EXPORT_QUEUE_BUFFER", 32)

	v.SetDefault("COMPLIANCE_STORAGE_DIR", "./compliance-exports")
	v.SetDefault("COMPLIANCE_SIGNED_URL_SECRET", "dev_compliance_secret")
	v.SetDefault("COMPLIANCE_RESULT_TTL", "168h")
	v.SetDefault("COMPLIANCE_SWEEP_INTERVAL", "6h")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_STATUS_TTL", "5s")
	v.SetDefault("CACHE_FIELDS_TTL", "1h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
