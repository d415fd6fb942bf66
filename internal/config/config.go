package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv                string
	HTTPPort              int
	GRPCEnabled           bool
	GRPCPort              int
	GRPCReflectionEnabled bool
	DBDriver              string
	DBPath                string
	LogFile               string
	HistoryLimit          int
	CORSAllowedOrigins    []string
	RateLimit             RateLimitConfig
	Redis                 RedisConfig
}

type RateLimitConfig struct {
	Backend     string
	MaxRequests int
	Window      time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", 5000)
	v.SetDefault("GRPC_ENABLED", true)
	v.SetDefault("GRPC_PORT", 50051)
	v.SetDefault("GRPC_REFLECTION_ENABLED", false)
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_PATH", "./data/cgpa.db")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("HISTORY_LIMIT", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
}

// LoadFromEnv loads configuration from environment variables, falling back
// to defaults for anything unset or unparsable.
func LoadFromEnv() *Config {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:                v.GetString("APP_ENV"),
		HTTPPort:              v.GetInt("HTTP_PORT"),
		GRPCEnabled:           v.GetBool("GRPC_ENABLED"),
		GRPCPort:              v.GetInt("GRPC_PORT"),
		GRPCReflectionEnabled: v.GetBool("GRPC_REFLECTION_ENABLED"),
		DBDriver:              v.GetString("DB_DRIVER"),
		DBPath:                v.GetString("DB_PATH"),
		LogFile:               v.GetString("LOG_FILE"),
		HistoryLimit:          v.GetInt("HISTORY_LIMIT"),
		CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimit: RateLimitConfig{
			Backend:     strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
			MaxRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:      v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
	}

	if cfg.HTTPPort <= 0 {
		cfg.HTTPPort = 5000
	}
	if cfg.GRPCPort <= 0 {
		cfg.GRPCPort = 50051
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		cfg.RateLimit.MaxRequests = 120
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}

	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
