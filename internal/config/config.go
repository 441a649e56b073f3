// Package config loads process configuration from the environment.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the server configuration. Empty DATABASE_URL, REDIS_URL,
// KAFKA_BROKERS or GEMINI_API_KEY disable the corresponding integration.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string        `env:"DATABASE_URL"`
	RedisURL    string        `env:"REDIS_URL"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTickTopic   string   `env:"KAFKA_TICK_TOPIC" envDefault:"bharatvest.ticks"`
	KafkaTradeTopic  string   `env:"KAFKA_TRADE_TOPIC" envDefault:"bharatvest.trades"`
	KafkaIntentTopic string   `env:"KAFKA_INTENT_TOPIC" envDefault:"bharatvest.trade-intents"`
	KafkaGroupID     string   `env:"KAFKA_GROUP_ID" envDefault:"sim-engine"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	TickInterval    time.Duration `env:"TICK_INTERVAL" envDefault:"3s"`
	StatusInterval  time.Duration `env:"STATUS_INTERVAL" envDefault:"60s"`
	ChangeBasis     string        `env:"CHANGE_BASIS" envDefault:"reference"`
	SimSeed         uint64        `env:"SIM_SEED"`
	CategorizeQuiet time.Duration `env:"CATEGORIZE_QUIET" envDefault:"1s"`
}

func Load() (Config, error) {
	var cfg Config
	return cfg, env.Parse(&cfg)
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
