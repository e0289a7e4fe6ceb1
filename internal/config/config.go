package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App   App   `yaml:"app"`
	HTTP  HTTP  `yaml:"http"`
	Log   Log   `yaml:"log"`
	Kafka Kafka `yaml:"kafka"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"eventd"`
}

type HTTP struct {
	Addr         string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES" env-default:"1048576"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Kafka is optional: the consumer only runs when Brokers is set.
type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic      string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"events"`
	ReplyTopic string   `yaml:"reply_topic" env:"KAFKA_REPLY_TOPIC" env-default:"events.replies"`
	GroupID    string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"eventd"`
}

// Load reads path and lets environment variables override it. When path
// does not exist, configuration comes from the environment alone. A file
// that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

// Enabled reports whether brokers are configured.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

// SlogLevel maps Level to a slog level, defaulting to info.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
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
