package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Content sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
	} `yaml:"server"`
	Telegram struct {
		Token        string `yaml:"token" env:"BOT_TOKEN"`
		Debug        bool   `yaml:"debug" env:"BOT_DEBUG"`
		PollTimeout  int    `yaml:"poll_timeout"`
		AssetsDir    string `yaml:"assets_dir" env:"ASSETS_DIR"`
		WelcomeImage string `yaml:"welcome_image"`
		DonateImage  string `yaml:"donate_image"`
		AboutText    string `yaml:"about_text"`
	} `yaml:"telegram"`
	Content struct {
		Source        string `yaml:"source" env:"CONTENT_SOURCE"`
		QuestionsPath string `yaml:"questions_path" env:"QUESTIONS_PATH"`
		OutcomesPath  string `yaml:"outcomes_path" env:"OUTCOMES_PATH"`
		CacheTTL      string `yaml:"cache_ttl"`
	} `yaml:"content"`
	Quiz struct {
		FallbackOutcome string `yaml:"fallback_outcome"`
		SessionTTL      string `yaml:"session_ttl"`
		ReaperInterval  string `yaml:"reaper_interval"`
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"SQLITE_PATH"`
	} `yaml:"sqlite"`
}

// Load reads YAML config from path, applies environment overrides and fills
// defaults for anything left empty.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, cfg.validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Content.Source == "" {
		cfg.Content.Source = SourceFile
	}
	if cfg.Content.QuestionsPath == "" {
		cfg.Content.QuestionsPath = "questions.json"
	}
	if cfg.Content.OutcomesPath == "" {
		cfg.Content.OutcomesPath = "character_results.json"
	}
	if cfg.Telegram.AssetsDir == "" {
		cfg.Telegram.AssetsDir = "assets"
	}
	if cfg.Telegram.WelcomeImage == "" {
		cfg.Telegram.WelcomeImage = "welcome.jpg"
	}
	if cfg.Telegram.DonateImage == "" {
		cfg.Telegram.DonateImage = "donate_qr.png"
	}
	if cfg.Telegram.PollTimeout <= 0 {
		cfg.Telegram.PollTimeout = 60
	}
	if cfg.Quiz.FallbackOutcome == "" {
		cfg.Quiz.FallbackOutcome = "Гарри Поттер"
	}
}

func (c Config) validate() error {
	switch c.Content.Source {
	case SourceFile:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("content source %q requires postgres.url", c.Content.Source)
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("content source %q requires sqlite.path", c.Content.Source)
		}
	default:
		return fmt.Errorf("unknown content source %q", c.Content.Source)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
