package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type RoomConfig struct {
	ID    string `mapstructure:"id"`
	Label string `mapstructure:"label"`
}

type SummaryConfig struct {
	URL     string        `mapstructure:"url"`
	Key     string        `mapstructure:"key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Window  int           `mapstructure:"window"`
}

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	Secret        string        `mapstructure:"secret"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	HistoryLimit  int           `mapstructure:"history_limit"`
	Rooms         []RoomConfig  `mapstructure:"rooms"`
	Summary       SummaryConfig `mapstructure:"summary"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("allowed_origin", "*")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("history_limit", 200)
	v.SetDefault("rooms", []map[string]any{
		{"id": "engineering", "label": "Engineering"},
		{"id": "science", "label": "Science"},
		{"id": "careers", "label": "Careers"},
		{"id": "wellness", "label": "Wellness"},
	})
	v.SetDefault("summary.url", "")
	v.SetDefault("summary.timeout", "10s")
	v.SetDefault("summary.window", 40)

	// The agent credential never lives in the config file.
	_ = v.BindEnv("summary.key", "PEERCHAT_SUMMARY_KEY")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Rooms: %d\n", cfg.Mode, cfg.Port, len(cfg.Rooms))
	return &cfg, nil
}
