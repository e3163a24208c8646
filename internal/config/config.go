package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken      string        `envconfig:"BOT_TOKEN"` // required by the bot, not by the CLI
	DBPath        string        `envconfig:"DB_PATH" default:"./data/pillulu.db"`
	DefaultTZ     string        `envconfig:"DEFAULT_TZ" default:"America/New_York"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	LogFile       string        `envconfig:"LOG_FILE"`                 // optional rotated copy of the log
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	TrustProxy    bool          `envconfig:"TRUST_PROXY" default:"false"` // honour X-Forwarded-For
	RefreshPeriod time.Duration `envconfig:"REFRESH_PERIOD" default:"1s"`
	SnapshotPoll  time.Duration `envconfig:"SNAPSHOT_POLL" default:"30s"`
	ChatID        int64         `envconfig:"CHAT_ID" default:"0"` // pillbox owner for the CLI
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
