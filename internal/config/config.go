package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	CORSOrigins       []string `mapstructure:"cors_origins"`
	AnonymousRedirect string   `mapstructure:"anonymous_redirect"`

	GracePeriod          time.Duration `mapstructure:"grace_period"`
	ReconcileInterval    time.Duration `mapstructure:"reconcile_interval"`
	ReconcileMaxAttempts int           `mapstructure:"reconcile_max_attempts"`
	SlowConsumerPolicy   string        `mapstructure:"slow_consumer_policy"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Roster    RosterConfig    `mapstructure:"roster"`
	Log       LogConfig       `mapstructure:"log"`
}

type RateLimitConfig struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

// RosterConfig selects the durable room store backend.
type RosterConfig struct {
	Driver    string        `mapstructure:"driver"` // none | sqlite | redis | postgres | http
	DSN       string        `mapstructure:"dsn"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	QueueSize int           `mapstructure:"queue_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "dev-secret-change")

	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("anonymous_redirect", "/rooms")

	v.SetDefault("grace_period", "3s")
	v.SetDefault("reconcile_interval", "1s")
	v.SetDefault("reconcile_max_attempts", 0)
	v.SetDefault("slow_consumer_policy", "drop")

	v.SetDefault("rate_limit.events", 50)
	v.SetDefault("rate_limit.interval", "1s")

	v.SetDefault("roster.driver", "none")
	v.SetDefault("roster.dsn", "")
	v.SetDefault("roster.url", "")
	v.SetDefault("roster.timeout", "2s")
	v.SetDefault("roster.queue_size", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config/config.<CONFIG_ENV>.yaml when present; CLIQUE_* env
// variables override file values (roster.dsn -> CLIQUE_ROSTER_DSN).
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

	v.SetEnvPrefix("CLIQUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("roster", cfg.Roster.Driver).Dur("grace_period", cfg.GracePeriod).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod)
	}
	if c.ReconcileInterval <= 0 {
		return fmt.Errorf("reconcile_interval must be positive, got %s", c.ReconcileInterval)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.ReconcileMaxAttempts < 0 {
		return fmt.Errorf("reconcile_max_attempts must not be negative, got %d", c.ReconcileMaxAttempts)
	}
	return nil
}
