package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateConfig struct {
	Requests int           `mapstructure:"requests" validate:"gt=0"`
	Window   time.Duration `mapstructure:"window" validate:"gt=0"`
}

type EventRateConfig struct {
	Events int           `mapstructure:"events" validate:"gt=0"`
	Window time.Duration `mapstructure:"window" validate:"gt=0"`
}

type Config struct {
	Mode           string   `mapstructure:"mode" validate:"oneof=debug release test"`
	Port           int      `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
	Secret         string   `mapstructure:"secret" validate:"required"`

	ReadLimit  int64         `mapstructure:"read_limit" validate:"gt=0"`
	SendBuffer int           `mapstructure:"send_buffer" validate:"gt=0"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	PongWait   time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingPeriod"`
	WriteWait  time.Duration `mapstructure:"write_wait" validate:"gt=0"`

	HTTPRate  RateConfig      `mapstructure:"http_rate"`
	EventRate EventRateConfig `mapstructure:"event_rate"`

	SlowConsumer    string        `mapstructure:"slow_consumer" validate:"oneof=kick drop"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default), then the
// environment on top of it.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file is not an error;
// defaults and the environment still apply.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Bare names used by container platforms.
	_ = v.BindEnv("port", "LOBBY_PORT", "PORT")
	_ = v.BindEnv("allowed_origins", "LOBBY_ALLOWED_ORIGINS", "CLIENT_URL")

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Strs("origins", cfg.AllowedOrigins).
		Str("slow_consumer", cfg.SlowConsumer).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("secret", "change-me")
	v.SetDefault("read_limit", 4096)
	v.SetDefault("send_buffer", 32)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("http_rate.requests", 100)
	v.SetDefault("http_rate.window", "1m")
	v.SetDefault("event_rate.events", 20)
	v.SetDefault("event_rate.window", "10s")
	v.SetDefault("slow_consumer", "kick")
	v.SetDefault("shutdown_timeout", "5s")
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid config: log_level: %w", err)
	}
	return nil
}

// Level is the parsed log_level; Validate guarantees it parses.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
