package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "CLASSROOM"
	DefaultSecret = "default-secret-change-in-production"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	LogLevel       string        `mapstructure:"log_level"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	VerifyTimeout  time.Duration `mapstructure:"verify_timeout"`
	Secret         string        `mapstructure:"secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	JWTRequireExp  bool          `mapstructure:"jwt_require_exp"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      int           `mapstructure:"rate_limit"`
	RateInterval   time.Duration `mapstructure:"rate_interval"`
	Backpressure   string        `mapstructure:"backpressure"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("verify_timeout", "3s")
	v.SetDefault("secret", DefaultSecret)
	v.SetDefault("jwt_issuer", "")
	v.SetDefault("jwt_require_exp", false)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_interval", "1s")
	v.SetDefault("backpressure", "kick")
}

// Load reads config/config.<env>.yaml (optional), CLASSROOM_* environment
// variables, an optional config/.env.<env> file and any changed flags, in
// increasing order of precedence. env defaults to CONFIG_ENV, then "dev".
func Load(env string, flags *pflag.FlagSet) (*Config, error) {
	if env == "" {
		env = os.Getenv("CONFIG_ENV")
	}
	if env == "" {
		env = "dev"
	}

	dotEnv := filepath.Join("config", ".env."+strings.ToLower(env))
	if err := godotenv.Load(dotEnv); err == nil {
		log.Info().Str("module", "config").Str("file", dotEnv).Msg("loaded env file")
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotEnv, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	fileName := filepath.Join("config", fmt.Sprintf("config.%s.yaml", env))
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
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
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("config: secret is required")
	}
	if c.Mode == "release" && c.Secret == DefaultSecret {
		return errors.New("config: secret must be set in release mode")
	}
	if c.PingPeriod <= 0 || c.PongWait <= c.PingPeriod {
		return fmt.Errorf("config: ping_period (%s) must be positive and shorter than pong_wait (%s)", c.PingPeriod, c.PongWait)
	}
	if c.WriteWait <= 0 || c.VerifyTimeout <= 0 {
		return errors.New("config: write_wait and verify_timeout must be positive")
	}
	if c.SendBuffer <= 0 || c.ReadLimit <= 0 {
		return errors.New("config: send_buffer and read_limit must be positive")
	}
	if c.RateLimit <= 0 || c.RateInterval <= 0 {
		return errors.New("config: rate_limit and rate_interval must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Backpressure)) {
	case "", "kick", "drop":
	default:
		return fmt.Errorf("config: backpressure must be kick or drop, got %q", c.Backpressure)
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// OriginAllowed reports whether a browser origin may open a connection.
// Requests without an Origin header are non-browser clients and allowed.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
