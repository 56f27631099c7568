package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// process start and treated as immutable afterwards.
type Config struct {
	MaxMind MaxMindConfig `yaml:"maxmind" mapstructure:"maxmind"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// MaxMindConfig holds minFraud service credentials and request defaults.
type MaxMindConfig struct {
	LicenseKey        string  `yaml:"license_key" mapstructure:"license_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestedType     string  `yaml:"requested_type" mapstructure:"requested_type"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	RateBurst         int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// Timeout returns the request timeout as a duration.
func (c MaxMindConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StoreConfig configures the local check-history database. An empty path
// disables persistence.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the scoring HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FRAUDCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The empty license_key default also registers the key with
	// viper so FRAUDCHECK_MAXMIND_LICENSE_KEY binds without a config file.
	v.SetDefault("maxmind.license_key", "")
	v.SetDefault("maxmind.base_url", "https://minfraud.maxmind.com")
	v.SetDefault("maxmind.requested_type", "standard")
	v.SetDefault("maxmind.timeout_secs", 30)
	v.SetDefault("maxmind.requests_per_second", 0)
	v.SetDefault("maxmind.rate_burst", 1)
	v.SetDefault("store.path", "fraudcheck.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is sufficient for the given
// command mode. Problems are collected so one run reports them all.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "check", "batch", "serve":
		if c.MaxMind.LicenseKey == "" {
			problems = append(problems, "maxmind.license_key is required (FRAUDCHECK_MAXMIND_LICENSE_KEY)")
		}
	case "history":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}
	if c.MaxMind.TimeoutSecs <= 0 {
		problems = append(problems, "maxmind.timeout_secs must be > 0")
	}
	if c.MaxMind.RequestsPerSecond < 0 {
		problems = append(problems, "maxmind.requests_per_second must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
