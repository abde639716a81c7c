// Package config loads runtime settings from an optional YAML file and
// CCPARSE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CCPARSE_SERVER_ADDR or CCPARSE_LOG_FILE.
const EnvPrefix = "CCPARSE"

// Config holds all runtime settings.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Rules  RulesConfig  `mapstructure:"rules"`
	Watch  WatchConfig  `mapstructure:"watch"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxUploadMB  int    `mapstructure:"max_upload_mb"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

// LogConfig configures the diagnostic log.
type LogConfig struct {
	File    string `mapstructure:"file"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// RulesConfig selects the issuer rule table. An empty file uses the built-in table.
type RulesConfig struct {
	File string `mapstructure:"file"`
}

// WatchConfig configures directory watch mode.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Out      string        `mapstructure:"out"`
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("log.file", "parser.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("rules.file", "")
	v.SetDefault("watch.debounce", "1s")
	v.SetDefault("watch.out", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path (if any) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Server.MaxUploadMB <= 0 {
		return nil, errors.Errorf("server.max_upload_mb must be positive, got %d", cfg.Server.MaxUploadMB)
	}
	if cfg.Watch.Debounce < 0 {
		return nil, errors.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	return &cfg, nil
}
