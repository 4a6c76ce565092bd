package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// EventsURL returns the WebSocket endpoint, deriving it from the base URL
// when no explicit websocket_url is configured.
func (a *APIConfig) EventsURL() string {
	if a.WebSocketURL != "" {
		return a.WebSocketURL
	}
	u := a.BaseURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u
}

type AnalyticsConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheInterval time.Duration `mapstructure:"cache_cleanup_interval"`
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("analytics.cache_ttl", 15*time.Second)
	v.SetDefault("analytics.cache_cleanup_interval", time.Minute)
	v.SetDefault("logger.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
