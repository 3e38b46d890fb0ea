package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Auth    AuthConfig    `json:"auth"`
	Routing RoutingConfig `json:"routing"`
	Local   BackendConfig `json:"local"`
	Cloud   BackendConfig `json:"cloud"`
	Breaker BreakerConfig `json:"breaker"`
	Stats   StatsConfig   `json:"stats"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type AuthConfig struct {
	// Token is the static bearer token the AuthGate checks. Empty
	// disables the gate.
	Token string `json:"token"`
}

type RoutingConfig struct {
	DefaultMode         string  `json:"default_mode"`
	MaxLocalTokens      int     `json:"max_local_tokens"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

type BackendConfig struct {
	BaseURL string        `json:"base_url,omitempty"`
	APIKey  string        `json:"api_key,omitempty"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

type BreakerConfig struct {
	FailureThreshold  int           `json:"failure_threshold"`
	LocalResetTimeout time.Duration `json:"local_reset_timeout"`
	CloudResetTimeout time.Duration `json:"cloud_reset_timeout"`
}

type StatsConfig struct {
	HistorySize int `json:"history_size"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".lfo"))
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus env overrides are enough
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("routing.default_mode", "auto")
	viper.SetDefault("routing.max_local_tokens", 1500)
	viper.SetDefault("routing.confidence_threshold", 0.7)

	viper.SetDefault("local.base_url", "http://localhost:11434")
	viper.SetDefault("local.model", "llama3.2")
	viper.SetDefault("local.timeout", 30*time.Second)

	viper.SetDefault("cloud.model", "gpt-4o-mini")
	viper.SetDefault("cloud.timeout", 60*time.Second)

	viper.SetDefault("breaker.failure_threshold", 3)
	// The cloud reset is longer on purpose: it tracks typical
	// provider rate-limit windows.
	viper.SetDefault("breaker.local_reset_timeout", 30*time.Second)
	viper.SetDefault("breaker.cloud_reset_timeout", 60*time.Second)

	viper.SetDefault("stats.history_size", 50)
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("LFO_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("LFO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if token := os.Getenv("LFO_AUTH_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if url := os.Getenv("LFO_LOCAL_URL"); url != "" {
		cfg.Local.BaseURL = url
	}
	if model := os.Getenv("LFO_LOCAL_MODEL"); model != "" {
		cfg.Local.Model = model
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Cloud.APIKey = key
	}
	if model := os.Getenv("LFO_CLOUD_MODEL"); model != "" {
		cfg.Cloud.Model = model
	}
}
