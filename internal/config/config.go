package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAgentPort is used when AGENT_PORT is not set.
const DefaultAgentPort = "5001"

// Config holds the client configuration loaded from environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	LogLevel           string        `mapstructure:"log_level"`
	AgentPort          string        `mapstructure:"agent_port"`
	AgentURL           string        `mapstructure:"agent_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "taskctl")
	v.SetDefault("log_level", "info")
	v.SetDefault("agent_port", DefaultAgentPort)
	v.SetDefault("agent_url", "")
	v.SetDefault("http_timeout_seconds", 60)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AgentPort = strings.TrimSpace(cfg.AgentPort)
	cfg.AgentURL = strings.TrimRight(strings.TrimSpace(cfg.AgentURL), "/")
	if cfg.AgentPort == "" {
		cfg.AgentPort = DefaultAgentPort
	}
	if cfg.AgentURL == "" {
		if err := validatePort(cfg.AgentPort); err != nil {
			return nil, err
		}
	}

	if cfg.HTTPTimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be zero or positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	return &cfg, nil
}

// BaseURL returns the coordinating server address every call is made against.
func (c *Config) BaseURL() string {
	if c.AgentURL != "" {
		return c.AgentURL
	}
	return "http://localhost:" + c.AgentPort
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid agent_port %q (must be 1-65535)", port)
	}
	return nil
}
