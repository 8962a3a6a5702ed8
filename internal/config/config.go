package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Chain     ChainConfig     `yaml:"chain"`
	ScoreFeed ScoreFeedConfig `yaml:"score_feed"`
	Events    EventsConfig    `yaml:"events"`
	Dominance DominanceConfig `yaml:"dominance"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type ChainConfig struct {
	URL    string `yaml:"url"`
	Netuid int    `yaml:"netuid"`
}

type ScoreFeedConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	TopN  int    `yaml:"top_n"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type DominanceConfig struct {
	ErrorRateReduction float64 `yaml:"error_rate_reduction"`
	MinImprovement     float64 `yaml:"min_improvement"`
	MaxImprovement     float64 `yaml:"max_improvement"`
	MinCompleteness    float64 `yaml:"min_completeness"`
	CacheSize          int     `yaml:"cache_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Chain: ChainConfig{
			URL:    "http://localhost:9944",
			Netuid: 120,
		},
		ScoreFeed: ScoreFeedConfig{
			URL:  "http://localhost:8100",
			TopN: 256,
		},
		Dominance: DominanceConfig{
			ErrorRateReduction: 0.2,
			MinImprovement:     0.02,
			MaxImprovement:     0.1,
			MinCompleteness:    0.95,
			CacheSize:          10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FRONTIER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FRONTIER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FRONTIER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FRONTIER_CHAIN_URL"); v != "" {
		cfg.Chain.URL = v
	}
	if v := os.Getenv("FRONTIER_NETUID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chain.Netuid = n
		}
	}
	if v := os.Getenv("FRONTIER_FEED_URL"); v != "" {
		cfg.ScoreFeed.URL = v
	}
	if v := os.Getenv("FRONTIER_FEED_TOKEN"); v != "" {
		cfg.ScoreFeed.Token = v
	}
	if v := os.Getenv("FRONTIER_FEED_TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ScoreFeed.TopN = n
		}
	}
	if v := os.Getenv("FRONTIER_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("FRONTIER_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dominance.CacheSize = n
		}
	}
	if v := os.Getenv("FRONTIER_MIN_COMPLETENESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Dominance.MinCompleteness = f
		}
	}
	if v := os.Getenv("FRONTIER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
