package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Growth    GrowthConfig    `yaml:"growth"`
	Quota     QuotaConfig     `yaml:"quota"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GrowthConfig holds the growth strategy parameters: which platforms to
// drive, the operating mode, and the heuristic constants used in growth
// estimates. The follow-back rate was a hardcoded draw in earlier builds;
// it is a tunable here.
type GrowthConfig struct {
	Platforms            []string `yaml:"platforms"`
	Mode                 string   `yaml:"mode"`
	FollowBackRate       float64  `yaml:"follow_back_rate"`
	EngagementWindowDays int      `yaml:"engagement_window_days"`
	JitterEnabled        bool     `yaml:"jitter_enabled"`
}

// QuotaConfig selects the rate-limit backend and allows per-platform
// budget overrides of the built-in table.
type QuotaConfig struct {
	// Backend is "memory" (default, single process) or "redis"
	Backend string `yaml:"backend"`
	// Overrides maps "platform.action" to an hourly budget, e.g.
	// "instagram.follow: 15"
	Overrides map[string]int `yaml:"overrides"`
}

// RedisConfig holds the Redis connection for the distributed quota backend
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds the Postgres connection for campaign/action storage.
// When URL is empty the in-memory repository is used.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds job-record persistence settings
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// SchedulerConfig holds background scheduler settings
type SchedulerConfig struct {
	Enabled             bool `yaml:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	if len(cfg.Growth.Platforms) == 0 {
		cfg.Growth.Platforms = []string{"instagram", "twitter"}
	}
	if cfg.Growth.Mode == "" {
		cfg.Growth.Mode = "moderate"
	}
	if cfg.Growth.FollowBackRate == 0 {
		// Midpoint of the 10-30% follow-back range observed in practice
		cfg.Growth.FollowBackRate = 0.2
	}
	if cfg.Growth.EngagementWindowDays == 0 {
		cfg.Growth.EngagementWindowDays = 3
	}
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = "memory"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Scheduler.TickIntervalSeconds == 0 {
		cfg.Scheduler.TickIntervalSeconds = 60
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = Default()
	}

	// Override with environment variables if present
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
		if cfg.Quota.Backend == "memory" {
			cfg.Quota.Backend = "redis"
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("GROWTH_MODE"); v != "" {
		cfg.Growth.Mode = v
	}
	if v := os.Getenv("GROWTH_PLATFORMS"); v != "" {
		cfg.Growth.Platforms = strings.Split(v, ",")
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	return cfg, nil
}
