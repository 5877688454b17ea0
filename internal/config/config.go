package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Mode           string   `yaml:"mode"` // gin mode: debug, release, test
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"` // development or production
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret  string `yaml:"jwtSecret"`
		SessionTTL string `yaml:"sessionTTL"`
	} `yaml:"auth"`
	Play struct {
		Retention     string `yaml:"retention"`
		SweepInterval string `yaml:"sweepInterval"`
	} `yaml:"play"`
	Leaderboard struct {
		Size int `yaml:"size"`
	} `yaml:"leaderboard"`
	AI struct {
		BaseURL string `yaml:"baseURL"`
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"ai"`
	Seed struct {
		Demo *bool `yaml:"demo"`
	} `yaml:"seed"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadOrDefault behaves like Load but tolerates a missing file.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.AI.APIKey = getEnv("AI_API_KEY", c.AI.APIKey)
	c.Postgres.URL = getEnv("POSTGRES_URL", c.Postgres.URL)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	if v := os.Getenv("SEED_DEMO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Seed.Demo = &b
		}
	}
}

// SeedDemo reports whether demo data should be loaded; defaults to true for the in-memory store.
func (c Config) SeedDemo() bool {
	if c.Seed.Demo != nil {
		return *c.Seed.Demo
	}
	return c.Postgres.URL == "" && c.SQLite.Path == ""
}

// LeaderboardSize falls back to the top 10.
func (c Config) LeaderboardSize() int {
	if c.Leaderboard.Size <= 0 {
		return 10
	}
	return c.Leaderboard.Size
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
