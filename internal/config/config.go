package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"time"
)

// Config is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Seeds    SeedsConfig    `json:"seeds"`
	Agents   AgentsConfig   `json:"agents"`
	Memory   MemoryConfig   `json:"memory"`
	Session  SessionConfig  `json:"session"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

// SeedsConfig controls foundation catalog loading. An empty Dir falls
// back to the built-in foundation personalities.
type SeedsConfig struct {
	Dir string `json:"dir"`
}

// AgentsConfig configures the autonomous controllers started at boot.
type AgentsConfig struct {
	Personalities  []string `json:"personalities"`
	CadenceSeconds int      `json:"cadence_seconds"`
	BackoffSeconds int      `json:"backoff_seconds"`
}

// Cadence returns the decision cadence, defaulting to 10s.
func (a AgentsConfig) Cadence() time.Duration {
	if a.CadenceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.CadenceSeconds) * time.Second
}

// Backoff returns the cycle-error backoff, defaulting to 5s.
func (a AgentsConfig) Backoff() time.Duration {
	if a.BackoffSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.BackoffSeconds) * time.Second
}

type MemoryConfig struct {
	MaxMemories      int     `json:"max_memories"`
	CleanupThreshold float64 `json:"cleanup_threshold"`
}

type SessionConfig struct {
	RetentionDays      int `json:"retention_days"`
	SweepIntervalHours int `json:"sweep_interval_hours"`
}

// Retention returns how long idle sessions survive, defaulting to 90 days.
func (s SessionConfig) Retention() time.Duration {
	if s.RetentionDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// SweepInterval returns the sweep period, defaulting to 24 hours.
func (s SessionConfig) SweepInterval() time.Duration {
	if s.SweepIntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.SweepIntervalHours) * time.Hour
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
