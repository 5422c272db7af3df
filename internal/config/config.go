package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds process-level options passed in from the CLI.
type AppConfig struct {
	ConfigPath string
}

// FileConfig mirrors the yaml configuration file.
type FileConfig struct {
	Server   ServerConfig `yaml:"server"`
	Database DBConfig     `yaml:"database"`
	Redis    RedisConfig  `yaml:"redis"`
	JWT      JWTConfig    `yaml:"jwt"`
	Log      LogConfig    `yaml:"log"`
}

// ServerConfig holds HTTP listener options.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DBConfig holds the database DSN.
type DBConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds redis connection options for the reference-data cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig holds token signing options.
type JWTConfig struct {
	Secret      string        `yaml:"secret"`
	UserExpiry  time.Duration `yaml:"user_expiry"`
	AdminExpiry time.Duration `yaml:"admin_expiry"`
}

// LogConfig holds log output options.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Level      string `yaml:"level"`
}

// defaultConfigName is the config file looked up next to the binary.
const defaultConfigName = "club-api.yaml"

// ResolveConfigPath returns the effective config file path.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		return filepath.Clean(trimmed)
	}
	if env := strings.TrimSpace(os.Getenv("CLUB_API_CONFIG")); env != "" {
		return filepath.Clean(env)
	}
	return defaultConfigName
}

// Load reads and parses the yaml configuration file.
func Load(path string) (*FileConfig, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	cfg := &FileConfig{}
	if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}
	cfg.applyDefaults()

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, fmt.Errorf("config: missing database.dsn in %s", path)
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("config: missing jwt.secret in %s", path)
	}
	return cfg, nil
}

func (c *FileConfig) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = ":8317"
	}
	if c.JWT.UserExpiry <= 0 {
		c.JWT.UserExpiry = 7 * 24 * time.Hour
	}
	if c.JWT.AdminExpiry <= 0 {
		c.JWT.AdminExpiry = 12 * time.Hour
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 30
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
}
