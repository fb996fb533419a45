package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blogledger/app/models"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "blogledger.config"

// EnvPrefix prefixes every environment override, e.g. BLOGLEDGER_PORT
const EnvPrefix = "blogledger"

const (
	DefaultProgramID       = "97LDGVBJPc2TGqZu7UZZn4yWoHv2t9LojWXaoYhKnfdn"
	DefaultShutdownTimeout = "30s"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	// ProgramID namespaces every derived address
	ProgramID       string `yaml:"programId"       split_words:"true"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	Port            uint   `yaml:"port"`
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	InMemory        bool   `yaml:"inMemory"        split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	Debug           bool   `yaml:"debug"`

	programKey models.Pubkey
	shutdown   time.Duration
}

// Default returns a Config holding the built-in defaults
func Default() *Config {
	return &Config{
		ProgramID:       DefaultProgramID,
		BindAddr:        "0.0.0.0",
		Port:            8080,
		DatabasePath:    ".blogledger",
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load builds the configuration from defaults, then the YAML file (if any),
// then BLOGLEDGER_* environment variables. Without an explicit path it
// looks for ~/.blogledger/blogledger.yaml and /etc/blogledger/blogledger.yaml.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".blogledger", "blogledger.yaml"))
	}
	candidates = append(candidates, "/etc/blogledger/blogledger.yaml")
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the settings and caches their parsed forms
func (c *Config) Validate() error {
	key, err := models.ParsePubkey(c.ProgramID)
	if err != nil {
		return fmt.Errorf("invalid programId: %w", err)
	}
	if c.Port == 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	shutdown, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdownTimeout: %w", err)
	}
	if shutdown <= 0 {
		return errors.New("shutdownTimeout must be positive")
	}
	if !c.InMemory && c.DatabasePath == "" {
		return errors.New("databasePath is required unless inMemory is set")
	}
	c.programKey = key
	c.shutdown = shutdown
	return nil
}

// ProgramKey returns the parsed program id. Validate must have succeeded.
func (c *Config) ProgramKey() models.Pubkey {
	return c.programKey
}

func (c *Config) ShutdownDuration() time.Duration {
	return c.shutdown
}

// ListenAddr is the host:port the HTTP server binds
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// StorePath is the badger directory, empty for an in-memory store
func (c *Config) StorePath() string {
	if c.InMemory {
		return ""
	}
	return c.DatabasePath
}
