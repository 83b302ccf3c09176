package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds the settings shared by the pool commands.
type Config struct {
	Store        string
	StateFile    string
	PGDSN        string
	Journal      string
	ProgramID    string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	MetricsFile  string
}

// DefaultProgramID is used when no program id is configured.
const DefaultProgramID = "Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS"

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"store":         StoreFile,
		"state-file":    "./data/pools.json",
		"journal":       "./data/journal.jsonl",
		"program-id":    DefaultProgramID,
		"max-retries":   5,
		"retry-backoff": 50 * time.Millisecond,
		"log-level":     "info",
	})
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Store:        strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		StateFile:    v.GetString("state-file"),
		PGDSN:        v.GetString("pg-dsn"),
		Journal:      v.GetString("journal"),
		ProgramID:    v.GetString("program-id"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		MetricsFile:  v.GetString("metrics-file"),
	}

	switch cfg.Store {
	case StoreMemory, StoreFile, StorePostgres:
	default:
		return Config{}, fmt.Errorf("unknown store %q (want %s, %s or %s)", cfg.Store, StoreMemory, StoreFile, StorePostgres)
	}
	if cfg.Store == StorePostgres && cfg.PGDSN == "" {
		return Config{}, fmt.Errorf("pg-dsn is required for the postgres store")
	}
	if cfg.Store == StoreFile && cfg.StateFile == "" {
		return Config{}, fmt.Errorf("state-file is required for the file store")
	}
	return cfg, nil
}

// newViper layers defaults, the config file (config.yaml in the working
// directory when cfgFile is empty), AMM_ environment variables and bound
// flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}
