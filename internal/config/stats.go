package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for the journal stats command.
type StatsConfig struct {
	In            string
	Out           string
	Window        time.Duration
	PGDSN         string
	BatchSize     int
	ProgressFile  string
	RecomputeFrom uint64
	Since         uint64
	LogLevel      string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":         "./data/typed_events.jsonl",
		"window":     "5m",
		"batch-size": 1000,
		"log-level":  "info",
	})
	if err != nil {
		return StatsConfig{}, err
	}

	window, err := time.ParseDuration(v.GetString("window"))
	if err != nil {
		return StatsConfig{}, fmt.Errorf("parse window: %w", err)
	}
	if window < time.Second || window%time.Second != 0 {
		return StatsConfig{}, fmt.Errorf("window must be a whole number of seconds: %s", window)
	}
	since, err := ParseTimestamp(v.GetString("since"))
	if err != nil {
		return StatsConfig{}, fmt.Errorf("parse since: %w", err)
	}

	return StatsConfig{
		In:            v.GetString("in"),
		Out:           v.GetString("out"),
		Window:        window,
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		ProgressFile:  v.GetString("progress-file"),
		RecomputeFrom: v.GetUint64("recompute-from"),
		Since:         since,
		LogLevel:      v.GetString("log-level"),
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	if tm.Unix() < 0 {
		return 0, fmt.Errorf("timestamp before epoch: %s", input)
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
