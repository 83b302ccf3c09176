package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammPool/internal/config"
	"ammPool/internal/journal"
	"ammPool/internal/ledger"
	"ammPool/internal/metrics"
	"ammPool/internal/storage"
	"ammPool/internal/storage/postgres"
)

// env holds what a pool command needs: the ledger service and the
// resources behind it.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	svc      *ledger.Service
	store    storage.Store
	registry *prometheus.Registry
}

func openEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	programID, err := ledger.ParseKey(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var sink journal.Sink
	if cfg.Journal != "" {
		writer, err := journal.NewWriter(cfg.Journal)
		if err != nil {
			store.Close()
			return nil, err
		}
		sink = writer
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	if err := restoreMetrics(cfg.MetricsFile, recorder); err != nil {
		store.Close()
		return nil, err
	}

	svc, err := ledger.NewService(ledger.Config{
		ProgramID:    programID,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, store, nil, sink, recorder, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("ledger ready",
		zap.String("store", cfg.Store),
		zap.String("journal", cfg.Journal),
		zap.String("program_id", programID.String()),
	)
	return &env{cfg: cfg, logger: logger, svc: svc, store: store, registry: registry}, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return storage.NewMemoryStore(), nil
	case config.StoreFile:
		return storage.OpenFileStore(cfg.StateFile)
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// restoreMetrics seeds recorder from the metrics file a previous command
// wrote, so its counters accumulate across invocations.
func restoreMetrics(path string, recorder *metrics.Recorder) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open metrics file: %w", err)
	}
	defer file.Close()
	if err := recorder.Restore(file); err != nil {
		return fmt.Errorf("metrics file %s: %w", path, err)
	}
	return nil
}

func (e *env) Close() {
	if e.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(e.cfg.MetricsFile, e.registry); err != nil {
			e.logger.Warn("write metrics", zap.String("path", e.cfg.MetricsFile), zap.Error(err))
		}
	}
	if err := e.store.Close(); err != nil {
		e.logger.Warn("close store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// withEnv runs fn with an open env and prints its result as JSON.
func withEnv(fn func(ctx context.Context, e *env) (interface{}, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out, err := fn(ctx, e)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	key, err := ledger.ParseKey(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

func sideFlag(cmd *cobra.Command) (bool, error) {
	from, _ := cmd.Flags().GetString("from")
	switch from {
	case "x", "X":
		return true, nil
	case "y", "Y":
		return false, nil
	default:
		return false, fmt.Errorf("--from must be x or y, got %q", from)
	}
}
