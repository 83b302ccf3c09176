package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ammPool/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant product pool ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", config.StoreFile, "pool store (memory, file, postgres)")
	flags.String("state-file", "./data/pools.json", "pool state file for the file store")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("journal", "./data/journal.jsonl", "event journal JSONL path, empty disables the journal")
	flags.String("program-id", config.DefaultProgramID, "program id used to derive pool addresses")
	flags.Int("max-retries", 5, "maximum retries on commit conflicts")
	flags.Duration("retry-backoff", 50*time.Millisecond, "initial retry backoff")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after each command")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newDepositCmd(),
		newSwapCmd(),
		newWithdrawCmd(),
		newLockCmd(true),
		newLockCmd(false),
		newShowCmd(),
		newQuoteCmd(),
		newDeriveCmd(),
		newJournalCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
