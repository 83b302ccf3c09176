package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammPool/internal/config"
	"ammPool/internal/journal"
	"ammPool/internal/model"
	"ammPool/internal/stats"
	"ammPool/internal/storage/postgres"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Work with the pool event journal",
	}

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode journal records into typed events",
		RunE:  runDecode,
	}
	decodeCmd.Flags().String("in", "./data/journal.jsonl", "input journal JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate typed events into window stats",
		RunE:  runStats,
	}
	statsCmd.Flags().String("in", "./data/typed_events.jsonl", "input typed events JSONL")
	statsCmd.Flags().String("out", "", "write stats to this JSONL file instead of Postgres")
	statsCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	statsCmd.Flags().Int("batch-size", 1000, "stats per sink write")
	statsCmd.Flags().String("progress-file", "", "local progress file, defaults to the stats_progress table with Postgres")
	statsCmd.Flags().Uint64("recompute-from", 0, "recompute from this journal sequence")
	statsCmd.Flags().String("since", "", "ignore events before this time (unix seconds or RFC3339)")

	cmd.AddCommand(decodeCmd, statsCmd)
	return cmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	decoder, err := journal.NewDecoder()
	if err != nil {
		return err
	}
	decodeCtx := journal.DecodeContext{
		Context:       cmd.Context(),
		PoolMetaCache: journal.NewPoolMetaCache(),
		Logger:        logger,
	}

	outWriter, err := journal.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	var errWriter *journal.JSONLWriter
	if cfg.Errors != "" {
		errWriter, err = journal.NewJSONLWriter(cfg.Errors, false)
		if err != nil {
			return err
		}
		defer errWriter.Close()
	}

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
	)

	var total, decoded, skipped, failed int
	err = journal.ReadFile(cmd.Context(), cfg.In, func(record model.LogRecord, parseErr error) error {
		total++
		if parseErr != nil {
			failed++
			writeDecodeError(errWriter, model.DecodeError{Error: parseErr.Error()})
			return nil
		}
		if len(record.Topics) == 0 {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, fmt.Errorf("missing topic0")))
			return nil
		}
		if !decoder.CanDecode(record.Topics[0]) {
			skipped++
			return nil
		}

		event, err := decoder.Decode(record, decodeCtx)
		if err != nil {
			failed++
			writeDecodeError(errWriter, decodeErrorFromRecord(record, err))
			return nil
		}
		if err := outWriter.Write(event); err != nil {
			return err
		}
		decoded++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", total),
		zap.Int("decoded", decoded),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}
	return model.DecodeError{
		Sequence: record.Sequence,
		Pool:     record.Pool,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func writeDecodeError(writer *journal.JSONLWriter, errRecord model.DecodeError) {
	if writer == nil {
		return
	}
	_ = writer.Write(errRecord)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" && cfg.PGDSN == "" {
		return fmt.Errorf("either --out or --pg-dsn is required")
	}
	windowSeconds := uint64(cfg.Window.Seconds())
	ctx := cmd.Context()

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	var sink stats.Sink
	if cfg.Out != "" {
		writer, err := journal.NewJSONLWriter(cfg.Out, true)
		if err != nil {
			return err
		}
		defer writer.Close()
		sink = &stats.JSONLSink{Writer: writer}
	} else {
		sink = &stats.PostgresSink{Store: store}
	}

	var progress stats.ProgressStore
	switch {
	case cfg.ProgressFile != "":
		progress = &stats.FileProgressStore{Path: cfg.ProgressFile}
	case store != nil:
		progress = &stats.DBProgressStore{Store: store, Name: fmt.Sprintf("stats:%d", windowSeconds)}
	}

	input, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	agg := stats.NewAggregator(stats.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		Since:         cfg.Since,
		Progress:      progress,
	}, sink, logger)

	logger.Info("stats start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", cfg.RecomputeFrom),
	)

	return agg.Run(ctx, input)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
