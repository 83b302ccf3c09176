package stats

import (
	"context"

	"ammPool/internal/journal"
	"ammPool/internal/model"
	"ammPool/internal/storage/postgres"
)

// Sink receives flushed window stats.
type Sink interface {
	WriteStats(ctx context.Context, stats []model.PoolWindowStats) error
}

// JSONLSink writes one stats object per line.
type JSONLSink struct {
	Writer *journal.JSONLWriter
}

func (s *JSONLSink) WriteStats(_ context.Context, stats []model.PoolWindowStats) error {
	for _, m := range stats {
		if err := s.Writer.Write(m); err != nil {
			return err
		}
	}
	return nil
}

// PostgresSink upserts stats into pool_window_stats.
type PostgresSink struct {
	Store *postgres.Store
}

func (s *PostgresSink) WriteStats(ctx context.Context, stats []model.PoolWindowStats) error {
	return s.Store.UpsertWindowStats(ctx, stats)
}

// MemorySink collects stats in memory.
type MemorySink struct {
	Stats []model.PoolWindowStats
}

func (s *MemorySink) WriteStats(_ context.Context, stats []model.PoolWindowStats) error {
	s.Stats = append(s.Stats, stats...)
	return nil
}
