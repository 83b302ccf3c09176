package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveOperation("swap", "ok", 3*time.Millisecond)
	r.ObserveOperation("swap", "slippage_exceeded", time.Millisecond)
	r.ObserveOperation("swap", "ok", time.Millisecond)
	r.ObserveSwap("pool", "x", 1000, 20)
	r.SetPoolState("pool", 11000, 45538, 8000)
	r.PoolCreated()
	r.CommitConflict()

	require.Equal(t, 2.0, testutil.ToFloat64(r.Operations.WithLabelValues("swap", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.Operations.WithLabelValues("swap", "slippage_exceeded")))
	require.Equal(t, 1000.0, testutil.ToFloat64(r.SwapVolume.WithLabelValues("pool", "x")))
	require.Equal(t, 20.0, testutil.ToFloat64(r.SwapFees.WithLabelValues("pool", "x")))
	require.Equal(t, 45538.0, testutil.ToFloat64(r.Reserves.WithLabelValues("pool", "y")))
	require.Equal(t, 8000.0, testutil.ToFloat64(r.Shares.WithLabelValues("pool")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.PoolsCreated))
	require.Equal(t, 1.0, testutil.ToFloat64(r.CommitConflicts))
	require.Equal(t, 1, testutil.CollectAndCount(r.OperationTime))
}

func TestRestoreContinuesCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")

	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveOperation("swap", "ok", time.Millisecond)
	r.ObserveSwap("pool", "x", 1000, 20)
	r.SetPoolState("pool", 11000, 45538, 8000)
	r.PoolCreated()
	require.NoError(t, prometheus.WriteToTextfile(path, reg))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	next := New(prometheus.NewRegistry())
	require.NoError(t, next.Restore(file))
	next.ObserveOperation("swap", "ok", time.Millisecond)
	next.ObserveSwap("pool", "x", 500, 10)

	require.Equal(t, 2.0, testutil.ToFloat64(next.Operations.WithLabelValues("swap", "ok")))
	require.Equal(t, 1500.0, testutil.ToFloat64(next.SwapVolume.WithLabelValues("pool", "x")))
	require.Equal(t, 30.0, testutil.ToFloat64(next.SwapFees.WithLabelValues("pool", "x")))
	require.Equal(t, 11000.0, testutil.ToFloat64(next.Reserves.WithLabelValues("pool", "x")))
	require.Equal(t, 8000.0, testutil.ToFloat64(next.Shares.WithLabelValues("pool")))
	require.Equal(t, 1.0, testutil.ToFloat64(next.PoolsCreated))
	require.Equal(t, 0.0, testutil.ToFloat64(next.CommitConflicts))
}

func TestRestoreRejectsGarbage(t *testing.T) {
	r := New(prometheus.NewRegistry())
	require.Error(t, r.Restore(strings.NewReader("amm_operations_total{op=\"swap\" 1\n")))
	require.Error(t, r.Restore(strings.NewReader("amm_operations_total{op=\"swap\"} 1\n")))

	var nilRecorder *Recorder
	require.NoError(t, nilRecorder.Restore(strings.NewReader("")))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveOperation("deposit", "ok", time.Second)
	r.ObserveSwap("pool", "x", 1, 1)
	r.SetPoolState("pool", 1, 1, 1)
	r.PoolCreated()
	r.CommitConflict()
}
