// Package metrics exposes Prometheus metrics for pool operations.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "amm"

// Recorder holds the pool metrics. A nil *Recorder records nothing.
type Recorder struct {
	Operations      *prometheus.CounterVec
	OperationTime   *prometheus.HistogramVec
	SwapVolume      *prometheus.CounterVec
	SwapFees        *prometheus.CounterVec
	Reserves        *prometheus.GaugeVec
	Shares          *prometheus.GaugeVec
	PoolsCreated    prometheus.Counter
	CommitConflicts prometheus.Counter
}

// New registers the pool metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Pool operations by kind and outcome",
			},
			[]string{"op", "result"},
		),
		OperationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Pool operation latency including persistence",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swap_volume_total",
				Help:      "Swap input volume in base units",
			},
			[]string{"pool", "side"},
		),
		SwapFees: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swap_fees_total",
				Help:      "Swap fees retained by the pool in base units",
			},
			[]string{"pool", "side"},
		),
		Reserves: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_reserves",
				Help:      "Current pool reserves in base units",
			},
			[]string{"pool", "side"},
		),
		Shares: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pool_shares",
				Help:      "Outstanding liquidity shares",
			},
			[]string{"pool"},
		),
		PoolsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pools_created_total",
				Help:      "Pools initialized",
			},
		),
		CommitConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commit_conflicts_total",
				Help:      "Commits retried after a concurrent version change",
			},
		),
	}
}

// ObserveOperation records the outcome of one operation. result is the
// error kind, "ok" on success.
func (r *Recorder) ObserveOperation(op, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Operations.WithLabelValues(op, result).Inc()
	r.OperationTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveSwap records input volume and fee on the input side.
func (r *Recorder) ObserveSwap(pool, side string, amountIn, fee uint64) {
	if r == nil {
		return
	}
	r.SwapVolume.WithLabelValues(pool, side).Add(float64(amountIn))
	r.SwapFees.WithLabelValues(pool, side).Add(float64(fee))
}

// SetPoolState publishes the reserves and shares of a pool.
func (r *Recorder) SetPoolState(pool string, reserveX, reserveY, totalShares uint64) {
	if r == nil {
		return
	}
	r.Reserves.WithLabelValues(pool, "x").Set(float64(reserveX))
	r.Reserves.WithLabelValues(pool, "y").Set(float64(reserveY))
	r.Shares.WithLabelValues(pool).Set(float64(totalShares))
}

func (r *Recorder) PoolCreated() {
	if r == nil {
		return
	}
	r.PoolsCreated.Inc()
}

func (r *Recorder) CommitConflict() {
	if r == nil {
		return
	}
	r.CommitConflicts.Inc()
}

// Restore loads a text exposition written by an earlier process: counters
// continue from the stored values and gauges take the stored values.
// Latency histograms start empty. Unknown families are ignored.
func (r *Recorder) Restore(in io.Reader) error {
	if r == nil {
		return nil
	}
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(in)
	if err != nil {
		return fmt.Errorf("parse metrics: %w", err)
	}

	for name, family := range families {
		for _, m := range family.GetMetric() {
			labels := make(prometheus.Labels, len(m.GetLabel()))
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			counter := m.GetCounter().GetValue()
			gauge := m.GetGauge().GetValue()

			switch name {
			case namespace + "_operations_total":
				err = addTo(r.Operations, labels, counter)
			case namespace + "_swap_volume_total":
				err = addTo(r.SwapVolume, labels, counter)
			case namespace + "_swap_fees_total":
				err = addTo(r.SwapFees, labels, counter)
			case namespace + "_pools_created_total":
				if counter > 0 {
					r.PoolsCreated.Add(counter)
				}
			case namespace + "_commit_conflicts_total":
				if counter > 0 {
					r.CommitConflicts.Add(counter)
				}
			case namespace + "_pool_reserves":
				err = setOn(r.Reserves, labels, gauge)
			case namespace + "_pool_shares":
				err = setOn(r.Shares, labels, gauge)
			}
			if err != nil {
				return fmt.Errorf("restore %s: %w", name, err)
			}
		}
	}
	return nil
}

func addTo(vec *prometheus.CounterVec, labels prometheus.Labels, value float64) error {
	c, err := vec.GetMetricWith(labels)
	if err != nil {
		return err
	}
	if value > 0 {
		c.Add(value)
	}
	return nil
}

func setOn(vec *prometheus.GaugeVec, labels prometheus.Labels, value float64) error {
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		return err
	}
	g.Set(value)
	return nil
}
