// Package metrics exposes lottery activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lottery"

// Metrics holds the collectors updated by the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Entries     prometheus.Counter
	Draws       prometheus.Counter
	Payout      prometheus.Counter
	Rejections  *prometheus.CounterVec
	PoolBalance *prometheus.GaugeVec
	Players     *prometheus.GaugeVec
	Height      prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "accepted lottery entries",
		}),
		Draws: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "completed winner draws",
		}),
		Payout: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payout_total",
			Help:      "base units paid to winners (float approximation)",
		}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "rejected lottery txs by reason",
		}, []string{"reason"}),
		PoolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_balance",
			Help:      "current pool of each lottery (float approximation)",
		}, []string{"lottery"}),
		Players: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "players",
			Help:      "entries in the current round of each lottery",
		}, []string{"lottery"}),
		Height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_height",
			Help:      "last finalized block height",
		}),
	}
	reg.MustRegister(m.Entries, m.Draws, m.Payout, m.Rejections, m.PoolBalance, m.Players, m.Height)
	return m
}

func (m *Metrics) ObserveEntry(lotteryID uint64, players int, pool math.Int) {
	if m == nil {
		return
	}
	m.Entries.Inc()
	m.setRound(lotteryID, players, pool)
}

// ObserveRound sets the round gauges without counting an entry.
func (m *Metrics) ObserveRound(lotteryID uint64, players int, pool math.Int) {
	if m == nil {
		return
	}
	m.setRound(lotteryID, players, pool)
}

func (m *Metrics) ObserveDraw(lotteryID uint64, amount math.Int) {
	if m == nil {
		return
	}
	m.Draws.Inc()
	m.Payout.Add(toFloat(amount))
	m.setRound(lotteryID, 0, math.ZeroInt())
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveHeight(h int64) {
	if m == nil {
		return
	}
	m.Height.Set(float64(h))
}

func (m *Metrics) setRound(lotteryID uint64, players int, pool math.Int) {
	label := strconv.FormatUint(lotteryID, 10)
	m.Players.WithLabelValues(label).Set(float64(players))
	m.PoolBalance.WithLabelValues(label).Set(toFloat(pool))
}

func toFloat(v math.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
