package metrics

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type FarmMetrics struct {
	operations  *prometheus.CounterVec
	rewardsPaid *prometheus.CounterVec
	staked      *prometheus.GaugeVec
	accPerShare *prometheus.GaugeVec
	pools       prometheus.Gauge
}

var (
	farmOnce     sync.Once
	farmRegistry *FarmMetrics
)

// Farm returns the lazily registered farm metrics.
func Farm() *FarmMetrics {
	farmOnce.Do(func() {
		farmRegistry = &FarmMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farm",
				Name:      "operations_total",
				Help:      "Count of farm calls segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			rewardsPaid: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "farm",
				Name:      "rewards_paid_total",
				Help:      "Reward units paid out per pool.",
			}, []string{"pool"}),
			staked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "farm",
				Name:      "pool_staked",
				Help:      "Raw principal staked per pool.",
			}, []string{"pool"}),
			accPerShare: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "farm",
				Name:      "pool_acc_reward_per_share",
				Help:      "Scaled cumulative reward per share per pool.",
			}, []string{"pool"}),
			pools: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "farm",
				Name:      "pools",
				Help:      "Number of registered pools.",
			}),
		}
		prometheus.MustRegister(
			farmRegistry.operations,
			farmRegistry.rewardsPaid,
			farmRegistry.staked,
			farmRegistry.accPerShare,
			farmRegistry.pools,
		)
	})
	return farmRegistry
}

// ObserveOperation records the outcome of a farm call.
func (m *FarmMetrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// AddRewardsPaid adds a payout to the pool's reward counter.
func (m *FarmMetrics) AddRewardsPaid(pool uint64, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	m.rewardsPaid.WithLabelValues(poolLabel(pool)).Add(toFloat(amount))
}

// SetPoolState publishes the pool's stake and accumulator.
func (m *FarmMetrics) SetPoolState(pool uint64, staked, accPerShare *big.Int) {
	if m == nil {
		return
	}
	label := poolLabel(pool)
	m.staked.WithLabelValues(label).Set(toFloat(staked))
	m.accPerShare.WithLabelValues(label).Set(toFloat(accPerShare))
}

// SetPools publishes the number of registered pools.
func (m *FarmMetrics) SetPools(n uint64) {
	if m == nil {
		return
	}
	m.pools.Set(float64(n))
}

func poolLabel(pool uint64) string {
	return strconv.FormatUint(pool, 10)
}

func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
