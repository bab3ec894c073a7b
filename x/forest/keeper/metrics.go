package keeper

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/firebond/firebond/x/forest/types"
)

const (
	metricsNamespace = "firebond"
	metricsSubsystem = types.ModuleName
)

// Metrics holds the Prometheus collectors for the forest module. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Purchases     prometheus.Counter
	Claims        prometheus.Counter
	EarlyExits    prometheus.Counter
	FireEvents    prometheus.Counter
	PaidOut       *prometheus.CounterVec
	TotalSupply   prometheus.Gauge
	CurrentPrice  prometheus.Gauge
	RewardRate    prometheus.Gauge
	TreasuryValue prometheus.Gauge
}

// NewMetrics creates the module collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Purchases: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "purchases_total",
			Help:      "Number of successful buy-and-stake operations",
		}),
		Claims: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "claims_total",
			Help:      "Number of successful reward claims",
		}),
		EarlyExits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "early_exits_total",
			Help:      "Number of successful early unstakes",
		}),
		FireEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fires_registered_total",
			Help:      "Number of pools deactivated by a fire attestation",
		}),
		PaidOut: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "paid_out_total",
			Help:      "Base units paid out of pool custody",
		}, []string{"kind"}),
		TotalSupply: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "total_supply",
			Help:      "Tokens issued along the bonding curve",
		}),
		CurrentPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "current_price",
			Help:      "Bonding-curve price at the current supply",
		}),
		RewardRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "reward_rate",
			Help:      "Reward rate derived from the current supply, scaled by 10000",
		}),
		TreasuryValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "treasury",
			Help:      "Accumulated protocol fees",
		}),
	}
}

func (m *Metrics) observeEconomics(econ types.TokenEconomics) {
	if m == nil {
		return
	}
	m.TotalSupply.Set(intToFloat(econ.TotalSupply))
	m.TreasuryValue.Set(intToFloat(econ.Treasury))
	if price, err := econ.CalculateCurrentPrice(); err == nil {
		m.CurrentPrice.Set(intToFloat(price))
	}
	if rate, err := econ.CalculateRewardRate(); err == nil {
		m.RewardRate.Set(float64(rate))
	}
}

func (m *Metrics) observePurchase(econ types.TokenEconomics) {
	if m == nil {
		return
	}
	m.Purchases.Inc()
	m.observeEconomics(econ)
}

func (m *Metrics) observeClaim(payout sdkmath.Int) {
	if m == nil {
		return
	}
	m.Claims.Inc()
	m.PaidOut.WithLabelValues("claim").Add(intToFloat(payout))
}

func (m *Metrics) observeEarlyExit(payout sdkmath.Int) {
	if m == nil {
		return
	}
	m.EarlyExits.Inc()
	m.PaidOut.WithLabelValues("early_exit").Add(intToFloat(payout))
}

func (m *Metrics) incFire() {
	if m == nil {
		return
	}
	m.FireEvents.Inc()
}

func intToFloat(v sdkmath.Int) float64 {
	if v.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
