package farm

import (
	"fmt"
	"math/big"
	"sync"
)

// Booster scales a depositor's raw stake into the effective stake used for
// reward math. Implementations must be deterministic for a given input.
type Booster interface {
	EffectiveStake(depositor [20]byte, poolIndex uint64, rawAmount *big.Int) *big.Int
}

const (
	// BoostDenominator is the basis point denominator used by MultiplierBooster.
	BoostDenominator uint64 = 10_000
	// DefaultMaxBoostBps caps the multiplier at 2.5x.
	DefaultMaxBoostBps uint64 = 25_000
)

// effectiveStake asks the booster for the effective amount and falls back to
// the raw amount when no booster is configured or it returns nonsense.
func effectiveStake(b Booster, depositor [20]byte, poolIndex uint64, raw *big.Int) *big.Int {
	if b == nil || raw == nil || raw.Sign() == 0 {
		return cloneBigInt(raw)
	}
	boosted := b.EffectiveStake(depositor, poolIndex, cloneBigInt(raw))
	if boosted == nil || boosted.Sign() < 0 {
		return cloneBigInt(raw)
	}
	return new(big.Int).Set(boosted)
}

// MultiplierBooster applies a per-depositor multiplier in basis points. A
// depositor without an entry keeps a 1x multiplier.
type MultiplierBooster struct {
	mu          sync.RWMutex
	maxBoostBps uint64
	multipliers map[[20]byte]uint64
}

// NewMultiplierBooster constructs a booster capped at maxBoostBps. A zero cap
// selects DefaultMaxBoostBps.
func NewMultiplierBooster(maxBoostBps uint64) *MultiplierBooster {
	if maxBoostBps == 0 {
		maxBoostBps = DefaultMaxBoostBps
	}
	return &MultiplierBooster{maxBoostBps: maxBoostBps, multipliers: make(map[[20]byte]uint64)}
}

// SetMultiplier records the multiplier for a depositor. Values below 1x or
// above the cap are rejected.
func (b *MultiplierBooster) SetMultiplier(depositor [20]byte, bps uint64) error {
	if bps < BoostDenominator || bps > b.maxBoostBps {
		return fmt.Errorf("farm: boost %d bps outside [%d, %d]", bps, BoostDenominator, b.maxBoostBps)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.multipliers[depositor] = bps
	return nil
}

// Multiplier returns the basis point multiplier applied to the depositor.
func (b *MultiplierBooster) Multiplier(depositor [20]byte) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bps, ok := b.multipliers[depositor]; ok {
		return bps
	}
	return BoostDenominator
}

// EffectiveStake implements Booster.
func (b *MultiplierBooster) EffectiveStake(depositor [20]byte, _ uint64, rawAmount *big.Int) *big.Int {
	if rawAmount == nil {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(rawAmount, new(big.Int).SetUint64(b.Multiplier(depositor)))
	return scaled.Quo(scaled, new(big.Int).SetUint64(BoostDenominator))
}
