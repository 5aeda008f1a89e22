package farm

import "math/big"

// Pool captures the accounting state for one accepted staking token. Amount
// values are expressed as big integers in the token's smallest unit.
type Pool struct {
	// StakedToken identifies the token this pool accepts.
	StakedToken [20]byte
	// AllocWeight is the pool's share of the global emission relative to the
	// registry's total weight. Zero retires the pool without removing it.
	AllocWeight uint64
	// LastAccrualTime is the last timestamp at which accrual was settled.
	LastAccrualTime uint64
	// AccRewardPerShare is the cumulative reward earned per unit of effective
	// stake, scaled by AccPrecision. It never decreases.
	AccRewardPerShare *big.Int
	// TotalStaked is the sum of every position's raw principal.
	TotalStaked *big.Int
	// TotalBoosted is the sum of every position's effective stake and is the
	// denominator used during accrual.
	TotalBoosted *big.Int
	// AccruedRewards is the reward attributed to stakers since creation.
	AccruedRewards *big.Int
	// ForgoneRewards is the emission that fell into intervals with no stake.
	ForgoneRewards *big.Int
}

// Position tracks a depositor's stake within a single pool.
type Position struct {
	// Amount is the raw principal currently staked.
	Amount *big.Int
	// BoostedAmount is the effective stake used for reward math.
	BoostedAmount *big.Int
	// RewardDebt is BoostedAmount*AccRewardPerShare captured at the last
	// settlement. It stays in the fixed-point domain.
	RewardDebt *big.Int
	// RewardPaid is the cumulative reward paid to this position.
	RewardPaid *big.Int
}

// Totals summarises the farm-wide reward accounting.
type Totals struct {
	Emitted *big.Int
	Accrued *big.Int
	Forgone *big.Int
	Paid    *big.Int
}

func newPool(token [20]byte, weight, now uint64) *Pool {
	return &Pool{
		StakedToken:       token,
		AllocWeight:       weight,
		LastAccrualTime:   now,
		AccRewardPerShare: big.NewInt(0),
		TotalStaked:       big.NewInt(0),
		TotalBoosted:      big.NewInt(0),
		AccruedRewards:    big.NewInt(0),
		ForgoneRewards:    big.NewInt(0),
	}
}

func newPosition() *Position {
	return &Position{
		Amount:        big.NewInt(0),
		BoostedAmount: big.NewInt(0),
		RewardDebt:    big.NewInt(0),
		RewardPaid:    big.NewInt(0),
	}
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	return &Pool{
		StakedToken:       p.StakedToken,
		AllocWeight:       p.AllocWeight,
		LastAccrualTime:   p.LastAccrualTime,
		AccRewardPerShare: cloneBigInt(p.AccRewardPerShare),
		TotalStaked:       cloneBigInt(p.TotalStaked),
		TotalBoosted:      cloneBigInt(p.TotalBoosted),
		AccruedRewards:    cloneBigInt(p.AccruedRewards),
		ForgoneRewards:    cloneBigInt(p.ForgoneRewards),
	}
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	return &Position{
		Amount:        cloneBigInt(p.Amount),
		BoostedAmount: cloneBigInt(p.BoostedAmount),
		RewardDebt:    cloneBigInt(p.RewardDebt),
		RewardPaid:    cloneBigInt(p.RewardPaid),
	}
}

// IsEmpty reports whether the position holds no stake.
func (p *Position) IsEmpty() bool {
	return p == nil || p.Amount == nil || p.Amount.Sign() == 0
}

// Clone returns a deep copy of the totals.
func (t Totals) Clone() Totals {
	return Totals{
		Emitted: cloneBigInt(t.Emitted),
		Accrued: cloneBigInt(t.Accrued),
		Forgone: cloneBigInt(t.Forgone),
		Paid:    cloneBigInt(t.Paid),
	}
}

func zeroTotals() Totals {
	return Totals{
		Emitted: big.NewInt(0),
		Accrued: big.NewInt(0),
		Forgone: big.NewInt(0),
		Paid:    big.NewInt(0),
	}
}
