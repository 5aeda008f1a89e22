package farm

import (
	"fmt"
	"math/big"
)

// Accrual reports what a single catch-up attributed to a pool.
type Accrual struct {
	// Emitted is the pool's share of the global emission for the interval.
	Emitted *big.Int
	// Attributed is the part credited to stakers through the accumulator.
	Attributed *big.Int
	// Forgone is the part dropped because the pool had no stake.
	Forgone *big.Int
}

func zeroAccrual() Accrual {
	return Accrual{Emitted: big.NewInt(0), Attributed: big.NewInt(0), Forgone: big.NewInt(0)}
}

// RewardScheduler owns the emission rate and the accrual start time.
type RewardScheduler struct {
	rewardPerSecond *big.Int
	startTime       uint64
}

// NewRewardScheduler constructs a scheduler emitting rate reward units per
// second from start onward.
func NewRewardScheduler(rate *big.Int, start uint64) *RewardScheduler {
	return &RewardScheduler{rewardPerSecond: cloneBigInt(rate), startTime: start}
}

// RewardPerSecond returns a copy of the global emission rate.
func (s *RewardScheduler) RewardPerSecond() *big.Int {
	if s == nil {
		return big.NewInt(0)
	}
	return cloneBigInt(s.rewardPerSecond)
}

// StartTime returns the timestamp before which nothing accrues.
func (s *RewardScheduler) StartTime() uint64 {
	if s == nil {
		return 0
	}
	return s.startTime
}

// EmissionFor returns rate*elapsed*weight/totalWeight rounded down.
func (s *RewardScheduler) EmissionFor(weight, totalWeight, elapsed uint64) (*big.Int, error) {
	if s == nil || totalWeight == 0 || weight == 0 || elapsed == 0 {
		return big.NewInt(0), nil
	}
	total, err := CheckedMul(s.rewardPerSecond, new(big.Int).SetUint64(elapsed))
	if err != nil {
		return nil, err
	}
	return MulDiv(total, new(big.Int).SetUint64(weight), new(big.Int).SetUint64(totalWeight))
}

// Accrue catches the pool up to now. Repeated calls at the same or an earlier
// timestamp are no-ops. The pool is only mutated once every computation has
// succeeded.
func (s *RewardScheduler) Accrue(pool *Pool, totalWeight, now uint64) (Accrual, error) {
	out := zeroAccrual()
	if pool == nil || now <= pool.LastAccrualTime {
		return out, nil
	}
	from := pool.LastAccrualTime
	if s.StartTime() > from {
		from = s.StartTime()
	}
	if now <= from {
		pool.LastAccrualTime = now
		return out, nil
	}
	emitted, err := s.EmissionFor(pool.AllocWeight, totalWeight, now-from)
	if err != nil {
		return out, err
	}
	if emitted.Sign() == 0 {
		pool.LastAccrualTime = now
		return out, nil
	}
	if isPositive(pool.TotalBoosted) {
		delta, err := MulDiv(emitted, accPrecisionBig, pool.TotalBoosted)
		if err != nil {
			return out, err
		}
		acc, err := CheckedAdd(pool.AccRewardPerShare, delta)
		if err != nil {
			return out, err
		}
		accrued, err := CheckedAdd(pool.AccruedRewards, emitted)
		if err != nil {
			return out, err
		}
		pool.AccRewardPerShare = acc
		pool.AccruedRewards = accrued
		out.Attributed = cloneBigInt(emitted)
	} else {
		forgone, err := CheckedAdd(pool.ForgoneRewards, emitted)
		if err != nil {
			return out, err
		}
		pool.ForgoneRewards = forgone
		out.Forgone = cloneBigInt(emitted)
	}
	out.Emitted = emitted
	pool.LastAccrualTime = now
	return out, nil
}

// Project returns the accumulator value the pool would hold at now without
// mutating it.
func (s *RewardScheduler) Project(pool *Pool, totalWeight, now uint64) (*big.Int, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidPool)
	}
	scratch := pool.Clone()
	if _, err := s.Accrue(scratch, totalWeight, now); err != nil {
		return nil, err
	}
	return scratch.AccRewardPerShare, nil
}

func (s *RewardScheduler) setRate(rate *big.Int) {
	s.rewardPerSecond = cloneBigInt(rate)
}

// Clone returns a deep copy of the scheduler.
func (s *RewardScheduler) Clone() *RewardScheduler {
	if s == nil {
		return nil
	}
	return NewRewardScheduler(s.rewardPerSecond, s.startTime)
}
