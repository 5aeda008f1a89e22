package farm

import (
	"math/big"
	"testing"
)

func stakedPool(stake int64, weight, last uint64) *Pool {
	pool := newPool(testToken(1), weight, last)
	pool.TotalStaked = big.NewInt(stake)
	pool.TotalBoosted = big.NewInt(stake)
	return pool
}

func TestAccrueIsIdempotentAtSameTimestamp(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(1000), 0)
	pool := stakedPool(100, 1, 0)
	first, err := s.Accrue(pool, 1, 10)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if first.Attributed.Int64() != 10_000 {
		t.Fatalf("expected 10000 attributed, got %s", first.Attributed)
	}
	acc := new(big.Int).Set(pool.AccRewardPerShare)
	second, err := s.Accrue(pool, 1, 10)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if second.Emitted.Sign() != 0 || pool.AccRewardPerShare.Cmp(acc) != 0 {
		t.Fatalf("second accrue at same time changed state")
	}
	if _, err := s.Accrue(pool, 1, 5); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if pool.LastAccrualTime != 10 || pool.AccRewardPerShare.Cmp(acc) != 0 {
		t.Fatalf("accrue in the past must be a no-op")
	}
}

func TestAccrueIsMonotonic(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(7), 0)
	pool := stakedPool(3, 1, 0)
	prev := big.NewInt(0)
	for now := uint64(1); now <= 20; now++ {
		if _, err := s.Accrue(pool, 1, now); err != nil {
			t.Fatalf("accrue at %d: %v", now, err)
		}
		if pool.AccRewardPerShare.Cmp(prev) < 0 {
			t.Fatalf("accumulator decreased at %d", now)
		}
		prev = new(big.Int).Set(pool.AccRewardPerShare)
	}
}

func TestAccrueForgoesEmptyIntervals(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(1000), 0)
	pool := stakedPool(0, 1, 0)
	accrual, err := s.Accrue(pool, 1, 10)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Forgone.Int64() != 10_000 || accrual.Attributed.Sign() != 0 {
		t.Fatalf("unexpected accrual %+v", accrual)
	}
	if pool.AccRewardPerShare.Sign() != 0 {
		t.Fatalf("accumulator must not move without stake")
	}
	if pool.ForgoneRewards.Int64() != 10_000 || pool.LastAccrualTime != 10 {
		t.Fatalf("unexpected pool after forgone interval: %+v", pool)
	}
}

func TestAccrueHonoursStartTime(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(1000), 100)
	pool := stakedPool(100, 1, 0)
	accrual, err := s.Accrue(pool, 1, 50)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Emitted.Sign() != 0 || pool.LastAccrualTime != 50 {
		t.Fatalf("nothing should accrue before start: %+v", accrual)
	}
	accrual, err = s.Accrue(pool, 1, 110)
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if accrual.Emitted.Int64() != 10_000 {
		t.Fatalf("expected only the post-start interval, got %s", accrual.Emitted)
	}
}

func TestEmissionSplitsByWeight(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(1000), 0)
	got, err := s.EmissionFor(1, 3, 10)
	if err != nil {
		t.Fatalf("emission: %v", err)
	}
	if got.Int64() != 3333 {
		t.Fatalf("expected 3333, got %s", got)
	}
	got, err = s.EmissionFor(0, 3, 10)
	if err != nil || got.Sign() != 0 {
		t.Fatalf("zero weight pool must not emit: %v %v", got, err)
	}
}

func TestProjectDoesNotMutate(t *testing.T) {
	s := NewRewardScheduler(big.NewInt(1000), 0)
	pool := stakedPool(100, 1, 0)
	acc, err := s.Project(pool, 1, 10)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(100), AccUnit())
	if acc.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, acc)
	}
	if pool.AccRewardPerShare.Sign() != 0 || pool.LastAccrualTime != 0 {
		t.Fatalf("project mutated the pool")
	}
}
