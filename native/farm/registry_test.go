package farm

import (
	"errors"
	"math"
	"testing"
)

func testToken(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func TestRegistryAddAssignsStableIndices(t *testing.T) {
	r := NewPoolRegistry()
	for i := byte(1); i <= 3; i++ {
		idx, err := r.add(testToken(i), uint64(i)*100, 50)
		if err != nil {
			t.Fatalf("add pool %d: %v", i, err)
		}
		if idx != uint64(i-1) {
			t.Fatalf("expected index %d, got %d", i-1, idx)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 pools, got %d", r.Len())
	}
	if r.TotalWeight() != 600 {
		t.Fatalf("expected total weight 600, got %d", r.TotalWeight())
	}
	idx, ok := r.IndexOf(testToken(2))
	if !ok || idx != 1 {
		t.Fatalf("unexpected index lookup: %d %v", idx, ok)
	}
	pool, err := r.Pool(2)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if pool.LastAccrualTime != 50 || pool.AccRewardPerShare.Sign() != 0 {
		t.Fatalf("new pool not zeroed: %+v", pool)
	}
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	r := NewPoolRegistry()
	if _, err := r.add([20]byte{}, 1, 0); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	if _, err := r.add(testToken(1), math.MaxUint64, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.add(testToken(1), 1, 0); !errors.Is(err, ErrDuplicateToken) {
		t.Fatalf("expected duplicate token, got %v", err)
	}
	if _, err := r.add(testToken(2), 1, 0); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected weight overflow, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("failed registrations must not append, have %d pools", r.Len())
	}
	if _, err := r.Pool(1); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("expected invalid pool, got %v", err)
	}
}

func TestRegistrySetWeightUpdatesTotal(t *testing.T) {
	r := NewPoolRegistry()
	if _, err := r.add(testToken(1), 100, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.add(testToken(2), 300, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	old, err := r.setWeight(1, 0)
	if err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if old != 300 || r.TotalWeight() != 100 {
		t.Fatalf("unexpected weights: old=%d total=%d", old, r.TotalWeight())
	}
	if _, err := r.setWeight(7, 1); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("expected invalid pool, got %v", err)
	}
}

func TestRegistryCloneIsDeep(t *testing.T) {
	r := NewPoolRegistry()
	if _, err := r.add(testToken(1), 100, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	clone := r.Clone()
	clone.pools[0].TotalStaked.SetInt64(99)
	if _, err := clone.setWeight(0, 5); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	if r.pools[0].TotalStaked.Sign() != 0 || r.TotalWeight() != 100 {
		t.Fatalf("clone mutation leaked into original")
	}
}
