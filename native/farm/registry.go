package farm

import (
	"fmt"
	"math"
)

// DefaultPoolWeight is the allocation weight given to the pool created during
// initialization.
const DefaultPoolWeight uint64 = 1000

// PoolRegistry is the append-only arena of pools. A pool's index is its
// external identifier and stays valid for the lifetime of the registry.
type PoolRegistry struct {
	pools       []*Pool
	totalWeight uint64
	byToken     map[[20]byte]uint64
}

// NewPoolRegistry returns an empty registry.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{byToken: make(map[[20]byte]uint64)}
}

// Len returns the number of registered pools.
func (r *PoolRegistry) Len() uint64 {
	if r == nil {
		return 0
	}
	return uint64(len(r.pools))
}

// TotalWeight returns the sum of every pool's allocation weight.
func (r *PoolRegistry) TotalWeight() uint64 {
	if r == nil {
		return 0
	}
	return r.totalWeight
}

// Pool returns the live pool at the supplied index.
func (r *PoolRegistry) Pool(index uint64) (*Pool, error) {
	if r == nil || index >= uint64(len(r.pools)) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPool, index)
	}
	return r.pools[index], nil
}

// IndexOf returns the pool index registered for the token.
func (r *PoolRegistry) IndexOf(token [20]byte) (uint64, bool) {
	if r == nil {
		return 0, false
	}
	idx, ok := r.byToken[token]
	return idx, ok
}

// checkAdd validates a registration without mutating the registry.
func (r *PoolRegistry) checkAdd(token [20]byte, weight uint64) error {
	if token == ([20]byte{}) {
		return fmt.Errorf("%w: staked token must be set", ErrInvalidAddress)
	}
	if _, exists := r.byToken[token]; exists {
		return fmt.Errorf("%w: %x", ErrDuplicateToken, token)
	}
	if r.totalWeight > math.MaxUint64-weight {
		return fmt.Errorf("%w: total weight", ErrArithmeticOverflow)
	}
	return nil
}

// add appends a pool. Callers must settle every pool before calling so past
// intervals keep the weight ratio they accrued under.
func (r *PoolRegistry) add(token [20]byte, weight, now uint64) (uint64, error) {
	if err := r.checkAdd(token, weight); err != nil {
		return 0, err
	}
	index := uint64(len(r.pools))
	r.pools = append(r.pools, newPool(token, weight, now))
	r.byToken[token] = index
	r.totalWeight += weight
	return index, nil
}

// checkSetWeight validates a weight change and returns the resulting total.
func (r *PoolRegistry) checkSetWeight(index, weight uint64) (uint64, error) {
	pool, err := r.Pool(index)
	if err != nil {
		return 0, err
	}
	base := r.totalWeight - pool.AllocWeight
	if base > math.MaxUint64-weight {
		return 0, fmt.Errorf("%w: total weight", ErrArithmeticOverflow)
	}
	return base + weight, nil
}

// setWeight changes a pool's weight and returns the previous value. The same
// settle-first discipline as add applies.
func (r *PoolRegistry) setWeight(index, weight uint64) (uint64, error) {
	total, err := r.checkSetWeight(index, weight)
	if err != nil {
		return 0, err
	}
	pool := r.pools[index]
	old := pool.AllocWeight
	pool.AllocWeight = weight
	r.totalWeight = total
	return old, nil
}

// Clone returns a deep copy of the registry.
func (r *PoolRegistry) Clone() *PoolRegistry {
	if r == nil {
		return NewPoolRegistry()
	}
	clone := &PoolRegistry{
		pools:       make([]*Pool, len(r.pools)),
		totalWeight: r.totalWeight,
		byToken:     make(map[[20]byte]uint64, len(r.byToken)),
	}
	for i, pool := range r.pools {
		clone.pools[i] = pool.Clone()
	}
	for token, idx := range r.byToken {
		clone.byToken[token] = idx
	}
	return clone
}
