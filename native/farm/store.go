package farm

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"farmchain/storage"
	"farmchain/storage/trie"
)

var stateKey = []byte("farm/state")

type poolRecord struct {
	StakedToken       [20]byte
	AllocWeight       uint64
	LastAccrualTime   uint64
	AccRewardPerShare *big.Int
	TotalStaked       *big.Int
	TotalBoosted      *big.Int
	AccruedRewards    *big.Int
	ForgoneRewards    *big.Int
}

type positionRecord struct {
	Pool          uint64
	Account       [20]byte
	Amount        *big.Int
	BoostedAmount *big.Int
	RewardDebt    *big.Int
	RewardPaid    *big.Int
}

type engineRecord struct {
	Initialized     bool
	Owner           [20]byte
	RewardToken     [20]byte
	RewardPerSecond *big.Int
	StartTime       uint64
	BlockTime       uint64
	Pools           []poolRecord
	Positions       []positionRecord
	Emitted         *big.Int
	Accrued         *big.Int
	Forgone         *big.Int
	Paid            *big.Int
}

// Save persists the engine's accounting state. Collaborators (ledger, emitter,
// pauses, logger, booster) are not part of the record.
func (e *Engine) Save(db storage.Database) error {
	if e == nil {
		return ErrNilState
	}
	if e.entered {
		return ErrReentrantCall
	}
	rec := e.record()
	encoded, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return fmt.Errorf("farm: encode state: %w", err)
	}
	return db.Put(stateKey, encoded)
}

// StateRoot returns a Merkle Patricia commitment over the farm header, every
// pool and every non-empty position. The ambient clock is excluded so two
// engines with identical accounting share a root.
func (e *Engine) StateRoot() (common.Hash, error) {
	if e == nil {
		return common.Hash{}, ErrNilState
	}
	rec := e.record()
	c := trie.NewCommitment()
	header := headerRecord{
		Initialized:     rec.Initialized,
		Owner:           rec.Owner,
		RewardToken:     rec.RewardToken,
		RewardPerSecond: rec.RewardPerSecond,
		StartTime:       rec.StartTime,
		Emitted:         rec.Emitted,
		Accrued:         rec.Accrued,
		Forgone:         rec.Forgone,
		Paid:            rec.Paid,
	}
	if err := putRLP(c, []byte("farm"), &header); err != nil {
		return common.Hash{}, err
	}
	for i := range rec.Pools {
		if err := putRLP(c, []byte(fmt.Sprintf("pool/%d", i)), &rec.Pools[i]); err != nil {
			return common.Hash{}, err
		}
	}
	for i := range rec.Positions {
		p := &rec.Positions[i]
		if p.Amount.Sign() == 0 && p.RewardPaid.Sign() == 0 {
			continue
		}
		key := fmt.Sprintf("position/%d/%x", p.Pool, p.Account)
		if err := putRLP(c, []byte(key), p); err != nil {
			return common.Hash{}, err
		}
	}
	return c.Root()
}

type headerRecord struct {
	Initialized     bool
	Owner           [20]byte
	RewardToken     [20]byte
	RewardPerSecond *big.Int
	StartTime       uint64
	Emitted         *big.Int
	Accrued         *big.Int
	Forgone         *big.Int
	Paid            *big.Int
}

func putRLP(c *trie.Commitment, key []byte, v any) error {
	encoded, err := rlp.EncodeToBytes(v)
	if err != nil {
		return fmt.Errorf("farm: encode %s: %w", key, err)
	}
	return c.Put(key, encoded)
}

func (e *Engine) record() engineRecord {
	rec := engineRecord{
		Initialized:     e.initialized,
		Owner:           e.owner,
		RewardToken:     e.rewardToken,
		RewardPerSecond: e.scheduler.RewardPerSecond(),
		StartTime:       e.scheduler.StartTime(),
		BlockTime:       e.blockTime,
		Emitted:         cloneBigInt(e.totals.Emitted),
		Accrued:         cloneBigInt(e.totals.Accrued),
		Forgone:         cloneBigInt(e.totals.Forgone),
		Paid:            cloneBigInt(e.totals.Paid),
	}
	for _, pool := range e.registry.pools {
		rec.Pools = append(rec.Pools, poolRecord{
			StakedToken:       pool.StakedToken,
			AllocWeight:       pool.AllocWeight,
			LastAccrualTime:   pool.LastAccrualTime,
			AccRewardPerShare: cloneBigInt(pool.AccRewardPerShare),
			TotalStaked:       cloneBigInt(pool.TotalStaked),
			TotalBoosted:      cloneBigInt(pool.TotalBoosted),
			AccruedRewards:    cloneBigInt(pool.AccruedRewards),
			ForgoneRewards:    cloneBigInt(pool.ForgoneRewards),
		})
	}
	for key, position := range e.positions {
		rec.Positions = append(rec.Positions, positionRecord{
			Pool:          key.pool,
			Account:       key.account,
			Amount:        cloneBigInt(position.Amount),
			BoostedAmount: cloneBigInt(position.BoostedAmount),
			RewardDebt:    cloneBigInt(position.RewardDebt),
			RewardPaid:    cloneBigInt(position.RewardPaid),
		})
	}
	sort.Slice(rec.Positions, func(i, j int) bool {
		if rec.Positions[i].Pool != rec.Positions[j].Pool {
			return rec.Positions[i].Pool < rec.Positions[j].Pool
		}
		return bytes.Compare(rec.Positions[i].Account[:], rec.Positions[j].Account[:]) < 0
	})
	return rec
}

// LoadEngine restores an engine from db and attaches booster. A database with
// no record yields a fresh uninitialised engine.
func LoadEngine(db storage.Database, booster Booster) (*Engine, error) {
	data, err := db.Get(stateKey)
	if errors.Is(err, storage.ErrNotFound) {
		return NewEngine(), nil
	}
	if err != nil {
		return nil, err
	}
	var rec engineRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return nil, fmt.Errorf("farm: decode state: %w", err)
	}

	e := NewEngine()
	if !rec.Initialized {
		e.blockTime = rec.BlockTime
		return e, nil
	}
	registry := NewPoolRegistry()
	for i, p := range rec.Pools {
		if _, exists := registry.byToken[p.StakedToken]; exists {
			return nil, fmt.Errorf("farm: decode state: %w: pool %d", ErrDuplicateToken, i)
		}
		registry.pools = append(registry.pools, &Pool{
			StakedToken:       p.StakedToken,
			AllocWeight:       p.AllocWeight,
			LastAccrualTime:   p.LastAccrualTime,
			AccRewardPerShare: p.AccRewardPerShare,
			TotalStaked:       p.TotalStaked,
			TotalBoosted:      p.TotalBoosted,
			AccruedRewards:    p.AccruedRewards,
			ForgoneRewards:    p.ForgoneRewards,
		})
		registry.byToken[p.StakedToken] = uint64(i)
		registry.totalWeight += p.AllocWeight
	}
	for _, p := range rec.Positions {
		if p.Pool >= registry.Len() {
			return nil, fmt.Errorf("farm: decode state: %w: position in pool %d", ErrInvalidPool, p.Pool)
		}
		e.positions[positionKey{pool: p.Pool, account: p.Account}] = &Position{
			Amount:        p.Amount,
			BoostedAmount: p.BoostedAmount,
			RewardDebt:    p.RewardDebt,
			RewardPaid:    p.RewardPaid,
		}
	}
	e.initialized = true
	e.owner = rec.Owner
	e.rewardToken = rec.RewardToken
	e.booster = booster
	e.scheduler = NewRewardScheduler(rec.RewardPerSecond, rec.StartTime)
	e.registry = registry
	e.blockTime = rec.BlockTime
	e.totals = Totals{Emitted: rec.Emitted, Accrued: rec.Accrued, Forgone: rec.Forgone, Paid: rec.Paid}
	return e, nil
}
