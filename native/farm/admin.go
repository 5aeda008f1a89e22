package farm

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"farmchain/core/events"
	"farmchain/observability/metrics"
)

// AddPool appends a pool for token with the supplied weight. Every existing
// pool is settled first so the new total weight only applies going forward.
func (e *Engine) AddPool(caller, token [20]byte, weight uint64) (index uint64, err error) {
	defer func() { e.observe("add_pool", err) }()
	if err := e.beginAdmin(caller); err != nil {
		return 0, err
	}
	defer e.end()
	if err := e.registry.checkAdd(token, weight); err != nil {
		return 0, err
	}

	cp := e.checkpointAll()
	attributed, err := e.settleAll()
	if err == nil {
		index, err = e.registry.add(token, weight, e.blockTime)
	}
	if err == nil {
		err = e.execute([]transfer{{kind: mintReserve, token: e.rewardToken, amount: attributed}})
	}
	if err != nil {
		e.restore(cp)
		return 0, err
	}

	e.emit(events.FarmPoolAdded{PoolIndex: index, Token: token, Weight: weight, TotalWeight: e.registry.TotalWeight()})
	e.log().Info("farm pool added",
		slog.Uint64("pool", index),
		slog.String("token", hexAddr(token)),
		slog.Uint64("weight", weight))
	metrics.Farm().SetPools(e.registry.Len())
	return index, nil
}

// SetWeight changes a pool's allocation weight after settling every pool.
func (e *Engine) SetWeight(caller [20]byte, poolIndex, weight uint64) (err error) {
	defer func() { e.observe("set_weight", err) }()
	if err := e.beginAdmin(caller); err != nil {
		return err
	}
	defer e.end()
	if _, err := e.registry.checkSetWeight(poolIndex, weight); err != nil {
		return err
	}

	cp := e.checkpointAll()
	var old uint64
	attributed, err := e.settleAll()
	if err == nil {
		old, err = e.registry.setWeight(poolIndex, weight)
	}
	if err == nil {
		err = e.execute([]transfer{{kind: mintReserve, token: e.rewardToken, amount: attributed}})
	}
	if err != nil {
		e.restore(cp)
		return err
	}

	e.emit(events.FarmPoolWeight{PoolIndex: poolIndex, OldWeight: old, NewWeight: weight, TotalWeight: e.registry.TotalWeight()})
	e.log().Info("farm pool weight updated",
		slog.Uint64("pool", poolIndex),
		slog.Uint64("old", old),
		slog.Uint64("new", weight))
	return nil
}

// SetRewardRate changes the global emission rate. Accrual up to the current
// block time is settled under the old rate.
func (e *Engine) SetRewardRate(caller [20]byte, rate *big.Int) (err error) {
	defer func() { e.observe("set_reward_rate", err) }()
	if err := e.beginAdmin(caller); err != nil {
		return err
	}
	defer e.end()
	if err := validateAmount(rate); err != nil {
		return err
	}

	cp := e.checkpointAll()
	old := e.scheduler.RewardPerSecond()
	attributed, err := e.settleAll()
	if err == nil {
		e.scheduler.setRate(rate)
		err = e.execute([]transfer{{kind: mintReserve, token: e.rewardToken, amount: attributed}})
	}
	if err != nil {
		e.restore(cp)
		return err
	}

	e.emit(events.FarmRateUpdated{OldRate: old, NewRate: cloneBigInt(rate)})
	e.log().Info("farm reward rate updated",
		slog.String("old", old.String()),
		slog.String("new", rate.String()))
	return nil
}

// SetBooster installs or clears (nil) the booster hook. Positions pick up the
// new policy at their next settlement.
func (e *Engine) SetBooster(caller [20]byte, booster Booster) (err error) {
	defer func() { e.observe("set_booster", err) }()
	if err := e.beginAdmin(caller); err != nil {
		return err
	}
	defer e.end()
	e.booster = booster
	e.emit(events.FarmBoosterUpdated{Enabled: booster != nil})
	e.log().Info("farm booster updated", slog.Bool("enabled", booster != nil))
	return nil
}

// TransferOwnership hands administration to next.
func (e *Engine) TransferOwnership(caller, next [20]byte) (err error) {
	defer func() { e.observe("transfer_ownership", err) }()
	if err := e.beginAdmin(caller); err != nil {
		return err
	}
	defer e.end()
	if next == ([20]byte{}) {
		return fmt.Errorf("%w: new owner must be set", ErrInvalidAddress)
	}
	previous := e.owner
	e.owner = next
	e.emit(events.FarmOwnerTransferred{Previous: previous, Next: next})
	e.log().Info("farm ownership transferred",
		slog.String("previous", hexAddr(previous)),
		slog.String("next", hexAddr(next)))
	return nil
}

func (e *Engine) beginAdmin(caller [20]byte) error {
	if err := e.begin(false); err != nil {
		return err
	}
	if caller != e.owner {
		e.end()
		return fmt.Errorf("%w: %s is not the owner", ErrUnauthorized, hexAddr(caller))
	}
	return nil
}

func hexAddr(addr [20]byte) string {
	return common.Address(addr).Hex()
}
