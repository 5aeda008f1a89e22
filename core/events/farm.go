package events

import (
	"math/big"

	"farmchain/core/types"
)

const (
	// TypeFarmInitialized is emitted once when the farm is configured.
	TypeFarmInitialized = "farm.initialized"
	// TypeFarmPoolAdded is emitted when a new staking pool is appended.
	TypeFarmPoolAdded = "farm.pool.added"
	// TypeFarmPoolWeight is emitted when a pool's allocation weight changes.
	TypeFarmPoolWeight = "farm.pool.weight"
	// TypeFarmRateUpdated is emitted when the global emission rate changes.
	TypeFarmRateUpdated = "farm.rate.updated"
	// TypeFarmBoosterUpdated is emitted when the booster hook is set or cleared.
	TypeFarmBoosterUpdated = "farm.booster.updated"
	// TypeFarmOwnerTransferred is emitted when administration moves to a new owner.
	TypeFarmOwnerTransferred = "farm.owner.transferred"
	// TypeFarmDeposit is emitted after a successful deposit.
	TypeFarmDeposit = "farm.deposit"
	// TypeFarmWithdraw is emitted after a successful withdrawal.
	TypeFarmWithdraw = "farm.withdraw"
	// TypeFarmHarvest is emitted after a reward-only claim.
	TypeFarmHarvest = "farm.harvest"
	// TypeFarmEmergencyWithdraw is emitted when principal is returned without
	// rewards.
	TypeFarmEmergencyWithdraw = "farm.emergencyWithdraw"
)

// FarmInitialized records the deployment parameters.
type FarmInitialized struct {
	Owner           [20]byte
	RewardToken     [20]byte
	RewardPerSecond *big.Int
	FirstToken      [20]byte
	StartTime       uint64
	Boosted         bool
}

// EventType satisfies the Event interface.
func (FarmInitialized) EventType() string { return TypeFarmInitialized }

// Event converts the structured payload into a broadcastable event.
func (e FarmInitialized) Event() *types.Event {
	attrs := map[string]string{
		"owner":           formatAddress(e.Owner),
		"rewardToken":     formatAddress(e.RewardToken),
		"rewardPerSecond": formatAmount(e.RewardPerSecond),
		"firstToken":      formatAddress(e.FirstToken),
		"startTime":       formatUint(e.StartTime),
	}
	if e.Boosted {
		attrs["booster"] = "true"
	}
	return &types.Event{Type: TypeFarmInitialized, Attributes: attrs}
}

// FarmPoolAdded captures a pool registration.
type FarmPoolAdded struct {
	PoolIndex   uint64
	Token       [20]byte
	Weight      uint64
	TotalWeight uint64
}

// EventType satisfies the Event interface.
func (FarmPoolAdded) EventType() string { return TypeFarmPoolAdded }

// Event converts the structured payload into a broadcastable event.
func (e FarmPoolAdded) Event() *types.Event {
	return &types.Event{Type: TypeFarmPoolAdded, Attributes: map[string]string{
		"pool":        formatUint(e.PoolIndex),
		"token":       formatAddress(e.Token),
		"weight":      formatUint(e.Weight),
		"totalWeight": formatUint(e.TotalWeight),
	}}
}

// FarmPoolWeight captures an allocation weight change.
type FarmPoolWeight struct {
	PoolIndex   uint64
	OldWeight   uint64
	NewWeight   uint64
	TotalWeight uint64
}

// EventType satisfies the Event interface.
func (FarmPoolWeight) EventType() string { return TypeFarmPoolWeight }

// Event converts the structured payload into a broadcastable event.
func (e FarmPoolWeight) Event() *types.Event {
	return &types.Event{Type: TypeFarmPoolWeight, Attributes: map[string]string{
		"pool":        formatUint(e.PoolIndex),
		"oldWeight":   formatUint(e.OldWeight),
		"newWeight":   formatUint(e.NewWeight),
		"totalWeight": formatUint(e.TotalWeight),
	}}
}

// FarmRateUpdated captures an emission rate change.
type FarmRateUpdated struct {
	OldRate *big.Int
	NewRate *big.Int
}

// EventType satisfies the Event interface.
func (FarmRateUpdated) EventType() string { return TypeFarmRateUpdated }

// Event converts the structured payload into a broadcastable event.
func (e FarmRateUpdated) Event() *types.Event {
	return &types.Event{Type: TypeFarmRateUpdated, Attributes: map[string]string{
		"oldRate": formatAmount(e.OldRate),
		"newRate": formatAmount(e.NewRate),
	}}
}

// FarmBoosterUpdated records whether a booster is active after the change.
type FarmBoosterUpdated struct {
	Enabled bool
}

// EventType satisfies the Event interface.
func (FarmBoosterUpdated) EventType() string { return TypeFarmBoosterUpdated }

// Event converts the structured payload into a broadcastable event.
func (e FarmBoosterUpdated) Event() *types.Event {
	enabled := "false"
	if e.Enabled {
		enabled = "true"
	}
	return &types.Event{Type: TypeFarmBoosterUpdated, Attributes: map[string]string{"enabled": enabled}}
}

// FarmOwnerTransferred captures an ownership handover.
type FarmOwnerTransferred struct {
	Previous [20]byte
	Next     [20]byte
}

// EventType satisfies the Event interface.
func (FarmOwnerTransferred) EventType() string { return TypeFarmOwnerTransferred }

// Event converts the structured payload into a broadcastable event.
func (e FarmOwnerTransferred) Event() *types.Event {
	return &types.Event{Type: TypeFarmOwnerTransferred, Attributes: map[string]string{
		"previous": formatAddress(e.Previous),
		"next":     formatAddress(e.Next),
	}}
}

// FarmPositionChanged is shared by the depositor-facing flows. Amount is the
// principal moved (zero for harvests) and Reward the reward paid out.
type FarmPositionChanged struct {
	Type      string
	PoolIndex uint64
	Account   [20]byte
	Amount    *big.Int
	Reward    *big.Int
	NewAmount *big.Int
	Timestamp uint64
}

// EventType satisfies the Event interface.
func (e FarmPositionChanged) EventType() string { return e.Type }

// Event converts the structured payload into a broadcastable event.
func (e FarmPositionChanged) Event() *types.Event {
	attrs := map[string]string{
		"pool":      formatUint(e.PoolIndex),
		"account":   formatAddress(e.Account),
		"amount":    formatAmount(e.Amount),
		"reward":    formatAmount(e.Reward),
		"newAmount": formatAmount(e.NewAmount),
	}
	if zeroAddress(e.Account) {
		delete(attrs, "account")
	}
	return &types.Event{Type: e.Type, Timestamp: e.Timestamp, Attributes: attrs}
}
