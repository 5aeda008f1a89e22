package farm

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"farmchain/core/events"
	nativecommon "farmchain/native/common"
	"farmchain/observability/metrics"
)

const moduleName = "farm"

// TokenLedger moves tokens on behalf of the farm. Every failure is surfaced to
// callers as ErrTransferFailed.
type TokenLedger interface {
	TransferIn(token, from [20]byte, amount *big.Int) error
	TransferOut(token, to [20]byte, amount *big.Int) error
	MintOrReserve(token [20]byte, amount *big.Int) error
}

// LedgerJournal is implemented by ledgers that can roll back their own
// mutations. When available the engine reverts the ledger together with its
// own state if any token movement in a call fails.
type LedgerJournal interface {
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// InitParams are the one-time deployment parameters. They are applied exactly
// as supplied.
type InitParams struct {
	RewardToken      [20]byte
	RewardPerSecond  *big.Int
	Owner            [20]byte
	FirstStakedToken [20]byte
	Booster          Booster
	StartTime        uint64
}

type positionKey struct {
	pool    uint64
	account [20]byte
}

// Engine is the farm's pool and reward accounting engine. It is not safe for
// concurrent use; hosts must serialise calls.
type Engine struct {
	ledger  TokenLedger
	emitter events.Emitter
	pauses  nativecommon.PauseView
	logger  *slog.Logger

	blockTime uint64
	entered   bool

	initialized bool
	owner       [20]byte
	rewardToken [20]byte
	booster     Booster
	scheduler   *RewardScheduler
	registry    *PoolRegistry
	positions   map[positionKey]*Position
	totals      Totals
}

// NewEngine constructs an uninitialised farm engine.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		registry:  NewPoolRegistry(),
		positions: make(map[positionKey]*Position),
		totals:    zeroTotals(),
	}
}

// SetLedger wires the token collaborator.
func (e *Engine) SetLedger(ledger TokenLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter. Passing nil resets the emitter to a
// no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetLogger configures the structured logger. Nil selects slog.Default().
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil {
		return
	}
	e.logger = logger
}

// SetBlockTimestamp records the ambient time used by subsequent calls.
func (e *Engine) SetBlockTimestamp(ts uint64) {
	if e == nil {
		return
	}
	e.blockTime = ts
}

// BlockTimestamp returns the ambient time.
func (e *Engine) BlockTimestamp() uint64 {
	if e == nil {
		return 0
	}
	return e.blockTime
}

// Initialize performs the one-time setup and creates the first pool.
func (e *Engine) Initialize(params InitParams) (err error) {
	defer func() { e.observe("initialize", err) }()
	if e == nil {
		return ErrNilState
	}
	if e.initialized {
		return ErrAlreadyInitialized
	}
	if e.entered {
		return ErrReentrantCall
	}
	if params.Owner == ([20]byte{}) {
		return fmt.Errorf("%w: owner must be set", ErrInvalidAddress)
	}
	if params.RewardToken == ([20]byte{}) {
		return fmt.Errorf("%w: reward token must be set", ErrInvalidAddress)
	}
	if params.RewardPerSecond == nil || params.RewardPerSecond.Sign() < 0 {
		return fmt.Errorf("%w: reward rate must be non-negative", ErrInvalidAmount)
	}
	if _, err := toWord(params.RewardPerSecond); err != nil {
		return err
	}
	registry := NewPoolRegistry()
	if _, err := registry.add(params.FirstStakedToken, DefaultPoolWeight, e.blockTime); err != nil {
		return err
	}

	e.registry = registry
	e.positions = make(map[positionKey]*Position)
	e.totals = zeroTotals()
	e.scheduler = NewRewardScheduler(params.RewardPerSecond, params.StartTime)
	e.owner = params.Owner
	e.rewardToken = params.RewardToken
	e.booster = params.Booster
	e.initialized = true

	e.emit(events.FarmInitialized{
		Owner:           params.Owner,
		RewardToken:     params.RewardToken,
		RewardPerSecond: cloneBigInt(params.RewardPerSecond),
		FirstToken:      params.FirstStakedToken,
		StartTime:       params.StartTime,
		Boosted:         params.Booster != nil,
	})
	e.log().Info("farm initialized",
		slog.String("owner", hexAddr(params.Owner)),
		slog.String("rewardToken", hexAddr(params.RewardToken)),
		slog.String("rewardPerSecond", params.RewardPerSecond.String()),
		slog.Uint64("startTime", params.StartTime))
	metrics.Farm().SetPools(e.registry.Len())
	return nil
}

// Deposit stakes amount into the pool and pays out any pending reward. The
// paid reward is returned.
func (e *Engine) Deposit(depositor [20]byte, poolIndex uint64, amount *big.Int) (reward *big.Int, err error) {
	defer func() { e.observe("deposit", err) }()
	if err := e.begin(true); err != nil {
		return nil, err
	}
	defer e.end()
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := checkDepositor(depositor); err != nil {
		return nil, err
	}
	if _, err := e.registry.Pool(poolIndex); err != nil {
		return nil, err
	}

	cp := e.checkpointPosition(poolIndex, depositor)
	s, err := e.settle(poolIndex, depositor)
	if err != nil {
		e.restore(cp)
		return nil, err
	}
	newAmount, err := CheckedAdd(s.position.Amount, amount)
	if err == nil {
		err = e.applyStake(s, depositor, newAmount)
	}
	if err == nil {
		err = e.recordPayout(s)
	}
	if err != nil {
		e.restore(cp)
		return nil, err
	}
	e.track(s, depositor)

	if err := e.execute([]transfer{
		{kind: transferIn, token: s.pool.StakedToken, account: depositor, amount: amount},
		{kind: mintReserve, token: e.rewardToken, amount: s.accrual.Attributed},
		{kind: transferOut, token: e.rewardToken, account: depositor, amount: s.pending},
	}); err != nil {
		e.restore(cp)
		return nil, err
	}

	e.emitPosition(events.TypeFarmDeposit, s, depositor, amount)
	return cloneBigInt(s.pending), nil
}

// Withdraw releases amount of principal and pays out any pending reward. The
// paid reward is returned.
func (e *Engine) Withdraw(depositor [20]byte, poolIndex uint64, amount *big.Int) (reward *big.Int, err error) {
	defer func() { e.observe("withdraw", err) }()
	if err := e.begin(true); err != nil {
		return nil, err
	}
	defer e.end()
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := checkDepositor(depositor); err != nil {
		return nil, err
	}
	if _, err := e.registry.Pool(poolIndex); err != nil {
		return nil, err
	}
	current := e.positions[positionKey{pool: poolIndex, account: depositor}]
	if amount.Sign() > 0 && (current == nil || current.Amount.Cmp(amount) < 0) {
		held := big.NewInt(0)
		if current != nil {
			held = current.Amount
		}
		return nil, fmt.Errorf("%w: requested %s, staked %s", ErrInsufficientStake, amount, held)
	}

	cp := e.checkpointPosition(poolIndex, depositor)
	s, err := e.settle(poolIndex, depositor)
	if err != nil {
		e.restore(cp)
		return nil, err
	}
	newAmount, err := CheckedSub(s.position.Amount, amount)
	if err == nil {
		err = e.applyStake(s, depositor, newAmount)
	}
	if err == nil {
		err = e.recordPayout(s)
	}
	if err != nil {
		e.restore(cp)
		return nil, err
	}

	if err := e.execute([]transfer{
		{kind: mintReserve, token: e.rewardToken, amount: s.accrual.Attributed},
		{kind: transferOut, token: e.rewardToken, account: depositor, amount: s.pending},
		{kind: transferOut, token: s.pool.StakedToken, account: depositor, amount: amount},
	}); err != nil {
		e.restore(cp)
		return nil, err
	}

	e.emitPosition(events.TypeFarmWithdraw, s, depositor, amount)
	return cloneBigInt(s.pending), nil
}

// Harvest pays out the pending reward without changing the stake.
func (e *Engine) Harvest(depositor [20]byte, poolIndex uint64) (reward *big.Int, err error) {
	defer func() { e.observe("harvest", err) }()
	if err := e.begin(true); err != nil {
		return nil, err
	}
	defer e.end()
	if err := checkDepositor(depositor); err != nil {
		return nil, err
	}
	if _, err := e.registry.Pool(poolIndex); err != nil {
		return nil, err
	}

	cp := e.checkpointPosition(poolIndex, depositor)
	s, err := e.settle(poolIndex, depositor)
	if err == nil {
		err = e.applyStake(s, depositor, s.position.Amount)
	}
	if err == nil {
		err = e.recordPayout(s)
	}
	if err != nil {
		e.restore(cp)
		return nil, err
	}

	if err := e.execute([]transfer{
		{kind: mintReserve, token: e.rewardToken, amount: s.accrual.Attributed},
		{kind: transferOut, token: e.rewardToken, account: depositor, amount: s.pending},
	}); err != nil {
		e.restore(cp)
		return nil, err
	}

	e.emitPosition(events.TypeFarmHarvest, s, depositor, big.NewInt(0))
	return cloneBigInt(s.pending), nil
}

// EmergencyWithdraw returns the whole principal and forfeits the pending
// reward. It stays available while the module is paused.
func (e *Engine) EmergencyWithdraw(depositor [20]byte, poolIndex uint64) (principal *big.Int, err error) {
	defer func() { e.observe("emergency_withdraw", err) }()
	if err := e.begin(false); err != nil {
		return nil, err
	}
	defer e.end()
	if err := checkDepositor(depositor); err != nil {
		return nil, err
	}
	if _, err := e.registry.Pool(poolIndex); err != nil {
		return nil, err
	}

	cp := e.checkpointPosition(poolIndex, depositor)
	s, err := e.settle(poolIndex, depositor)
	if err != nil {
		e.restore(cp)
		return nil, err
	}
	principal = cloneBigInt(s.position.Amount)
	s.pending = big.NewInt(0)
	if err := e.applyStake(s, depositor, big.NewInt(0)); err != nil {
		e.restore(cp)
		return nil, err
	}

	if err := e.execute([]transfer{
		{kind: mintReserve, token: e.rewardToken, amount: s.accrual.Attributed},
		{kind: transferOut, token: s.pool.StakedToken, account: depositor, amount: principal},
	}); err != nil {
		e.restore(cp)
		return nil, err
	}

	if !s.tracked {
		return principal, nil
	}
	e.emitPosition(events.TypeFarmEmergencyWithdraw, s, depositor, principal)
	e.log().Warn("emergency withdraw",
		slog.Uint64("pool", poolIndex),
		slog.String("account", hexAddr(depositor)),
		slog.String("principal", principal.String()))
	return principal, nil
}

// UpdatePool catches a single pool up to the current block time.
func (e *Engine) UpdatePool(poolIndex uint64) (err error) {
	defer func() { e.observe("update_pool", err) }()
	if err := e.begin(false); err != nil {
		return err
	}
	defer e.end()
	pool, err := e.registry.Pool(poolIndex)
	if err != nil {
		return err
	}
	cp := &checkpoint{poolIndex: poolIndex, pool: pool.Clone(), hasPool: true, totals: e.totals.Clone()}
	accrual, err := e.scheduler.Accrue(pool, e.registry.TotalWeight(), e.blockTime)
	if err == nil {
		err = e.recordAccrual(accrual)
	}
	if err == nil {
		err = e.execute([]transfer{{kind: mintReserve, token: e.rewardToken, amount: accrual.Attributed}})
	}
	if err != nil {
		e.restore(cp)
		return err
	}
	metrics.Farm().SetPoolState(poolIndex, pool.TotalStaked, pool.AccRewardPerShare)
	return nil
}

// MassUpdatePools catches every pool up to the current block time.
func (e *Engine) MassUpdatePools() (err error) {
	defer func() { e.observe("mass_update_pools", err) }()
	if err := e.begin(false); err != nil {
		return err
	}
	defer e.end()
	cp := e.checkpointAll()
	attributed, err := e.settleAll()
	if err == nil {
		err = e.execute([]transfer{{kind: mintReserve, token: e.rewardToken, amount: attributed}})
	}
	if err != nil {
		e.restore(cp)
		return err
	}
	return nil
}

// PendingReward projects the reward the depositor could harvest at the current
// block time without mutating state.
func (e *Engine) PendingReward(poolIndex uint64, depositor [20]byte) (*big.Int, error) {
	if err := e.readable(); err != nil {
		return nil, err
	}
	pool, err := e.registry.Pool(poolIndex)
	if err != nil {
		return nil, err
	}
	position, ok := e.positions[positionKey{pool: poolIndex, account: depositor}]
	if !ok {
		return big.NewInt(0), nil
	}
	acc, err := e.scheduler.Project(pool, e.registry.TotalWeight(), e.blockTime)
	if err != nil {
		return nil, err
	}
	return pendingFor(position.BoostedAmount, acc, position.RewardDebt)
}

// GetAllPoolsLength returns the number of pools.
func (e *Engine) GetAllPoolsLength() uint64 {
	if e == nil {
		return 0
	}
	return e.registry.Len()
}

// Initialized reports whether Initialize has succeeded.
func (e *Engine) Initialized() bool { return e != nil && e.initialized }

// Owner returns the current administrator.
func (e *Engine) Owner() [20]byte { return e.owner }

// NativeToken returns the reward token identifier.
func (e *Engine) NativeToken() [20]byte { return e.rewardToken }

// RewardPerSecond returns the global emission rate.
func (e *Engine) RewardPerSecond() *big.Int { return e.scheduler.RewardPerSecond() }

// StartTime returns the accrual start time.
func (e *Engine) StartTime() uint64 { return e.scheduler.StartTime() }

// TotalWeight returns the sum of all pool weights.
func (e *Engine) TotalWeight() uint64 { return e.registry.TotalWeight() }

// HasBooster reports whether a booster hook is configured.
func (e *Engine) HasBooster() bool { return e.booster != nil }

// PoolInfo returns a copy of the pool at index.
func (e *Engine) PoolInfo(poolIndex uint64) (*Pool, error) {
	if err := e.readable(); err != nil {
		return nil, err
	}
	pool, err := e.registry.Pool(poolIndex)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// UserInfo returns a copy of the depositor's position. Positions that were
// never opened are reported as empty.
func (e *Engine) UserInfo(poolIndex uint64, depositor [20]byte) (*Position, error) {
	if err := e.readable(); err != nil {
		return nil, err
	}
	if _, err := e.registry.Pool(poolIndex); err != nil {
		return nil, err
	}
	position, ok := e.positions[positionKey{pool: poolIndex, account: depositor}]
	if !ok {
		return newPosition(), nil
	}
	return position.Clone(), nil
}

// Totals returns the farm-wide emission and payout sums.
func (e *Engine) Totals() Totals { return e.totals.Clone() }

// --- settlement ---

type settlement struct {
	index    uint64
	pool     *Pool
	position *Position
	pending  *big.Int
	accrual  Accrual
	tracked  bool
}

// settle runs the pool catch-up and computes the position's pending reward.
// An account without a position settles against a detached empty one; track
// stores it once it holds stake.
func (e *Engine) settle(poolIndex uint64, account [20]byte) (*settlement, error) {
	pool, err := e.registry.Pool(poolIndex)
	if err != nil {
		return nil, err
	}
	accrual, err := e.scheduler.Accrue(pool, e.registry.TotalWeight(), e.blockTime)
	if err != nil {
		return nil, err
	}
	if err := e.recordAccrual(accrual); err != nil {
		return nil, err
	}
	key := positionKey{pool: poolIndex, account: account}
	position, tracked := e.positions[key]
	if !tracked {
		position = newPosition()
	}
	pending, err := pendingFor(position.BoostedAmount, pool.AccRewardPerShare, position.RewardDebt)
	if err != nil {
		return nil, err
	}
	return &settlement{index: poolIndex, pool: pool, position: position, pending: pending, accrual: accrual, tracked: tracked}, nil
}

func (e *Engine) track(s *settlement, account [20]byte) {
	if s.tracked || s.position.IsEmpty() {
		return
	}
	e.positions[positionKey{pool: s.index, account: account}] = s.position
	s.tracked = true
}

func (e *Engine) settleAll() (*big.Int, error) {
	attributed := big.NewInt(0)
	total := e.registry.TotalWeight()
	for _, pool := range e.registry.pools {
		accrual, err := e.scheduler.Accrue(pool, total, e.blockTime)
		if err != nil {
			return nil, err
		}
		if err := e.recordAccrual(accrual); err != nil {
			return nil, err
		}
		attributed.Add(attributed, accrual.Attributed)
	}
	return attributed, nil
}

// applyStake moves the position to newAmount and re-prices its reward debt
// against the already settled accumulator.
func (e *Engine) applyStake(s *settlement, account [20]byte, newAmount *big.Int) error {
	boosted := effectiveStake(e.booster, account, s.index, newAmount)
	staked, err := CheckedSub(s.pool.TotalStaked, s.position.Amount)
	if err != nil {
		return err
	}
	if staked, err = CheckedAdd(staked, newAmount); err != nil {
		return err
	}
	totalBoosted, err := CheckedSub(s.pool.TotalBoosted, s.position.BoostedAmount)
	if err != nil {
		return err
	}
	if totalBoosted, err = CheckedAdd(totalBoosted, boosted); err != nil {
		return err
	}
	debt, err := debtFor(boosted, s.pool.AccRewardPerShare)
	if err != nil {
		return err
	}
	s.pool.TotalStaked = staked
	s.pool.TotalBoosted = totalBoosted
	s.position.Amount = cloneBigInt(newAmount)
	s.position.BoostedAmount = boosted
	s.position.RewardDebt = debt
	return nil
}

func (e *Engine) recordAccrual(a Accrual) error {
	emitted, err := CheckedAdd(e.totals.Emitted, a.Emitted)
	if err != nil {
		return err
	}
	accrued, err := CheckedAdd(e.totals.Accrued, a.Attributed)
	if err != nil {
		return err
	}
	forgone, err := CheckedAdd(e.totals.Forgone, a.Forgone)
	if err != nil {
		return err
	}
	e.totals.Emitted, e.totals.Accrued, e.totals.Forgone = emitted, accrued, forgone
	return nil
}

func (e *Engine) recordPayout(s *settlement) error {
	if !isPositive(s.pending) {
		return nil
	}
	paid, err := CheckedAdd(e.totals.Paid, s.pending)
	if err != nil {
		return err
	}
	positionPaid, err := CheckedAdd(s.position.RewardPaid, s.pending)
	if err != nil {
		return err
	}
	e.totals.Paid = paid
	s.position.RewardPaid = positionPaid
	return nil
}

// --- call lifecycle ---

func (e *Engine) begin(pausable bool) error {
	if e == nil {
		return ErrNilState
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	if e.ledger == nil {
		return fmt.Errorf("%w: token ledger not configured", ErrNilState)
	}
	if e.entered {
		return ErrReentrantCall
	}
	if pausable {
		if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
			return err
		}
	}
	e.entered = true
	return nil
}

func (e *Engine) end() {
	e.entered = false
}

type checkpoint struct {
	registry  *PoolRegistry
	scheduler *RewardScheduler
	owner     [20]byte
	booster   Booster

	poolIndex uint64
	pool      *Pool
	hasPool   bool

	key      positionKey
	position *Position
	hasPos   bool
	existed  bool

	totals Totals
}

func (e *Engine) checkpointPosition(poolIndex uint64, account [20]byte) *checkpoint {
	key := positionKey{pool: poolIndex, account: account}
	existing, ok := e.positions[key]
	return &checkpoint{
		poolIndex: poolIndex,
		pool:      e.registry.pools[poolIndex].Clone(),
		hasPool:   true,
		key:       key,
		position:  existing.Clone(),
		hasPos:    true,
		existed:   ok,
		totals:    e.totals.Clone(),
	}
}

func (e *Engine) checkpointAll() *checkpoint {
	return &checkpoint{
		registry:  e.registry.Clone(),
		scheduler: e.scheduler.Clone(),
		owner:     e.owner,
		booster:   e.booster,
		totals:    e.totals.Clone(),
	}
}

func (e *Engine) restore(cp *checkpoint) {
	if cp == nil {
		return
	}
	if cp.registry != nil {
		e.registry = cp.registry
		e.scheduler = cp.scheduler
		e.owner = cp.owner
		e.booster = cp.booster
	}
	if cp.hasPool {
		e.registry.pools[cp.poolIndex] = cp.pool
	}
	if cp.hasPos {
		if cp.existed {
			e.positions[cp.key] = cp.position
		} else {
			delete(e.positions, cp.key)
		}
	}
	e.totals = cp.totals
}

// --- interactions ---

type transferKind int

const (
	transferIn transferKind = iota
	transferOut
	mintReserve
)

func (k transferKind) String() string {
	switch k {
	case transferIn:
		return "transferIn"
	case transferOut:
		return "transferOut"
	case mintReserve:
		return "mintOrReserve"
	default:
		return "unknown"
	}
}

type transfer struct {
	kind    transferKind
	token   [20]byte
	account [20]byte
	amount  *big.Int
}

// execute performs the token movements in order once all bookkeeping is done.
// On failure the ledger is reverted when it supports journaling; otherwise
// principal already pulled in is returned.
func (e *Engine) execute(steps []transfer) error {
	journal, journaled := e.ledger.(LedgerJournal)
	snapshot := 0
	if journaled {
		snapshot = journal.Snapshot()
	}
	completed := make([]transfer, 0, len(steps))
	for _, step := range steps {
		if !isPositive(step.amount) {
			continue
		}
		var err error
		switch step.kind {
		case transferIn:
			err = e.ledger.TransferIn(step.token, step.account, step.amount)
		case transferOut:
			err = e.ledger.TransferOut(step.token, step.account, step.amount)
		case mintReserve:
			err = e.ledger.MintOrReserve(step.token, step.amount)
		}
		if err == nil {
			completed = append(completed, step)
			continue
		}
		if journaled {
			journal.RevertToSnapshot(snapshot)
		} else {
			err = errors.Join(err, e.compensate(completed))
		}
		e.log().Warn("token movement rejected",
			slog.String("op", step.kind.String()),
			slog.String("token", hexAddr(step.token)),
			slog.String("amount", step.amount.String()),
			slog.Any("error", err))
		return fmt.Errorf("%w: %s: %w", ErrTransferFailed, step.kind, err)
	}
	if journaled {
		journal.DiscardSnapshot(snapshot)
	}
	return nil
}

func (e *Engine) compensate(completed []transfer) error {
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.kind != transferIn {
			continue
		}
		if err := e.ledger.TransferOut(step.token, step.account, step.amount); err != nil {
			errs = append(errs, fmt.Errorf("refund %s: %w", step.amount, err))
		}
	}
	return errors.Join(errs...)
}

// --- helpers ---

func (e *Engine) emit(event events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) emitPosition(kind string, s *settlement, account [20]byte, amount *big.Int) {
	if !s.tracked {
		return
	}
	e.emit(events.FarmPositionChanged{
		Type:      kind,
		PoolIndex: s.index,
		Account:   account,
		Amount:    cloneBigInt(amount),
		Reward:    cloneBigInt(s.pending),
		NewAmount: cloneBigInt(s.position.Amount),
		Timestamp: e.blockTime,
	})
	m := metrics.Farm()
	m.AddRewardsPaid(s.index, s.pending)
	m.SetPoolState(s.index, s.pool.TotalStaked, s.pool.AccRewardPerShare)
}

func (e *Engine) observe(op string, err error) {
	metrics.Farm().ObserveOperation(op, err)
	if err != nil && e != nil {
		e.log().Debug("farm call rejected", slog.String("op", op), slog.Any("error", err))
	}
}

func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func (e *Engine) readable() error {
	if e == nil {
		return ErrNilState
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

func checkDepositor(depositor [20]byte) error {
	if depositor == ([20]byte{}) {
		return fmt.Errorf("%w: depositor must be set", ErrInvalidAddress)
	}
	return nil
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if _, err := toWord(amount); err != nil {
		return err
	}
	return nil
}
