package farm_test

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"farmchain/core/events"
	nativecommon "farmchain/native/common"
	"farmchain/native/farm"
	"farmchain/native/token"
)

const t0 uint64 = 1_000

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

var (
	owner       = addr(0x01)
	escrow      = addr(0xFA)
	rewardToken = addr(0xAA)
	tokenA      = addr(0xA1)
	tokenB      = addr(0xB1)
	alice       = addr(0x11)
	bob         = addr(0x12)
	carol       = addr(0x13)
)

const startingBalance = 1_000_000

type harness struct {
	engine   *farm.Engine
	ledger   *token.Ledger
	recorder *events.Recorder
}

func newHarness(t *testing.T, rate int64, booster farm.Booster) *harness {
	t.Helper()
	ledger := token.NewLedger(escrow)
	ledger.SetMintable(rewardToken, nil)
	for _, account := range [][20]byte{alice, bob, carol} {
		for _, tok := range [][20]byte{tokenA, tokenB} {
			if err := ledger.Mint(tok, account, big.NewInt(startingBalance)); err != nil {
				t.Fatalf("fund account: %v", err)
			}
		}
	}
	recorder := &events.Recorder{}
	engine := farm.NewEngine()
	engine.SetLedger(ledger)
	engine.SetEmitter(recorder)
	engine.SetBlockTimestamp(t0)
	err := engine.Initialize(farm.InitParams{
		RewardToken:      rewardToken,
		RewardPerSecond:  big.NewInt(rate),
		Owner:            owner,
		FirstStakedToken: tokenA,
		Booster:          booster,
		StartTime:        t0,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return &harness{engine: engine, ledger: ledger, recorder: recorder}
}

func (h *harness) at(ts uint64) *harness {
	h.engine.SetBlockTimestamp(ts)
	return h
}

func mustPending(t *testing.T, e *farm.Engine, pool uint64, account [20]byte) int64 {
	t.Helper()
	pending, err := e.PendingReward(pool, account)
	if err != nil {
		t.Fatalf("pending reward: %v", err)
	}
	return pending.Int64()
}

func mustDeposit(t *testing.T, e *farm.Engine, account [20]byte, pool uint64, amount int64) *big.Int {
	t.Helper()
	reward, err := e.Deposit(account, pool, big.NewInt(amount))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return reward
}

func samePool(a, b *farm.Pool) bool {
	return a.StakedToken == b.StakedToken &&
		a.AllocWeight == b.AllocWeight &&
		a.LastAccrualTime == b.LastAccrualTime &&
		a.AccRewardPerShare.Cmp(b.AccRewardPerShare) == 0 &&
		a.TotalStaked.Cmp(b.TotalStaked) == 0 &&
		a.TotalBoosted.Cmp(b.TotalBoosted) == 0 &&
		a.AccruedRewards.Cmp(b.AccruedRewards) == 0 &&
		a.ForgoneRewards.Cmp(b.ForgoneRewards) == 0
}

func sameTotals(a, b farm.Totals) bool {
	return a.Emitted.Cmp(b.Emitted) == 0 &&
		a.Accrued.Cmp(b.Accrued) == 0 &&
		a.Forgone.Cmp(b.Forgone) == 0 &&
		a.Paid.Cmp(b.Paid) == 0
}

func TestInitializeCreatesFirstPool(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	if e.GetAllPoolsLength() != 1 {
		t.Fatalf("expected one pool, got %d", e.GetAllPoolsLength())
	}
	if e.Owner() != owner || e.NativeToken() != rewardToken {
		t.Fatalf("unexpected owner or reward token")
	}
	if e.RewardPerSecond().Int64() != 1000 || e.StartTime() != t0 {
		t.Fatalf("unexpected schedule: rate=%s start=%d", e.RewardPerSecond(), e.StartTime())
	}
	pool, err := e.PoolInfo(0)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.StakedToken != tokenA || pool.AllocWeight != farm.DefaultPoolWeight {
		t.Fatalf("unexpected first pool: %+v", pool)
	}
	if e.HasBooster() {
		t.Fatalf("booster should be absent")
	}
	if got := h.recorder.Types(); len(got) != 1 || got[0] != events.TypeFarmInitialized {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestInitializeTwiceLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	before, _ := e.PoolInfo(0)
	beforeTotals := e.Totals()
	eventCount := len(h.recorder.Events)

	err := e.Initialize(farm.InitParams{
		RewardToken:      addr(0xEE),
		RewardPerSecond:  big.NewInt(1),
		Owner:            bob,
		FirstStakedToken: tokenB,
	})
	if !errors.Is(err, farm.ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
	after, _ := e.PoolInfo(0)
	if !samePool(before, after) || !sameTotals(beforeTotals, e.Totals()) {
		t.Fatalf("state changed by rejected initialize")
	}
	if e.Owner() != owner || e.NativeToken() != rewardToken || e.GetAllPoolsLength() != 1 {
		t.Fatalf("configuration changed by rejected initialize")
	}
	if len(h.recorder.Events) != eventCount {
		t.Fatalf("rejected initialize emitted events")
	}
}

func TestInitializeValidatesParameters(t *testing.T) {
	e := farm.NewEngine()
	err := e.Initialize(farm.InitParams{RewardToken: rewardToken, RewardPerSecond: big.NewInt(1), FirstStakedToken: tokenA})
	if !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("expected invalid owner, got %v", err)
	}
	err = e.Initialize(farm.InitParams{RewardToken: rewardToken, RewardPerSecond: big.NewInt(-1), Owner: owner, FirstStakedToken: tokenA})
	if !errors.Is(err, farm.ErrInvalidAmount) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
	if e.Initialized() {
		t.Fatalf("engine must stay uninitialised after rejected calls")
	}
	if _, err := e.PendingReward(0, alice); !errors.Is(err, farm.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestDepositorsShareEmission(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine

	if reward := mustDeposit(t, e, alice, 0, 100); reward.Sign() != 0 {
		t.Fatalf("first deposit must not pay, got %s", reward)
	}
	h.at(t0 + 10)
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("sole staker pending: expected 10000, got %d", got)
	}

	mustDeposit(t, e, bob, 0, 100)
	h.at(t0 + 20)
	if got := mustPending(t, e, 0, alice); got != 15_000 {
		t.Fatalf("alice pending: expected 15000, got %d", got)
	}
	if got := mustPending(t, e, 0, bob); got != 5_000 {
		t.Fatalf("bob pending: expected 5000, got %d", got)
	}

	reward, err := e.Withdraw(alice, 0, big.NewInt(100))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if reward.Int64() != 15_000 {
		t.Fatalf("expected payout 15000, got %s", reward)
	}
	if got := h.ledger.BalanceOf(rewardToken, alice); got.Int64() != 15_000 {
		t.Fatalf("alice reward balance: %s", got)
	}
	if got := h.ledger.BalanceOf(tokenA, alice); got.Int64() != startingBalance {
		t.Fatalf("alice principal not returned: %s", got)
	}
	position, err := e.UserInfo(0, alice)
	if err != nil {
		t.Fatalf("user info: %v", err)
	}
	if position.Amount.Sign() != 0 || mustPending(t, e, 0, alice) != 0 {
		t.Fatalf("position should be empty after full withdraw: %+v", position)
	}
	if position.RewardPaid.Int64() != 15_000 {
		t.Fatalf("unexpected reward paid %s", position.RewardPaid)
	}

	want := []string{events.TypeFarmInitialized, events.TypeFarmDeposit, events.TypeFarmDeposit, events.TypeFarmWithdraw}
	if got := h.recorder.Types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected events %v", got)
	}
	last, ok := h.recorder.Events[3].(events.FarmPositionChanged)
	if !ok {
		t.Fatalf("unexpected event payload %T", h.recorder.Events[3])
	}
	if last.Reward.Int64() != 15_000 || last.NewAmount.Sign() != 0 {
		t.Fatalf("unexpected withdraw event %+v", last)
	}
}

func TestNonOwnerCannotAdminister(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	if _, err := e.AddPool(alice, tokenB, 500); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if e.GetAllPoolsLength() != 1 {
		t.Fatalf("pool count changed by rejected addPool")
	}
	if err := e.SetWeight(alice, 0, 1); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := e.SetRewardRate(alice, big.NewInt(1)); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := e.TransferOwnership(alice, alice); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := e.SetBooster(alice, farm.NewMultiplierBooster(0)); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestAddPoolRejectsDuplicates(t *testing.T) {
	h := newHarness(t, 1000, nil)
	if _, err := h.engine.AddPool(owner, tokenA, 10); !errors.Is(err, farm.ErrDuplicateToken) {
		t.Fatalf("expected duplicate token, got %v", err)
	}
	idx, err := h.engine.AddPool(owner, tokenB, 10)
	if err != nil {
		t.Fatalf("add pool: %v", err)
	}
	if idx != 1 || h.engine.TotalWeight() != farm.DefaultPoolWeight+10 {
		t.Fatalf("unexpected registry after add: idx=%d total=%d", idx, h.engine.TotalWeight())
	}
}

func TestInvalidPoolAndStakeErrors(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	if _, err := e.Deposit(alice, 5, big.NewInt(1)); !errors.Is(err, farm.ErrInvalidPool) {
		t.Fatalf("expected invalid pool, got %v", err)
	}
	if _, err := e.PendingReward(5, alice); !errors.Is(err, farm.ErrInvalidPool) {
		t.Fatalf("expected invalid pool, got %v", err)
	}
	mustDeposit(t, e, alice, 0, 10)
	if _, err := e.Withdraw(alice, 0, big.NewInt(11)); !errors.Is(err, farm.ErrInsufficientStake) {
		t.Fatalf("expected insufficient stake, got %v", err)
	}
	if _, err := e.Withdraw(bob, 0, big.NewInt(1)); !errors.Is(err, farm.ErrInsufficientStake) {
		t.Fatalf("expected insufficient stake, got %v", err)
	}
	if _, err := e.Deposit(alice, 0, big.NewInt(-1)); !errors.Is(err, farm.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestZeroAmountDepositHarvests(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 5)
	reward := mustDeposit(t, e, alice, 0, 0)
	if reward.Int64() != 5_000 {
		t.Fatalf("expected 5000 harvested, got %s", reward)
	}
	h.at(t0 + 8)
	reward, err := e.Harvest(alice, 0)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if reward.Int64() != 3_000 {
		t.Fatalf("expected 3000 harvested, got %s", reward)
	}
	position, _ := e.UserInfo(0, alice)
	if position.Amount.Int64() != 100 {
		t.Fatalf("harvest changed the stake: %s", position.Amount)
	}
}

func TestFailedTransferRollsBack(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 10)
	before, _ := e.PoolInfo(0)
	beforeTotals := e.Totals()

	_, err := e.Deposit(alice, 0, big.NewInt(startingBalance))
	if !errors.Is(err, farm.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	after, _ := e.PoolInfo(0)
	if !samePool(before, after) || !sameTotals(beforeTotals, e.Totals()) {
		t.Fatalf("pool state changed by failed deposit")
	}
	position, _ := e.UserInfo(0, alice)
	if position.Amount.Int64() != 100 {
		t.Fatalf("position changed by failed deposit: %s", position.Amount)
	}
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("pending reward lost after rollback: %d", got)
	}
}

func TestMintFailureRevertsPulledPrincipal(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.ledger.SetMintable(rewardToken, big.NewInt(1))
	h.at(t0 + 10)

	if _, err := e.Deposit(alice, 0, big.NewInt(50)); !errors.Is(err, farm.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if got := h.ledger.BalanceOf(tokenA, alice); got.Int64() != startingBalance-100 {
		t.Fatalf("pulled principal not reverted: %s", got)
	}
	if got := h.ledger.BalanceOf(tokenA, escrow); got.Int64() != 100 {
		t.Fatalf("escrow holds %s, expected 100", got)
	}
	if _, err := e.Harvest(alice, 0); !errors.Is(err, farm.ErrTransferFailed) {
		t.Fatalf("expected harvest to fail under the mint cap, got %v", err)
	}
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("pending changed by failed harvest: %d", got)
	}
}

type plainLedger struct {
	inner    *token.Ledger
	failMint bool
}

func (p *plainLedger) TransferIn(tok, from [20]byte, amount *big.Int) error {
	return p.inner.TransferIn(tok, from, amount)
}

func (p *plainLedger) TransferOut(tok, to [20]byte, amount *big.Int) error {
	return p.inner.TransferOut(tok, to, amount)
}

func (p *plainLedger) MintOrReserve(tok [20]byte, amount *big.Int) error {
	if p.failMint {
		return errors.New("mint disabled")
	}
	return p.inner.MintOrReserve(tok, amount)
}

func TestFailureWithoutJournalRefundsPrincipal(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	plain := &plainLedger{inner: h.ledger, failMint: true}
	e.SetLedger(plain)
	h.at(t0 + 10)

	if _, err := e.Deposit(alice, 0, big.NewInt(50)); !errors.Is(err, farm.ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}
	if got := h.ledger.BalanceOf(tokenA, alice); got.Int64() != startingBalance-100 {
		t.Fatalf("principal not refunded: %s", got)
	}
	position, _ := e.UserInfo(0, alice)
	if position.Amount.Int64() != 100 {
		t.Fatalf("position changed: %s", position.Amount)
	}
}

type reentrantLedger struct {
	*token.Ledger
	engine *farm.Engine
	err    error
}

func (r *reentrantLedger) TransferIn(tok, from [20]byte, amount *big.Int) error {
	_, r.err = r.engine.Harvest(from, 0)
	return r.Ledger.TransferIn(tok, from, amount)
}

func TestReentrantCallsAreRejected(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	reentrant := &reentrantLedger{Ledger: h.ledger, engine: e}
	e.SetLedger(reentrant)
	mustDeposit(t, e, alice, 0, 100)
	if !errors.Is(reentrant.err, farm.ErrReentrantCall) {
		t.Fatalf("expected reentrant call error, got %v", reentrant.err)
	}
	position, _ := e.UserInfo(0, alice)
	if position.Amount.Int64() != 100 {
		t.Fatalf("outer deposit should still succeed, got %s", position.Amount)
	}
}

func TestPausedModuleStillAllowsEmergencyWithdraw(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	pauses := nativecommon.NewPauses()
	e.SetPauses(pauses)
	mustDeposit(t, e, alice, 0, 100)
	pauses.Set("farm", true)
	h.at(t0 + 10)

	if _, err := e.Deposit(alice, 0, big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if _, err := e.Harvest(alice, 0); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	principal, err := e.EmergencyWithdraw(alice, 0)
	if err != nil {
		t.Fatalf("emergency withdraw: %v", err)
	}
	if principal.Int64() != 100 {
		t.Fatalf("expected principal 100, got %s", principal)
	}
	if got := h.ledger.BalanceOf(rewardToken, alice); got.Sign() != 0 {
		t.Fatalf("emergency withdraw must forfeit rewards, paid %s", got)
	}
	if got := h.ledger.BalanceOf(tokenA, alice); got.Int64() != startingBalance {
		t.Fatalf("principal not returned: %s", got)
	}
	if got := mustPending(t, e, 0, alice); got != 0 {
		t.Fatalf("pending should be zero, got %d", got)
	}
}

func TestBoosterScalesEffectiveStake(t *testing.T) {
	booster := farm.NewMultiplierBooster(0)
	if err := booster.SetMultiplier(alice, 20_000); err != nil {
		t.Fatalf("set multiplier: %v", err)
	}
	if err := booster.SetMultiplier(bob, 30_000); err == nil {
		t.Fatalf("expected multiplier above cap to fail")
	}
	h := newHarness(t, 1000, booster)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	mustDeposit(t, e, bob, 0, 100)
	h.at(t0 + 10)

	if got := mustPending(t, e, 0, alice); got != 6_666 {
		t.Fatalf("boosted pending: expected 6666, got %d", got)
	}
	if got := mustPending(t, e, 0, bob); got != 3_333 {
		t.Fatalf("plain pending: expected 3333, got %d", got)
	}
	pool, _ := e.PoolInfo(0)
	if pool.TotalStaked.Int64() != 200 || pool.TotalBoosted.Int64() != 300 {
		t.Fatalf("unexpected pool totals: staked=%s boosted=%s", pool.TotalStaked, pool.TotalBoosted)
	}
}

func TestAddPoolSettlesBeforeReweighting(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 10)
	if _, err := e.AddPool(owner, tokenB, farm.DefaultPoolWeight); err != nil {
		t.Fatalf("add pool: %v", err)
	}
	h.at(t0 + 20)
	if got := mustPending(t, e, 0, alice); got != 15_000 {
		t.Fatalf("expected 10000 + 5000, got %d", got)
	}

	if err := e.SetWeight(owner, 1, 0); err != nil {
		t.Fatalf("set weight: %v", err)
	}
	h.at(t0 + 30)
	if got := mustPending(t, e, 0, alice); got != 25_000 {
		t.Fatalf("expected full emission after retiring pool 1, got %d", got)
	}
}

func TestSetRewardRateAppliesForward(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 10)
	if err := e.SetRewardRate(owner, big.NewInt(2000)); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	h.at(t0 + 20)
	if got := mustPending(t, e, 0, alice); got != 30_000 {
		t.Fatalf("expected 10000 + 20000, got %d", got)
	}
}

func TestEmptyPoolForgoesEmission(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	h.at(t0 + 10)
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 20)
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("late depositor must not inherit the empty interval, got %d", got)
	}
	totals := e.Totals()
	if totals.Forgone.Int64() != 10_000 || totals.Accrued.Sign() != 0 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestStartTimeDelaysAccrual(t *testing.T) {
	ledger := token.NewLedger(escrow)
	ledger.SetMintable(rewardToken, nil)
	if err := ledger.Mint(tokenA, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	e := farm.NewEngine()
	e.SetLedger(ledger)
	e.SetBlockTimestamp(t0)
	if err := e.Initialize(farm.InitParams{
		RewardToken:      rewardToken,
		RewardPerSecond:  big.NewInt(1000),
		Owner:            owner,
		FirstStakedToken: tokenA,
		StartTime:        t0 + 100,
	}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	mustDeposit(t, e, alice, 0, 100)
	e.SetBlockTimestamp(t0 + 50)
	if got := mustPending(t, e, 0, alice); got != 0 {
		t.Fatalf("nothing should accrue before start, got %d", got)
	}
	e.SetBlockTimestamp(t0 + 110)
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("expected 10000 after start, got %d", got)
	}
}

func TestTransferOwnership(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	if err := e.TransferOwnership(owner, [20]byte{}); !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	if err := e.TransferOwnership(owner, bob); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if _, err := e.AddPool(owner, tokenB, 1); !errors.Is(err, farm.ErrUnauthorized) {
		t.Fatalf("previous owner kept rights: %v", err)
	}
	if _, err := e.AddPool(bob, tokenB, 1); err != nil {
		t.Fatalf("new owner add pool: %v", err)
	}
}

func TestSetBoosterRepricesAtNextSettlement(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	mustDeposit(t, e, bob, 0, 100)
	h.at(t0 + 10)

	booster := farm.NewMultiplierBooster(0)
	if err := booster.SetMultiplier(alice, 20_000); err != nil {
		t.Fatalf("set multiplier: %v", err)
	}
	if err := e.SetBooster(owner, booster); err != nil {
		t.Fatalf("set booster: %v", err)
	}
	if !e.HasBooster() {
		t.Fatalf("booster not installed")
	}
	types := h.recorder.Types()
	if types[len(types)-1] != events.TypeFarmBoosterUpdated {
		t.Fatalf("expected booster event, got %v", types)
	}
	if a, b := mustPending(t, e, 0, alice), mustPending(t, e, 0, bob); a != 5_000 || b != 5_000 {
		t.Fatalf("booster change must not touch unsettled positions: alice=%d bob=%d", a, b)
	}
	pool, _ := e.PoolInfo(0)
	if pool.TotalBoosted.Int64() != 200 {
		t.Fatalf("unexpected boosted total before settlement: %s", pool.TotalBoosted)
	}

	reward, err := e.Harvest(alice, 0)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if reward.Int64() != 5_000 {
		t.Fatalf("expected 5000 harvested, got %s", reward)
	}
	position, _ := e.UserInfo(0, alice)
	if position.Amount.Int64() != 100 || position.BoostedAmount.Int64() != 200 {
		t.Fatalf("unexpected repriced position: amount=%s boosted=%s", position.Amount, position.BoostedAmount)
	}

	h.at(t0 + 20)
	if err := e.UpdatePool(0); err != nil {
		t.Fatalf("update pool: %v", err)
	}
	a, b := mustPending(t, e, 0, alice), mustPending(t, e, 0, bob)
	if a != 6_666 || b != 8_333 {
		t.Fatalf("expected alice=6666 bob=8333, got alice=%d bob=%d", a, b)
	}
	totals := e.Totals()
	owed := new(big.Int).Add(totals.Paid, big.NewInt(a+b))
	if owed.Cmp(totals.Emitted) > 0 {
		t.Fatalf("paid+pending %s exceeds emitted %s", owed, totals.Emitted)
	}

	if err := e.SetBooster(owner, nil); err != nil {
		t.Fatalf("clear booster: %v", err)
	}
	if e.HasBooster() {
		t.Fatalf("booster not cleared")
	}
}

func TestCallsWithoutPositionLeaveNoTrace(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)
	h.at(t0 + 10)
	before := len(h.recorder.Events)

	if reward, err := e.Harvest(bob, 0); err != nil || reward.Sign() != 0 {
		t.Fatalf("harvest without position: reward=%v err=%v", reward, err)
	}
	if reward, err := e.Withdraw(bob, 0, big.NewInt(0)); err != nil || reward.Sign() != 0 {
		t.Fatalf("withdraw without position: reward=%v err=%v", reward, err)
	}
	if principal, err := e.EmergencyWithdraw(bob, 0); err != nil || principal.Sign() != 0 {
		t.Fatalf("emergency withdraw without position: principal=%v err=%v", principal, err)
	}
	if reward := mustDeposit(t, e, bob, 0, 0); reward.Sign() != 0 {
		t.Fatalf("zero deposit without position paid %s", reward)
	}
	if got := h.recorder.Types()[before:]; len(got) != 0 {
		t.Fatalf("expected no events, got %v", got)
	}
	if got := mustPending(t, e, 0, alice); got != 10_000 {
		t.Fatalf("alice pending changed: %d", got)
	}

	mustDeposit(t, e, bob, 0, 1)
	if got := h.recorder.Types()[before:]; len(got) != 1 || got[0] != events.TypeFarmDeposit {
		t.Fatalf("expected one deposit event, got %v", got)
	}
}

func TestZeroAddressDepositorIsRejected(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	var zero [20]byte
	if _, err := e.Deposit(zero, 0, big.NewInt(1)); !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("deposit: expected invalid address, got %v", err)
	}
	if _, err := e.Withdraw(zero, 0, big.NewInt(0)); !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("withdraw: expected invalid address, got %v", err)
	}
	if _, err := e.Harvest(zero, 0); !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("harvest: expected invalid address, got %v", err)
	}
	if _, err := e.EmergencyWithdraw(zero, 0); !errors.Is(err, farm.ErrInvalidAddress) {
		t.Fatalf("emergency withdraw: expected invalid address, got %v", err)
	}
}

func TestReadsBeforeInitialize(t *testing.T) {
	e := farm.NewEngine()
	if _, err := e.PoolInfo(0); !errors.Is(err, farm.ErrNotInitialized) {
		t.Fatalf("pool info: expected not initialized, got %v", err)
	}
	if _, err := e.UserInfo(0, alice); !errors.Is(err, farm.ErrNotInitialized) {
		t.Fatalf("user info: expected not initialized, got %v", err)
	}
	if _, err := e.PendingReward(0, alice); !errors.Is(err, farm.ErrNotInitialized) {
		t.Fatalf("pending: expected not initialized, got %v", err)
	}
}
