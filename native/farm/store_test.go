package farm_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"farmchain/native/farm"
	"farmchain/storage"
)

func TestEngineSaveAndLoadRoundTrip(t *testing.T) {
	booster := farm.NewMultiplierBooster(0)
	require.NoError(t, booster.SetMultiplier(bob, 20_000))
	h := newHarness(t, 1000, booster)
	e := h.engine
	_, err := e.AddPool(owner, tokenB, 500)
	require.NoError(t, err)
	mustDeposit(t, e, alice, 0, 100)
	mustDeposit(t, e, bob, 1, 40)
	h.at(t0 + 10)
	mustDeposit(t, e, bob, 0, 100)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	require.NoError(t, e.Save(db))

	loaded, err := farm.LoadEngine(db, booster)
	require.NoError(t, err)
	loaded.SetLedger(h.ledger)
	require.True(t, loaded.Initialized())
	require.Equal(t, e.Owner(), loaded.Owner())
	require.Equal(t, e.NativeToken(), loaded.NativeToken())
	require.Equal(t, e.GetAllPoolsLength(), loaded.GetAllPoolsLength())
	require.Equal(t, e.TotalWeight(), loaded.TotalWeight())
	require.Equal(t, e.BlockTimestamp(), loaded.BlockTimestamp())
	require.Zero(t, e.RewardPerSecond().Cmp(loaded.RewardPerSecond()))

	for pid := uint64(0); pid < e.GetAllPoolsLength(); pid++ {
		want, err := e.PoolInfo(pid)
		require.NoError(t, err)
		got, err := loaded.PoolInfo(pid)
		require.NoError(t, err)
		require.True(t, samePool(want, got), "pool %d differs", pid)
	}
	require.True(t, sameTotals(e.Totals(), loaded.Totals()))

	h.at(t0 + 20)
	loaded.SetBlockTimestamp(t0 + 20)
	for _, account := range [][20]byte{alice, bob} {
		want, err := e.PendingReward(0, account)
		require.NoError(t, err)
		got, err := loaded.PendingReward(0, account)
		require.NoError(t, err)
		require.Zero(t, want.Cmp(got))
	}

	reward, err := loaded.Harvest(alice, 0)
	require.NoError(t, err)
	require.Equal(t, "8888", reward.String())
}

func TestLoadEngineFromEmptyDatabase(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	e, err := farm.LoadEngine(db, nil)
	require.NoError(t, err)
	require.False(t, e.Initialized())
	require.Zero(t, e.GetAllPoolsLength())
}

func TestStateRootTracksAccountingOnly(t *testing.T) {
	h := newHarness(t, 1000, nil)
	e := h.engine
	mustDeposit(t, e, alice, 0, 100)

	root, err := e.StateRoot()
	require.NoError(t, err)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	require.NoError(t, e.Save(db))
	loaded, err := farm.LoadEngine(db, nil)
	require.NoError(t, err)
	loadedRoot, err := loaded.StateRoot()
	require.NoError(t, err)
	require.Equal(t, root, loadedRoot)

	h.at(t0 + 50)
	unchanged, err := e.StateRoot()
	require.NoError(t, err)
	require.Equal(t, root, unchanged, "ambient clock must not affect the root")

	mustDeposit(t, e, bob, 0, 10)
	moved, err := e.StateRoot()
	require.NoError(t, err)
	require.NotEqual(t, root, moved)
}

func TestCallsWithoutPositionAreNotPersisted(t *testing.T) {
	saved := func(touch func(*farm.Engine)) []byte {
		h := newHarness(t, 1000, nil)
		mustDeposit(t, h.engine, alice, 0, 100)
		h.at(t0 + 10)
		touch(h.engine)
		db := storage.NewMemDB()
		t.Cleanup(db.Close)
		require.NoError(t, h.engine.Save(db))
		raw, err := db.Get([]byte("farm/state"))
		require.NoError(t, err)
		return raw
	}

	want := saved(func(e *farm.Engine) { require.NoError(t, e.UpdatePool(0)) })
	got := saved(func(e *farm.Engine) {
		_, err := e.Harvest(bob, 0)
		require.NoError(t, err)
		_, err = e.Withdraw(bob, 0, big.NewInt(0))
		require.NoError(t, err)
		_, err = e.EmergencyWithdraw(carol, 0)
		require.NoError(t, err)
	})
	require.Equal(t, want, got)
}
