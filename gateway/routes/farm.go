package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"farmchain/native/farm"
)

type farmRoutes struct {
	source Source
	logger *slog.Logger
	now    func() time.Time
}

type farmResponse struct {
	Initialized     bool   `json:"initialized"`
	Owner           string `json:"owner"`
	RewardToken     string `json:"rewardToken"`
	RewardPerSecond string `json:"rewardPerSecond"`
	StartTime       uint64 `json:"startTime"`
	TotalWeight     uint64 `json:"totalWeight"`
	Pools           uint64 `json:"pools"`
	StateRoot       string `json:"stateRoot"`
	At              uint64 `json:"at"`
}

type poolResponse struct {
	Index             uint64 `json:"index"`
	StakedToken       string `json:"stakedToken"`
	AllocWeight       uint64 `json:"allocWeight"`
	LastAccrualTime   uint64 `json:"lastAccrualTime"`
	AccRewardPerShare string `json:"accRewardPerShare"`
	TotalStaked       string `json:"totalStaked"`
	TotalBoosted      string `json:"totalBoosted"`
	AccruedRewards    string `json:"accruedRewards"`
	ForgoneRewards    string `json:"forgoneRewards"`
}

type positionResponse struct {
	Pool          uint64 `json:"pool"`
	Account       string `json:"account"`
	Amount        string `json:"amount"`
	BoostedAmount string `json:"boostedAmount"`
	RewardPaid    string `json:"rewardPaid"`
	Pending       string `json:"pending"`
	At            uint64 `json:"at"`
}

type pendingResponse struct {
	Pool    uint64 `json:"pool"`
	Account string `json:"account"`
	Pending string `json:"pending"`
	At      uint64 `json:"at"`
}

type totalsResponse struct {
	Emitted string `json:"emitted"`
	Accrued string `json:"accrued"`
	Forgone string `json:"forgone"`
	Paid    string `json:"paid"`
}

func (f *farmRoutes) reader(w http.ResponseWriter, r *http.Request) (Reader, uint64, bool) {
	at, err := f.requestTime(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return nil, 0, false
	}
	reader, err := f.source(r.Context(), at)
	if err != nil {
		f.logger.Error("load farm state", slog.Any("error", err))
		writeJSONError(w, http.StatusInternalServerError, errors.New("farm state unavailable"))
		return nil, 0, false
	}
	return reader, at, true
}

func (f *farmRoutes) requestTime(r *http.Request) (uint64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("at"))
	if raw == "" {
		now := f.now().Unix()
		if now < 0 {
			return 0, nil
		}
		return uint64(now), nil
	}
	at, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid at %q", raw)
	}
	return at, nil
}

func (f *farmRoutes) handleFarm(w http.ResponseWriter, r *http.Request) {
	reader, at, ok := f.reader(w, r)
	if !ok {
		return
	}
	root, err := reader.StateRoot()
	if err != nil {
		f.writeFarmError(w, err)
		return
	}
	resp := farmResponse{Initialized: reader.Initialized(), StateRoot: root.Hex(), At: at}
	if resp.Initialized {
		resp.Owner = common.Address(reader.Owner()).Hex()
		resp.RewardToken = common.Address(reader.NativeToken()).Hex()
		resp.RewardPerSecond = reader.RewardPerSecond().String()
		resp.StartTime = reader.StartTime()
		resp.TotalWeight = reader.TotalWeight()
		resp.Pools = reader.GetAllPoolsLength()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *farmRoutes) handleTotals(w http.ResponseWriter, r *http.Request) {
	reader, _, ok := f.reader(w, r)
	if !ok {
		return
	}
	totals := reader.Totals()
	writeJSON(w, http.StatusOK, totalsResponse{
		Emitted: totals.Emitted.String(),
		Accrued: totals.Accrued.String(),
		Forgone: totals.Forgone.String(),
		Paid:    totals.Paid.String(),
	})
}

func (f *farmRoutes) handlePools(w http.ResponseWriter, r *http.Request) {
	reader, _, ok := f.reader(w, r)
	if !ok {
		return
	}
	count := reader.GetAllPoolsLength()
	out := make([]poolResponse, 0, count)
	for i := uint64(0); i < count; i++ {
		pool, err := reader.PoolInfo(i)
		if err != nil {
			f.writeFarmError(w, err)
			return
		}
		out = append(out, renderPool(i, pool))
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *farmRoutes) handlePool(w http.ResponseWriter, r *http.Request) {
	pid, err := poolParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	reader, _, ok := f.reader(w, r)
	if !ok {
		return
	}
	pool, err := reader.PoolInfo(pid)
	if err != nil {
		f.writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPool(pid, pool))
}

func (f *farmRoutes) handlePosition(w http.ResponseWriter, r *http.Request) {
	pid, account, err := positionParams(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	reader, at, ok := f.reader(w, r)
	if !ok {
		return
	}
	position, err := reader.UserInfo(pid, account)
	if err != nil {
		f.writeFarmError(w, err)
		return
	}
	pending, err := reader.PendingReward(pid, account)
	if err != nil {
		f.writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{
		Pool:          pid,
		Account:       common.Address(account).Hex(),
		Amount:        position.Amount.String(),
		BoostedAmount: position.BoostedAmount.String(),
		RewardPaid:    position.RewardPaid.String(),
		Pending:       pending.String(),
		At:            at,
	})
}

func (f *farmRoutes) handlePending(w http.ResponseWriter, r *http.Request) {
	pid, account, err := positionParams(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	reader, at, ok := f.reader(w, r)
	if !ok {
		return
	}
	pending, err := reader.PendingReward(pid, account)
	if err != nil {
		f.writeFarmError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{
		Pool:    pid,
		Account: common.Address(account).Hex(),
		Pending: pending.String(),
		At:      at,
	})
}

func (f *farmRoutes) writeFarmError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, farm.ErrInvalidPool):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, farm.ErrNotInitialized):
		writeJSONError(w, http.StatusConflict, err)
	default:
		f.logger.Error("farm query failed", slog.Any("error", err))
		writeJSONError(w, http.StatusInternalServerError, err)
	}
}

func renderPool(index uint64, pool *farm.Pool) poolResponse {
	return poolResponse{
		Index:             index,
		StakedToken:       common.Address(pool.StakedToken).Hex(),
		AllocWeight:       pool.AllocWeight,
		LastAccrualTime:   pool.LastAccrualTime,
		AccRewardPerShare: pool.AccRewardPerShare.String(),
		TotalStaked:       pool.TotalStaked.String(),
		TotalBoosted:      pool.TotalBoosted.String(),
		AccruedRewards:    pool.AccruedRewards.String(),
		ForgoneRewards:    pool.ForgoneRewards.String(),
	}
}

func poolParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "pid")
	pid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pool index %q", raw)
	}
	return pid, nil
}

func positionParams(r *http.Request) (uint64, [20]byte, error) {
	pid, err := poolParam(r)
	if err != nil {
		return 0, [20]byte{}, err
	}
	raw := chi.URLParam(r, "addr")
	if !common.IsHexAddress(raw) {
		return 0, [20]byte{}, fmt.Errorf("invalid address %q", raw)
	}
	return pid, [20]byte(common.HexToAddress(raw)), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
