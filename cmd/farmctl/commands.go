package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"farmchain/native/farm"
)

type callResult struct {
	Operation string  `json:"operation"`
	Pool      *uint64 `json:"pool,omitempty"`
	Account   string  `json:"account,omitempty"`
	Amount    string  `json:"amount,omitempty"`
	Reward    string  `json:"reward,omitempty"`
	At        uint64  `json:"at"`
}

// mutate opens the farm, applies fn and commits on success.
func mutate(env *cliEnv, flags commonFlags, fn func(st *farmState) (callResult, error)) error {
	st, err := openState(env, flags, true)
	if err != nil {
		return err
	}
	defer st.close()
	result, err := fn(st)
	if err != nil {
		return err
	}
	if err := st.commit(); err != nil {
		return err
	}
	result.At = st.engine.BlockTimestamp()
	return printJSON(env, result)
}

// callerFlag resolves --caller, defaulting to the configured owner.
func callerFlag(st *farmState, raw string) ([20]byte, error) {
	if raw == "" {
		raw = st.cfg.Farm.Owner
	}
	return parseAddressFlag("caller", raw)
}

func runInit(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "init")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		params, err := st.cfg.FarmParams()
		if err != nil {
			return callResult{}, err
		}
		if params.Escrow != st.ledger.Escrow() {
			return callResult{}, fmt.Errorf("farm.Escrow does not match the persisted ledger escrow")
		}
		err = st.engine.Initialize(farm.InitParams{
			RewardToken:      params.RewardToken,
			RewardPerSecond:  params.RewardPerSecond,
			Owner:            params.Owner,
			FirstStakedToken: params.FirstStakedToken,
			Booster:          st.booster,
			StartTime:        params.StartTime,
		})
		if err != nil {
			return callResult{}, err
		}
		st.ledger.SetMintable(params.RewardToken, params.MintCap)
		return callResult{Operation: "init", Account: common.Address(params.Owner).Hex()}, nil
	})
}

func runAddPool(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "add-pool")
	caller := fs.String("caller", "", "Administrator address (default: farm.Owner)")
	tokenFlag := fs.String("token", "", "Staking token address")
	weight := fs.Uint64("weight", farm.DefaultPoolWeight, "Allocation weight")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		from, err := callerFlag(st, *caller)
		if err != nil {
			return callResult{}, err
		}
		tok, err := parseAddressFlag("token", *tokenFlag)
		if err != nil {
			return callResult{}, err
		}
		index, err := st.engine.AddPool(from, tok, *weight)
		if err != nil {
			return callResult{}, err
		}
		return callResult{Operation: "add-pool", Pool: &index, Account: common.Address(tok).Hex()}, nil
	})
}

func runSetWeight(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "set-weight")
	caller := fs.String("caller", "", "Administrator address (default: farm.Owner)")
	pool := fs.Uint64("pool", 0, "Pool index")
	weight := fs.Uint64("weight", 0, "New allocation weight")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		from, err := callerFlag(st, *caller)
		if err != nil {
			return callResult{}, err
		}
		if err := st.engine.SetWeight(from, *pool, *weight); err != nil {
			return callResult{}, err
		}
		return callResult{Operation: "set-weight", Pool: pool, Amount: fmt.Sprint(*weight)}, nil
	})
}

func runSetRate(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "set-rate")
	caller := fs.String("caller", "", "Administrator address (default: farm.Owner)")
	rate := fs.String("rate", "", "Reward units emitted per second")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		from, err := callerFlag(st, *caller)
		if err != nil {
			return callResult{}, err
		}
		value, err := parseAmountFlag("rate", *rate)
		if err != nil {
			return callResult{}, err
		}
		if err := st.engine.SetRewardRate(from, value); err != nil {
			return callResult{}, err
		}
		return callResult{Operation: "set-rate", Amount: value.String()}, nil
	})
}

func runTransferOwnership(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "transfer-ownership")
	caller := fs.String("caller", "", "Administrator address (default: farm.Owner)")
	to := fs.String("to", "", "New administrator address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		from, err := callerFlag(st, *caller)
		if err != nil {
			return callResult{}, err
		}
		next, err := parseAddressFlag("to", *to)
		if err != nil {
			return callResult{}, err
		}
		if err := st.engine.TransferOwnership(from, next); err != nil {
			return callResult{}, err
		}
		return callResult{Operation: "transfer-ownership", Account: common.Address(next).Hex()}, nil
	})
}

func runMint(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "mint")
	tokenFlag := fs.String("token", "", "Token address")
	to := fs.String("to", "", "Recipient address")
	amount := fs.String("amount", "", "Amount in base units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		tok, err := parseAddressFlag("token", *tokenFlag)
		if err != nil {
			return callResult{}, err
		}
		recipient, err := parseAddressFlag("to", *to)
		if err != nil {
			return callResult{}, err
		}
		value, err := parseAmountFlag("amount", *amount)
		if err != nil {
			return callResult{}, err
		}
		if err := st.ledger.Mint(tok, recipient, value); err != nil {
			return callResult{}, err
		}
		return callResult{Operation: "mint", Account: common.Address(recipient).Hex(), Amount: value.String()}, nil
	})
}

func runBalance(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "balance")
	tokenFlag := fs.String("token", "", "Token address")
	account := fs.String("account", "", "Account address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tok, err := parseAddressFlag("token", *tokenFlag)
	if err != nil {
		return err
	}
	holder, err := parseAddressFlag("account", *account)
	if err != nil {
		return err
	}
	st, err := openState(env, flags, false)
	if err != nil {
		return err
	}
	defer st.close()
	return printJSON(env, map[string]string{
		"token":   common.Address(tok).Hex(),
		"account": common.Address(holder).Hex(),
		"balance": st.ledger.BalanceOf(tok, holder).String(),
	})
}

type positionCall func(e *farm.Engine, account [20]byte, pool uint64, amount *big.Int) (*big.Int, error)

// runPositionCall implements the depositor commands. withAmount adds the
// --amount flag; the returned value is reported as the reward, or as the
// principal for emergency-withdraw.
func runPositionCall(env *cliEnv, args []string, name string, withAmount bool, call positionCall) error {
	fs, flags := newFlagSet(env, name)
	account := fs.String("account", "", "Depositor address")
	pool := fs.Uint64("pool", 0, "Pool index")
	var amount *string
	if withAmount {
		amount = fs.String("amount", "", "Amount in base units")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	return mutate(env, flags, func(st *farmState) (callResult, error) {
		depositor, err := parseAddressFlag("account", *account)
		if err != nil {
			return callResult{}, err
		}
		var value *big.Int
		if withAmount {
			if value, err = parseAmountFlag("amount", *amount); err != nil {
				return callResult{}, err
			}
		}
		out, err := call(st.engine, depositor, *pool, value)
		if err != nil {
			return callResult{}, err
		}
		result := callResult{Operation: name, Pool: pool, Account: common.Address(depositor).Hex()}
		if value != nil {
			result.Amount = value.String()
		}
		if name == "emergency-withdraw" {
			result.Amount = out.String()
		} else {
			result.Reward = out.String()
		}
		return result, nil
	})
}

func runDeposit(env *cliEnv, args []string) error {
	return runPositionCall(env, args, "deposit", true, func(e *farm.Engine, a [20]byte, p uint64, v *big.Int) (*big.Int, error) {
		return e.Deposit(a, p, v)
	})
}

func runWithdraw(env *cliEnv, args []string) error {
	return runPositionCall(env, args, "withdraw", true, func(e *farm.Engine, a [20]byte, p uint64, v *big.Int) (*big.Int, error) {
		return e.Withdraw(a, p, v)
	})
}

func runHarvest(env *cliEnv, args []string) error {
	return runPositionCall(env, args, "harvest", false, func(e *farm.Engine, a [20]byte, p uint64, _ *big.Int) (*big.Int, error) {
		return e.Harvest(a, p)
	})
}

func runEmergencyWithdraw(env *cliEnv, args []string) error {
	return runPositionCall(env, args, "emergency-withdraw", false, func(e *farm.Engine, a [20]byte, p uint64, _ *big.Int) (*big.Int, error) {
		return e.EmergencyWithdraw(a, p)
	})
}

func runPending(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "pending")
	account := fs.String("account", "", "Depositor address")
	pool := fs.Uint64("pool", 0, "Pool index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	depositor, err := parseAddressFlag("account", *account)
	if err != nil {
		return err
	}
	st, err := openState(env, flags, false)
	if err != nil {
		return err
	}
	defer st.close()
	pending, err := st.engine.PendingReward(*pool, depositor)
	if err != nil {
		return err
	}
	position, err := st.engine.UserInfo(*pool, depositor)
	if err != nil {
		return err
	}
	return printJSON(env, map[string]any{
		"pool":          *pool,
		"account":       common.Address(depositor).Hex(),
		"amount":        position.Amount.String(),
		"boostedAmount": position.BoostedAmount.String(),
		"rewardPaid":    position.RewardPaid.String(),
		"pending":       pending.String(),
		"at":            st.engine.BlockTimestamp(),
	})
}

type poolSummary struct {
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

func runPools(env *cliEnv, args []string) error {
	fs, flags := newFlagSet(env, "pools")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := openState(env, flags, false)
	if err != nil {
		return err
	}
	defer st.close()
	e := st.engine
	if !e.Initialized() {
		return farm.ErrNotInitialized
	}
	pools := make([]poolSummary, 0, e.GetAllPoolsLength())
	for i := uint64(0); i < e.GetAllPoolsLength(); i++ {
		p, err := e.PoolInfo(i)
		if err != nil {
			return err
		}
		pools = append(pools, poolSummary{
			Index:             i,
			StakedToken:       common.Address(p.StakedToken).Hex(),
			AllocWeight:       p.AllocWeight,
			LastAccrualTime:   p.LastAccrualTime,
			AccRewardPerShare: p.AccRewardPerShare.String(),
			TotalStaked:       p.TotalStaked.String(),
			TotalBoosted:      p.TotalBoosted.String(),
			AccruedRewards:    p.AccruedRewards.String(),
			ForgoneRewards:    p.ForgoneRewards.String(),
		})
	}
	root, err := e.StateRoot()
	if err != nil {
		return err
	}
	totals := e.Totals()
	return printJSON(env, map[string]any{
		"stateRoot":       root.Hex(),
		"owner":           common.Address(e.Owner()).Hex(),
		"rewardToken":     common.Address(e.NativeToken()).Hex(),
		"rewardPerSecond": e.RewardPerSecond().String(),
		"startTime":       e.StartTime(),
		"totalWeight":     e.TotalWeight(),
		"boosted":         e.HasBooster(),
		"pools":           pools,
		"totals": map[string]string{
			"emitted": totals.Emitted.String(),
			"accrued": totals.Accrued.String(),
			"forgone": totals.Forgone.String(),
			"paid":    totals.Paid.String(),
		},
	})
}
