package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"farmchain/config"
	"farmchain/core/events"
	"farmchain/integrations/audit"
	"farmchain/integrations/webhooks"
	"farmchain/native/farm"
	"farmchain/native/token"
	"farmchain/observability/logging"
	"farmchain/storage"
)

// farmState is one command's view of the persisted farm: the engine and the
// token ledger loaded from LevelDB plus the configured event sinks.
type farmState struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.LevelDB
	engine  *farm.Engine
	ledger  *token.Ledger
	booster farm.Booster
	pending *events.Recorder
	sinks   events.MultiEmitter
	closers []func()
}

// commonFlags registers the flags shared by every state-touching command.
type commonFlags struct {
	configPath *string
	at         *uint64
}

func newFlagSet(env *cliEnv, name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs, commonFlags{
		configPath: fs.String("config", defaultConfig, "Path to the farm config file"),
		at:         fs.Uint64("at", 0, "Block timestamp in unix seconds (default: now)"),
	}
}

func (c commonFlags) timestamp() uint64 {
	if *c.at != 0 {
		return *c.at
	}
	return uint64(time.Now().Unix())
}

func loadConfig(env *cliEnv, path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup("farmctl", logging.Options{
		Env:        cfg.Log.Env,
		Output:     env.stderr,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Level:      slog.LevelWarn,
	})
	return cfg, logger, nil
}

func buildBooster(cfg *config.Config) (farm.Booster, error) {
	if !cfg.Booster.Enabled {
		return nil, nil
	}
	multipliers, err := cfg.BoosterMultipliers()
	if err != nil {
		return nil, err
	}
	booster := farm.NewMultiplierBooster(cfg.Booster.MaxBoostBps)
	for account, bps := range multipliers {
		if err := booster.SetMultiplier(account, bps); err != nil {
			return nil, err
		}
	}
	return booster, nil
}

// openState loads the farm for one command. withSinks wires the audit database
// and webhook dispatcher so that committed events are recorded.
func openState(env *cliEnv, flags commonFlags, withSinks bool) (*farmState, error) {
	cfg, logger, err := loadConfig(env, *flags.configPath)
	if err != nil {
		return nil, err
	}
	escrow, err := config.ParseAddress(cfg.Farm.Escrow)
	if err != nil {
		return nil, fmt.Errorf("farm.Escrow: %w", err)
	}
	booster, err := buildBooster(cfg)
	if err != nil {
		return nil, err
	}

	st := &farmState{cfg: cfg, logger: logger, booster: booster, pending: &events.Recorder{}}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	st.db = db
	st.closers = append(st.closers, db.Close)

	if st.ledger, err = token.LoadLedger(db, escrow); err != nil {
		st.close()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if st.engine, err = farm.LoadEngine(db, booster); err != nil {
		st.close()
		return nil, fmt.Errorf("load farm: %w", err)
	}
	st.engine.SetLedger(st.ledger)
	st.engine.SetLogger(logger)
	st.engine.SetEmitter(st.pending)
	st.engine.SetBlockTimestamp(flags.timestamp())

	if withSinks {
		if err := st.openSinks(); err != nil {
			st.close()
			return nil, err
		}
	}
	return st, nil
}

func (st *farmState) openSinks() error {
	sink, err := audit.Open(st.cfg.Audit.Path)
	if err != nil {
		return err
	}
	sink.SetLogger(st.logger)
	st.sinks = append(st.sinks, sink)
	st.closers = append(st.closers, func() { _ = sink.Close() })

	hook := st.cfg.Webhook
	if strings.TrimSpace(hook.Endpoint) == "" {
		return nil
	}
	dispatcher, err := webhooks.NewDispatcher(hook.Endpoint, []byte(hook.Secret),
		webhooks.WithEventTypes(hook.Events...),
		webhooks.WithLogger(st.logger))
	if err != nil {
		return err
	}
	st.sinks = append(st.sinks, dispatcher)
	st.closers = append(st.closers, dispatcher.Close)
	return nil
}

// commit persists the engine and ledger in one batch, then forwards the events
// the call produced to the sinks. Events of a call that fails to persist are
// dropped.
func (st *farmState) commit() error {
	batch := storage.NewBatch(st.db)
	defer batch.Close()
	if err := st.engine.Save(batch); err != nil {
		return fmt.Errorf("save farm: %w", err)
	}
	if err := st.ledger.Save(batch); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	for _, e := range st.pending.Events {
		st.sinks.Emit(e)
	}
	st.pending.Events = nil
	return nil
}

func (st *farmState) close() {
	for i := len(st.closers) - 1; i >= 0; i-- {
		st.closers[i]()
	}
	st.closers = nil
}

func printJSON(env *cliEnv, v any) error {
	enc := json.NewEncoder(env.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAddressFlag(name, value string) ([20]byte, error) {
	addr, err := config.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

func parseAmountFlag(name, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("--%s: invalid amount %q", name, value)
	}
	return amount, nil
}
