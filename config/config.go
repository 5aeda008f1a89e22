package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

const boostDenominator = 10_000

type Config struct {
	DataDir   string    `toml:"DataDir"`
	Farm      Farm      `toml:"farm"`
	Booster   Booster   `toml:"booster"`
	Audit     Audit     `toml:"audit"`
	HTTP      HTTP      `toml:"http"`
	Log       Log       `toml:"log"`
	Telemetry Telemetry `toml:"telemetry"`
	Webhook   Webhook   `toml:"webhook"`
}

// FarmParams are the parsed deployment parameters.
type FarmParams struct {
	Owner            [20]byte
	RewardToken      [20]byte
	FirstStakedToken [20]byte
	Escrow           [20]byte
	RewardPerSecond  *big.Int
	StartTime        uint64
	MintCap          *big.Int
}

// Load loads the configuration from the given path. A missing file is created
// with defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0].String())
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// FarmParams parses the [farm] section into engine parameters.
func (c *Config) FarmParams() (FarmParams, error) {
	var params FarmParams
	var err error
	if params.Owner, err = parseAddress("Owner", c.Farm.Owner); err != nil {
		return params, err
	}
	if params.RewardToken, err = parseAddress("RewardToken", c.Farm.RewardToken); err != nil {
		return params, err
	}
	if params.FirstStakedToken, err = parseAddress("FirstStakedToken", c.Farm.FirstStakedToken); err != nil {
		return params, err
	}
	if params.Escrow, err = parseAddress("Escrow", c.Farm.Escrow); err != nil {
		return params, err
	}
	if params.RewardPerSecond, err = parseUintAmount(c.Farm.RewardPerSecond); err != nil {
		return params, fmt.Errorf("invalid farm.RewardPerSecond: %w", err)
	}
	if strings.TrimSpace(c.Farm.MintCap) != "" {
		if params.MintCap, err = parseUintAmount(c.Farm.MintCap); err != nil {
			return params, fmt.Errorf("invalid farm.MintCap: %w", err)
		}
	}
	params.StartTime = c.Farm.StartTime
	return params, nil
}

// BoosterMultipliers returns the configured multipliers keyed by address.
func (c *Config) BoosterMultipliers() (map[[20]byte]uint64, error) {
	out := make(map[[20]byte]uint64, len(c.Booster.Multipliers))
	for raw, bps := range c.Booster.Multipliers {
		addr, err := parseAddress("booster.Multipliers", raw)
		if err != nil {
			return nil, err
		}
		out[addr] = bps
	}
	return out, nil
}

// ParseAddress converts a 0x-prefixed hex string into an address.
func ParseAddress(value string) ([20]byte, error) {
	return parseAddress("address", value)
}

func parseAddress(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("%s must be set", field)
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("%s: invalid hex address %q", field, value)
	}
	return [20]byte(common.HexToAddress(trimmed)), nil
}

func parseUintAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be non-negative")
	}
	return amount, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./farm-data"
	}
	if strings.TrimSpace(cfg.Audit.Path) == "" {
		cfg.Audit.Path = filepath.Join(cfg.DataDir, "audit.db")
	}
	if strings.TrimSpace(cfg.HTTP.ListenAddress) == "" {
		cfg.HTTP.ListenAddress = ":8090"
	}
	if strings.TrimSpace(cfg.Log.Env) == "" {
		cfg.Log.Env = "dev"
	}
	if cfg.Booster.Multipliers == nil {
		cfg.Booster.Multipliers = map[string]uint64{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir: "./farm-data",
		Farm: Farm{
			RewardPerSecond: "1000",
			Escrow:          "0x000000000000000000000000000000000000fa53",
		},
		Booster: Booster{MaxBoostBps: 25_000, Multipliers: map[string]uint64{}},
		HTTP:    HTTP{ListenAddress: ":8090", RequestsPerSecond: 20, Burst: 40},
		Log:     Log{Env: "dev", MaxSizeMB: 64, MaxBackups: 3},
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
