package config

// Farm holds the one-time deployment parameters handed to the farm engine.
// Addresses are 0x-prefixed hex strings; amounts are base-10 integers.
type Farm struct {
	Owner            string `toml:"Owner"`
	RewardToken      string `toml:"RewardToken"`
	FirstStakedToken string `toml:"FirstStakedToken"`
	RewardPerSecond  string `toml:"RewardPerSecond"`
	StartTime        uint64 `toml:"StartTime"`
	// Escrow is the ledger account holding staked principal and reserved
	// rewards on behalf of the farm.
	Escrow string `toml:"Escrow"`
	// MintCap bounds the reward token supply. Empty means unlimited.
	MintCap string `toml:"MintCap,omitempty"`
}

// Booster configures the per-depositor multiplier strategy.
type Booster struct {
	Enabled     bool              `toml:"Enabled"`
	MaxBoostBps uint64            `toml:"MaxBoostBps"`
	Multipliers map[string]uint64 `toml:"Multipliers,omitempty"`
}

// Audit points at the SQLite database receiving farm events.
type Audit struct {
	Path string `toml:"Path"`
}

// HTTP configures the read-only gateway.
type HTTP struct {
	ListenAddress     string  `toml:"ListenAddress"`
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Log controls structured logging output.
type Log struct {
	Env        string `toml:"Env"`
	File       string `toml:"File,omitempty"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
}

// Telemetry configures the OTLP exporters. An empty endpoint disables export.
type Telemetry struct {
	Endpoint string `toml:"Endpoint,omitempty"`
	Insecure bool   `toml:"Insecure"`
	// Headers is a comma-separated key=value list sent with every export.
	Headers string `toml:"Headers,omitempty"`
}

// Webhook forwards farm events to an external endpoint. An empty endpoint
// disables forwarding.
type Webhook struct {
	Endpoint string   `toml:"Endpoint,omitempty"`
	Secret   string   `toml:"Secret,omitempty"`
	Events   []string `toml:"Events,omitempty"`
}
