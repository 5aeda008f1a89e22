package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks the structural settings shared by every command. Deployment
// parameters are checked separately by FarmParams.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http: RequestsPerSecond must be non-negative")
	}
	if c.HTTP.RequestsPerSecond > 0 && c.HTTP.Burst <= 0 {
		return fmt.Errorf("http: Burst must be positive when rate limiting is enabled")
	}
	if c.Booster.Enabled {
		if c.Booster.MaxBoostBps != 0 && c.Booster.MaxBoostBps < boostDenominator {
			return fmt.Errorf("booster: MaxBoostBps below 1x")
		}
		for addr, bps := range c.Booster.Multipliers {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("booster: invalid address %q", addr)
			}
			if bps < boostDenominator {
				return fmt.Errorf("booster: multiplier for %s below 1x", addr)
			}
		}
	}
	if strings.TrimSpace(c.Webhook.Endpoint) != "" && strings.TrimSpace(c.Webhook.Secret) == "" {
		return fmt.Errorf("webhook: Secret required when Endpoint is set")
	}
	if c.Farm.Escrow != "" && !common.IsHexAddress(c.Farm.Escrow) {
		return fmt.Errorf("farm: invalid Escrow %q", c.Farm.Escrow)
	}
	return nil
}
