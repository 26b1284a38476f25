// Package config defines the engine configuration and validation helpers.
// Facility and venue identifiers are injected here per network and never
// hard-coded in the core.
package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file over built-in defaults, then optionally overridden by FLASHD_*
// environment variables.
type Config struct {
	Network  string         `toml:"network"`
	Engine   EngineConfig   `toml:"engine"`
	Facility FacilityConfig `toml:"facility"`
	Venues   []VenueConfig  `toml:"venues"`
	Assets   []AssetConfig  `toml:"assets"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the engine's own parameters.
type EngineConfig struct {
	Address string `toml:"address"`
	Owner   string `toml:"owner"`
	// SafetyCap is the per-asset borrow cap in base units, decimal string.
	SafetyCap string `toml:"safety_cap"`
	// MinProfitThreshold is the initial profit threshold in home-asset
	// base units, decimal string.
	MinProfitThreshold string `toml:"min_profit_threshold"`
}

// FacilityConfig identifies the lending facility. Liquidity seeds the pool's
// lendable balances at startup.
type FacilityConfig struct {
	Address   string          `toml:"address"`
	FeeBps    int             `toml:"fee_bps"`
	Liquidity []HoldingConfig `toml:"liquidity"`
}

// HoldingConfig seeds one ledger balance at startup, amount in base units.
type HoldingConfig struct {
	Asset  string `toml:"asset"`
	Amount string `toml:"amount"`
}

// VenueConfig identifies one swap venue. Prices seed a fixed-rate venue; an
// empty list leaves the venue quoting nothing until the operator sets rates.
type VenueConfig struct {
	Name      string          `toml:"name"`
	Address   string          `toml:"address"`
	Prices    []PriceConfig   `toml:"prices"`
	Inventory []HoldingConfig `toml:"inventory"`
}

// PriceConfig is one directional fixed rate, 1e18 fixed-point decimal string.
type PriceConfig struct {
	AssetIn  string `toml:"asset_in"`
	AssetOut string `toml:"asset_out"`
	Price    string `toml:"price"`
}

// AssetConfig registers an asset's display decimals.
type AssetConfig struct {
	Symbol   string `toml:"symbol"`
	Address  string `toml:"address"`
	Decimals int    `toml:"decimals"`
}

// RedisConfig holds the optional event pub/sub sink.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// ServerConfig holds the operator HTTP API parameters. APIKeys maps a bearer
// key to the caller address the engine sees for that key.
type ServerConfig struct {
	Enabled     bool              `toml:"enabled"`
	Port        int               `toml:"port"`
	CORSOrigins []string          `toml:"cors_origins"`
	APIKeys     map[string]string `toml:"api_keys"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with the hardhat (mainnet-fork) preset.
func Defaults() Config {
	cfg := Config{
		Network: "hardhat",
		Engine: EngineConfig{
			// 1e27 base units = one billion 18-decimal tokens.
			SafetyCap:          "1000000000000000000000000000",
			MinProfitThreshold: "0",
		},
		Facility: FacilityConfig{
			// Aave V2 flash-loan premium.
			FeeBps: 9,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Channel: "flashd:events",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"arbitrage_executed", "operation_aborted"},
		},
		LogLevel: "info",
	}
	ApplyNetworkPreset(&cfg)
	return cfg
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if _, ok := networkPresets[strings.ToLower(c.Network)]; !ok {
		errs = append(errs, fmt.Sprintf("unknown network %q (valid: %s)", c.Network, strings.Join(presetNames(), ", ")))
	}

	if !common.IsHexAddress(c.Engine.Address) {
		errs = append(errs, "engine: address must be a hex address")
	}
	if !common.IsHexAddress(c.Engine.Owner) {
		errs = append(errs, "engine: owner must be a hex address")
	}
	if _, ok := ParseBig(c.Engine.SafetyCap); !ok {
		errs = append(errs, fmt.Sprintf("engine: safety_cap %q is not a decimal integer", c.Engine.SafetyCap))
	}
	if v, ok := ParseBig(c.Engine.MinProfitThreshold); !ok || v.Sign() < 0 {
		errs = append(errs, fmt.Sprintf("engine: min_profit_threshold %q must be a non-negative decimal integer", c.Engine.MinProfitThreshold))
	}

	if !common.IsHexAddress(c.Facility.Address) {
		errs = append(errs, "facility: address must be a hex address")
	}
	if c.Facility.FeeBps < 0 || c.Facility.FeeBps >= 10000 {
		errs = append(errs, fmt.Sprintf("facility: fee_bps must be in [0, 10000), got %d", c.Facility.FeeBps))
	}
	for i, h := range c.Facility.Liquidity {
		if msg := validateHolding(h); msg != "" {
			errs = append(errs, fmt.Sprintf("facility.liquidity[%d]: %s", i, msg))
		}
	}

	if len(c.Venues) < 2 {
		errs = append(errs, "venues: at least two venues are required for arbitrage")
	}
	for i, v := range c.Venues {
		if !common.IsHexAddress(v.Address) {
			errs = append(errs, fmt.Sprintf("venues[%d]: address must be a hex address", i))
		}
		for j, p := range v.Prices {
			if !common.IsHexAddress(p.AssetIn) || !common.IsHexAddress(p.AssetOut) {
				errs = append(errs, fmt.Sprintf("venues[%d].prices[%d]: asset addresses must be hex addresses", i, j))
			}
			if pv, ok := ParseBig(p.Price); !ok || pv.Sign() <= 0 {
				errs = append(errs, fmt.Sprintf("venues[%d].prices[%d]: price %q must be a positive decimal integer", i, j, p.Price))
			}
		}
		for j, h := range v.Inventory {
			if msg := validateHolding(h); msg != "" {
				errs = append(errs, fmt.Sprintf("venues[%d].inventory[%d]: %s", i, j, msg))
			}
		}
	}

	for i, a := range c.Assets {
		if !common.IsHexAddress(a.Address) {
			errs = append(errs, fmt.Sprintf("assets[%d]: address must be a hex address", i))
		}
		if a.Decimals < 0 || a.Decimals > 77 {
			errs = append(errs, fmt.Sprintf("assets[%d]: decimals must be in [0, 77], got %d", i, a.Decimals))
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		for key, addr := range c.Server.APIKeys {
			if !common.IsHexAddress(addr) {
				errs = append(errs, fmt.Sprintf("server: api key %q maps to invalid caller address", key))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateHolding returns a non-empty message when a holding entry is invalid.
func validateHolding(h HoldingConfig) string {
	if !common.IsHexAddress(h.Asset) {
		return "asset must be a hex address"
	}
	if v, ok := ParseBig(h.Amount); !ok || v.Sign() <= 0 {
		return fmt.Sprintf("amount %q must be a positive decimal integer", h.Amount)
	}
	return ""
}

// ParseBig parses a decimal integer string into a big.Int.
func ParseBig(s string) (*big.Int, bool) {
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 10)
}
