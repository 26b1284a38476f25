package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validBase fills in the two fields Defaults leaves for the operator.
func validBase() Config {
	cfg := Defaults()
	cfg.Engine.Address = "0x00000000000000000000000000000000000000e9"
	cfg.Engine.Owner = "0x0000000000000000000000000000000000000001"
	return cfg
}

func TestDefaultsWithOperatorFieldsValidate(t *testing.T) {
	cfg := validBase()
	require.NoError(t, cfg.Validate())

	// The hardhat preset fills facility, venues, and assets.
	assert.Equal(t, "hardhat", cfg.Network)
	assert.Equal(t, "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5", cfg.Facility.Address)
	assert.Len(t, cfg.Venues, 2)
	assert.Len(t, cfg.Assets, 2)
	assert.Equal(t, 9, cfg.Facility.FeeBps)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "loud"
	cfg.Network = "goerli"
	cfg.Engine.SafetyCap = "not-a-number"
	cfg.Facility.FeeBps = 10000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "safety_cap")
	assert.Contains(t, err.Error(), "fee_bps")
}

func TestValidateRejectsBadHoldings(t *testing.T) {
	cfg := validBase()
	cfg.Facility.Liquidity = []HoldingConfig{{Asset: "nope", Amount: "100"}}
	cfg.Venues[0].Inventory = []HoldingConfig{
		{Asset: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Amount: "-5"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facility.liquidity[0]")
	assert.Contains(t, err.Error(), "venues[0].inventory[0]")
}

func TestValidateRejectsBadAPIKeyMapping(t *testing.T) {
	cfg := validBase()
	cfg.Server.APIKeys = map[string]string{"secret": "not-an-address"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestApplyNetworkPresetKeepsOperatorValues(t *testing.T) {
	cfg := Config{
		Network:  "mainnet",
		Facility: FacilityConfig{Address: "0x0000000000000000000000000000000000000123"},
	}
	ApplyNetworkPreset(&cfg)

	// Operator-supplied facility wins; empty venue list is filled.
	assert.Equal(t, "0x0000000000000000000000000000000000000123", cfg.Facility.Address)
	require.Len(t, cfg.Venues, 2)
	assert.Equal(t, "uniswap", cfg.Venues[0].Name)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
network = "mainnet"
log_level = "debug"

[engine]
address = "0x00000000000000000000000000000000000000e9"
owner = "0x0000000000000000000000000000000000000001"

[facility]
fee_bps = 5

[[facility.liquidity]]
asset = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
amount = "1000000000000000000000"
`), 0o600))

	t.Setenv("FLASHD_ENGINE_MIN_PROFIT_THRESHOLD", "100000000000000000")
	t.Setenv("FLASHD_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Facility.FeeBps)
	// Preset filled the facility address the file left empty.
	assert.Equal(t, "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5", cfg.Facility.Address)
	require.Len(t, cfg.Facility.Liquidity, 1)

	// Env overrides win over file and defaults.
	assert.Equal(t, "100000000000000000", cfg.Engine.MinProfitThreshold)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestParseBig(t *testing.T) {
	v, ok := ParseBig("1000000000000000000000000000")
	require.True(t, ok)
	assert.Equal(t, "1000000000000000000000000000", v.String())

	_, ok = ParseBig("")
	assert.False(t, ok)
	_, ok = ParseBig("12x")
	assert.False(t, ok)
}
