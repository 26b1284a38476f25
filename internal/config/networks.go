package config

import (
	"sort"
	"strings"
)

// networkPreset carries the well-known facility, venue, and asset addresses
// for one network. Presets only fill fields the operator left empty.
type networkPreset struct {
	Facility string
	Venues   []VenueConfig
	Assets   []AssetConfig
}

var networkPresets = map[string]networkPreset{
	"mainnet": {
		Facility: "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5",
		Venues: []VenueConfig{
			{Name: "uniswap", Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"},
			{Name: "sushiswap", Address: "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F"},
		},
		Assets: []AssetConfig{
			{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
			{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
		},
	},
	"sepolia": {
		Facility: "0x6Ae43d3271ff6888e7Fc43Fd7321a503ff738951",
		Venues: []VenueConfig{
			{Name: "uniswap", Address: "0xC532a74256D3Db42D0Bf7a0400fEFDbad7694008"},
			{Name: "sushiswap", Address: "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"},
		},
	},
	// Local testing with a mainnet fork.
	"hardhat": {
		Facility: "0xB53C1a33016B2DC2fF3653530bfF1848a515c8c5",
		Venues: []VenueConfig{
			{Name: "uniswap", Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"},
			{Name: "sushiswap", Address: "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F"},
		},
		Assets: []AssetConfig{
			{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
			{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
		},
	},
}

// presetNames returns the known network names, sorted.
func presetNames() []string {
	names := make([]string, 0, len(networkPresets))
	for n := range networkPresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ApplyNetworkPreset fills empty facility/venue/asset fields from the preset
// for cfg.Network. Operator-supplied values always win.
func ApplyNetworkPreset(cfg *Config) {
	preset, ok := networkPresets[strings.ToLower(cfg.Network)]
	if !ok {
		return
	}
	if cfg.Facility.Address == "" {
		cfg.Facility.Address = preset.Facility
	}
	if len(cfg.Venues) == 0 {
		cfg.Venues = append([]VenueConfig(nil), preset.Venues...)
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = append([]AssetConfig(nil), preset.Assets...)
	}
}
