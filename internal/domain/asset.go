// Package domain defines the core types shared by the flash-loan engine:
// assets and amounts, loan requests, swap paths, repayment obligations, the
// in-flight operation context, and the sentinel error taxonomy.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Asset identifies a token by its contract address. The chain-native asset
// uses the conventional 0xEeee... pseudo-address.
type Asset = common.Address

// NativeAsset is the pseudo-address used for the chain's native asset in
// treasury withdrawals.
var NativeAsset = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// AssetAmount pairs an asset with a non-negative quantity in the asset's
// smallest unit.
type AssetAmount struct {
	Asset  Asset
	Amount *big.Int
}

// Positive reports whether the amount is strictly greater than zero.
func (a AssetAmount) Positive() bool {
	return a.Amount != nil && a.Amount.Sign() > 0
}

// DecimalsRegistry maps assets to their decimal scale. The scale is used only
// for display formatting; all settlement math stays in integer base units.
type DecimalsRegistry map[Asset]int32

// Display renders amount in human units using the registered scale (18 when
// unregistered, the ERC-20 default).
func (r DecimalsRegistry) Display(asset Asset, amount *big.Int) string {
	scale := int32(18)
	if s, ok := r[asset]; ok {
		scale = s
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, -scale).String()
}
