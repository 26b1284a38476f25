package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LoanRequest describes one flash loan to be borrowed from the lending
// facility. Params is an opaque blob forwarded unchanged to the borrower
// callback (typically an encoded swap path, see EncodeSwapPath).
type LoanRequest struct {
	ID        string
	Assets    []AssetAmount
	Initiator common.Address
	Params    []byte
}

// Validate checks the request invariants that must hold before the facility
// is ever contacted: at least one asset, non-zero addresses, positive amounts,
// and every amount at or below the safety cap.
func (r LoanRequest) Validate(cap *big.Int) error {
	if len(r.Assets) == 0 {
		return ErrInvalidAmount
	}
	for _, aa := range r.Assets {
		if aa.Asset == (common.Address{}) {
			return ErrInvalidToken
		}
		if !aa.Positive() {
			return ErrInvalidAmount
		}
		if cap != nil && cap.Sign() > 0 && aa.Amount.Cmp(cap) > 0 {
			return ErrAmountTooLarge
		}
	}
	return nil
}

// Quote is one venue's exchange rate for a single hop: AmountOut for
// AmountIn. Quotes are estimates; settlement always uses realized balances.
type Quote struct {
	Venue     common.Address
	AssetIn   Asset
	AssetOut  Asset
	AmountIn  *big.Int
	AmountOut *big.Int
}

// Hop is one swap leg of a trading path, executed on a single venue.
type Hop struct {
	Venue    common.Address
	AssetIn  Asset
	AssetOut Asset
}

// SwapPath is an ordered sequence of hops. The amount flowing into hop i+1 is
// the amount produced by hop i.
type SwapPath []Hop

// Validate checks path continuity and, for round-trip arbitrage, that the
// path starts and ends in the same asset. It is called before any hop is
// executed so a broken path never spends a call on partial execution.
func (p SwapPath) Validate(roundTrip bool) error {
	if len(p) == 0 {
		return ErrBrokenPath
	}
	for i, h := range p {
		if h.AssetIn == (common.Address{}) || h.AssetOut == (common.Address{}) {
			return ErrInvalidToken
		}
		if h.AssetIn == h.AssetOut {
			return ErrBrokenPath
		}
		if i > 0 && p[i-1].AssetOut != h.AssetIn {
			return ErrBrokenPath
		}
	}
	if roundTrip && p[0].AssetIn != p[len(p)-1].AssetOut {
		return ErrBrokenPath
	}
	return nil
}

// Home returns the asset the path starts (and, for a round trip, ends) in.
func (p SwapPath) Home() Asset {
	if len(p) == 0 {
		return Asset{}
	}
	return p[0].AssetIn
}

// RepaymentObligation is what the engine owes the facility for one borrowed
// asset: principal plus the facility fee, rounded in the lender's favor.
type RepaymentObligation struct {
	Asset     Asset
	Principal *big.Int
	Fee       *big.Int
	Total     *big.Int
}
