package venue

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// priceScale is the fixed-point scale of venue prices: a price of 2000e18
// means 1 unit of assetIn buys 2000 units of assetOut.
var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type pair struct {
	In  domain.Asset
	Out domain.Asset
}

// Fixed is a venue with operator-set fixed exchange rates and finite
// inventory held in the ledger. It is the explicit-price configuration: when
// an operation supplies price hints, they become rates on Fixed venues
// instead of a separate engine design.
type Fixed struct {
	addr   common.Address
	book   *ledgerBook
	mu     sync.RWMutex
	rates  map[pair]*big.Int
	broken bool
}

// ledgerBook is the slice of the ledger API a venue needs. Declared here so
// the package depends on behavior, not on the ledger implementation.
type ledgerBook struct {
	Balance  func(account common.Address, asset domain.Asset) *big.Int
	Transfer func(from, to common.Address, asset domain.Asset, amount *big.Int) error
}

// Book adapts any ledger-shaped implementation for venue construction.
type Book interface {
	Balance(account common.Address, asset domain.Asset) *big.Int
	Transfer(from, to common.Address, asset domain.Asset, amount *big.Int) error
}

// NewFixed creates a fixed-rate venue identified by addr whose inventory
// lives in book under the same address.
func NewFixed(addr common.Address, book Book) *Fixed {
	return &Fixed{
		addr:  addr,
		book:  &ledgerBook{Balance: book.Balance, Transfer: book.Transfer},
		rates: make(map[pair]*big.Int),
	}
}

// Address returns the venue identifier.
func (f *Fixed) Address() common.Address { return f.addr }

// SetPrice fixes the rate for assetIn -> assetOut. Prices are one-directional;
// set both directions explicitly when needed.
func (f *Fixed) SetPrice(assetIn, assetOut domain.Asset, price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[pair{assetIn, assetOut}] = new(big.Int).Set(price)
}

// SetSimulateFailure makes every subsequent Swap fail with ExecutionFailed.
// Used to exercise abort-and-unwind behavior end to end.
func (f *Fixed) SetSimulateFailure(broken bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken = broken
}

// Quote estimates the output for amountIn without touching state.
func (f *Fixed) Quote(_ context.Context, assetIn, assetOut domain.Asset, amountIn *big.Int) (*big.Int, error) {
	f.mu.RLock()
	rate, ok := f.rates[pair{assetIn, assetOut}]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("venue %s: no market %s->%s: %w",
			f.addr.Hex(), assetIn.Hex(), assetOut.Hex(), domain.ErrInsufficientLiquidity)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	out := new(big.Int).Mul(amountIn, rate)
	return out.Div(out, priceScale), nil
}

// Swap exchanges amountIn of assetIn for assetOut at the fixed rate. The
// venue's own inventory is checked before anything moves, so a failed swap
// leaves both balances untouched.
func (f *Fixed) Swap(ctx context.Context, trader common.Address, assetIn, assetOut domain.Asset, amountIn, minOut *big.Int) (*big.Int, error) {
	f.mu.RLock()
	broken := f.broken
	f.mu.RUnlock()
	if broken {
		return nil, fmt.Errorf("venue %s: %w", f.addr.Hex(), domain.ErrExecutionFailed)
	}

	out, err := f.Quote(ctx, assetIn, assetOut, amountIn)
	if err != nil {
		return nil, err
	}
	if minOut != nil && out.Cmp(minOut) < 0 {
		return nil, fmt.Errorf("venue %s: output %s below minimum %s: %w",
			f.addr.Hex(), out, minOut, domain.ErrExecutionFailed)
	}
	if f.book.Balance(f.addr, assetOut).Cmp(out) < 0 {
		return nil, fmt.Errorf("venue %s: %s inventory: %w",
			f.addr.Hex(), assetOut.Hex(), domain.ErrInsufficientLiquidity)
	}
	if err := f.book.Transfer(trader, f.addr, assetIn, amountIn); err != nil {
		return nil, fmt.Errorf("venue %s: pull input: %w", f.addr.Hex(), err)
	}
	if err := f.book.Transfer(f.addr, trader, assetOut, out); err != nil {
		return nil, fmt.Errorf("venue %s: push output: %w", f.addr.Hex(), err)
	}
	return out, nil
}
