// Package ledger is the engine's asset balance book. It tracks the holdings
// of every participant (engine, lending facility, venues, owner) and provides
// the all-or-nothing unit of execution the engine settles inside: while a
// unit is open every mutation records its inverse, and aborting the unit
// applies the inverses in reverse order so no partial state survives.
package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

type balanceKey struct {
	Account common.Address
	Asset   domain.Asset
}

// entry is one journaled mutation. Aborting replays entries backwards with
// from/to swapped (a mint inverts to a burn).
type entry struct {
	From   common.Address
	To     common.Address
	Asset  domain.Asset
	Amount *big.Int
	Mint   bool
}

// Ledger is safe for concurrent use by outer layers; the atomic unit itself
// is single-threaded per invocation.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]*big.Int
	journal  []entry
	open     bool
}

// New creates an empty ledger with no unit open.
func New() *Ledger {
	return &Ledger{balances: make(map[balanceKey]*big.Int)}
}

// Balance returns a copy of account's balance of asset.
func (l *Ledger) Balance(account common.Address, asset domain.Asset) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(account, asset))
}

func (l *Ledger) balance(account common.Address, asset domain.Asset) *big.Int {
	if b, ok := l.balances[balanceKey{account, asset}]; ok {
		return b
	}
	b := new(big.Int)
	l.balances[balanceKey{account, asset}] = b
	return b
}

// Mint credits account with amount of asset out of thin air. Inside an open
// unit the credit is journaled and undone on abort.
func (l *Ledger) Mint(account common.Address, asset domain.Asset, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance(account, asset).Add(l.balance(account, asset), amount)
	if l.open {
		l.journal = append(l.journal, entry{To: account, Asset: asset, Amount: new(big.Int).Set(amount), Mint: true})
	}
}

// Transfer moves amount of asset from one account to another. A zero amount
// is a no-op, never an error. Overdrafts fail with ErrInsufficientFunds and
// change nothing.
func (l *Ledger) Transfer(from, to common.Address, asset domain.Asset, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.balance(from, asset)
	if src.Cmp(amount) < 0 {
		return fmt.Errorf("ledger: %s of %s short by %s: %w",
			from.Hex(), asset.Hex(), new(big.Int).Sub(amount, src), domain.ErrInsufficientFunds)
	}
	src.Sub(src, amount)
	dst := l.balance(to, asset)
	dst.Add(dst, amount)
	if l.open {
		l.journal = append(l.journal, entry{From: from, To: to, Asset: asset, Amount: new(big.Int).Set(amount)})
	}
	return nil
}

// Begin opens the atomic unit. Only one unit may be open at a time; a second
// Begin fails without touching the running unit.
func (l *Ledger) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open {
		return domain.ErrReentrantCall
	}
	l.open = true
	l.journal = l.journal[:0]
	return nil
}

// Commit closes the unit keeping every effect.
func (l *Ledger) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open = false
	l.journal = nil
}

// Abort closes the unit undoing every journaled mutation in reverse order.
func (l *Ledger) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.journal) - 1; i >= 0; i-- {
		e := l.journal[i]
		dst := l.balance(e.To, e.Asset)
		dst.Sub(dst, e.Amount)
		if !e.Mint {
			src := l.balance(e.From, e.Asset)
			src.Add(src, e.Amount)
		}
	}
	l.open = false
	l.journal = nil
}

// InUnit reports whether an atomic unit is currently open.
func (l *Ledger) InUnit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}
