// Package venue provides the uniform adapter interface over heterogeneous
// exchange venues, a registry that resolves venue identifiers to adapters,
// and the strict in-order executor for multi-hop swap paths.
package venue

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// Venue is one exchange. Quote must not mutate venue state. Swap either
// produces at least minOut with both legs of the exchange applied, or fails
// with nothing applied; partial fills never reach the engine's accounting.
type Venue interface {
	Address() common.Address
	Quote(ctx context.Context, assetIn, assetOut domain.Asset, amountIn *big.Int) (*big.Int, error)
	Swap(ctx context.Context, trader common.Address, assetIn, assetOut domain.Asset, amountIn, minOut *big.Int) (*big.Int, error)
}

// Registry resolves venue identifiers (addresses, injected from config) to
// their adapters.
type Registry struct {
	mu     sync.RWMutex
	venues map[common.Address]Venue
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{venues: make(map[common.Address]Venue)}
}

// Register adds or replaces the adapter for v.Address().
func (r *Registry) Register(v Venue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.venues[v.Address()] = v
}

// Lookup returns the adapter registered under addr.
func (r *Registry) Lookup(addr common.Address) (Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.venues[addr]
	if !ok {
		return nil, fmt.Errorf("venue %s: %w", addr.Hex(), domain.ErrUnknownVenue)
	}
	return v, nil
}

// Addresses returns the identifiers of all registered venues.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, len(r.venues))
	for a := range r.venues {
		out = append(out, a)
	}
	return out
}
