// Package engine implements the atomic flash-loan arbitrage engine: loan
// initiation, the borrower callback state machine, profit guarding,
// repayment settlement, access control, the circuit breaker, and the
// treasury. All fund movement happens inside one ledger unit owned by the
// lending facility, so any failure unwinds completely.
package engine

import (
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/events"
	"github.com/doubletap-dave/flashloan-engine/internal/lending"
	"github.com/doubletap-dave/flashloan-engine/internal/metrics"
	"github.com/doubletap-dave/flashloan-engine/internal/venue"
)

// Book is the ledger surface the engine needs.
type Book interface {
	Balance(account common.Address, asset domain.Asset) *big.Int
	Transfer(from, to common.Address, asset domain.Asset, amount *big.Int) error
}

// Config carries the construction-time parameters injected from the
// deployment layer. Nothing here is hard-coded in the core.
type Config struct {
	// Address identifies the engine itself in the ledger.
	Address common.Address
	// Owner is the initial owner. Transferable via TransferOwnership.
	Owner common.Address
	// VenueA and VenueB are the default venue pair for ExecuteArbitrage.
	VenueA common.Address
	VenueB common.Address
	// SafetyCap bounds any single borrowed amount (overflow-class inputs
	// are rejected up front).
	SafetyCap *big.Int
	// MinProfit is the initial minimum-profit threshold in home-asset
	// units.
	MinProfit *big.Int
}

// Engine is the flash-loan arbitrage engine.
type Engine struct {
	addr       common.Address
	facility   lending.Lender
	registry   *venue.Registry
	paths      *venue.PathExecutor
	accountant *lending.Accountant
	book       Book
	events     *events.Log
	logger     *slog.Logger

	venueA common.Address
	venueB common.Address
	cap    *big.Int

	mu         sync.Mutex
	owner      common.Address
	authorized map[common.Address]bool
	paused     bool
	minProfit  *big.Int
	inflight   *domain.OperationContext
}

// New wires an Engine. The facility and venue identifiers come from config;
// the engine never discovers them itself.
func New(cfg Config, facility lending.Lender, registry *venue.Registry, book Book, log *events.Log, logger *slog.Logger) *Engine {
	minProfit := cfg.MinProfit
	if minProfit == nil {
		minProfit = new(big.Int)
	}
	e := &Engine{
		addr:       cfg.Address,
		facility:   facility,
		registry:   registry,
		paths:      venue.NewPathExecutor(registry, logger),
		accountant: lending.NewAccountant(book, logger),
		book:       book,
		events:     log,
		logger:     logger.With(slog.String("component", "engine")),
		venueA:     cfg.VenueA,
		venueB:     cfg.VenueB,
		cap:        cfg.SafetyCap,
		owner:      cfg.Owner,
		authorized: make(map[common.Address]bool),
		minProfit:  new(big.Int).Set(minProfit),
	}
	return e
}

// Address returns the engine's own ledger identity.
func (e *Engine) Address() common.Address { return e.addr }

// ---------------------------------------------------------------------------
// Access controller. Explicit role checks consulted at the top of every gated
// operation; no base-type mixin.
// ---------------------------------------------------------------------------

// requireOwner is the owner-only gate.
func (e *Engine) requireOwner(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner {
		return domain.ErrUnauthorizedAccount
	}
	return nil
}

// requireAuthorized admits the owner and any additionally authorized caller.
func (e *Engine) requireAuthorized(caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if caller != e.owner && !e.authorized[caller] {
		return domain.ErrUnauthorizedAccount
	}
	return nil
}

// SetAuthorizedCaller grants or revokes loan-initiation rights. Owner only.
func (e *Engine) SetAuthorizedCaller(caller, target common.Address, allowed bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if allowed {
		e.authorized[target] = true
	} else {
		delete(e.authorized, target)
	}
	e.logger.Info("authorized caller updated",
		slog.String("target", target.Hex()),
		slog.Bool("allowed", allowed),
	)
	return nil
}

// TransferOwnership hands the owner role to a non-zero target. Owner only.
func (e *Engine) TransferOwnership(caller, newOwner common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return domain.ErrInvalidToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Info("ownership transferred",
		slog.String("from", e.owner.Hex()),
		slog.String("to", newOwner.Hex()),
	)
	e.owner = newOwner
	return nil
}

// Owner returns the current owner.
func (e *Engine) Owner() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// ---------------------------------------------------------------------------
// Circuit breaker.
// ---------------------------------------------------------------------------

// Pause engages the circuit breaker. Pausing an already-paused engine is an
// operator mistake and surfaces as a state error, not a silent no-op.
func (e *Engine) Pause(caller common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return domain.ErrAlreadyPaused
	}
	e.paused = true
	metrics.Paused.Set(1)
	e.logger.Warn("engine paused")
	return nil
}

// Unpause releases the circuit breaker.
func (e *Engine) Unpause(caller common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.paused {
		return domain.ErrNotPaused
	}
	e.paused = false
	metrics.Paused.Set(0)
	e.logger.Info("engine unpaused")
	return nil
}

// Paused reports the circuit-breaker state.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// ---------------------------------------------------------------------------
// Profit guard configuration.
// ---------------------------------------------------------------------------

// SetMinimumProfitThreshold updates the minimum acceptable realized profit in
// home-asset units. Owner only; negative values are rejected.
func (e *Engine) SetMinimumProfitThreshold(caller common.Address, value *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if value == nil || value.Sign() < 0 {
		return domain.ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minProfit = new(big.Int).Set(value)
	e.logger.Info("profit threshold updated", slog.String("threshold", value.String()))
	return nil
}

// MinimumProfitThreshold returns the current threshold.
func (e *Engine) MinimumProfitThreshold() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(big.Int).Set(e.minProfit)
}

// ---------------------------------------------------------------------------
// Status for the operator API.
// ---------------------------------------------------------------------------

// Status is a point-in-time snapshot of the engine's observable state.
type Status struct {
	Owner     common.Address `json:"owner"`
	Paused    bool           `json:"paused"`
	MinProfit string         `json:"min_profit"`
	InFlight  bool           `json:"in_flight"`
	Phase     string         `json:"phase,omitempty"`
}

// CurrentStatus returns a snapshot of the engine state.
func (e *Engine) CurrentStatus() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Owner:     e.owner,
		Paused:    e.paused,
		MinProfit: e.minProfit.String(),
		InFlight:  e.inflight != nil,
	}
	if e.inflight != nil {
		st.Phase = e.inflight.Phase.String()
	}
	return st
}
