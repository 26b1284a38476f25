package domain

import (
	"math/big"
	"time"
)

// Phase is the state of the operation executor's state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBorrowed
	PhaseSwapping
	PhaseProfitChecked
	PhaseSettled
	PhaseAborted
)

// String returns the phase name used in logs and events.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBorrowed:
		return "borrowed"
	case PhaseSwapping:
		return "swapping"
	case PhaseProfitChecked:
		return "profit_checked"
	case PhaseSettled:
		return "settled"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the atomic unit.
func (p Phase) Terminal() bool {
	return p == PhaseSettled || p == PhaseAborted
}

// OperationContext is the ephemeral record of one in-flight loan. It doubles
// as the engine's reentrancy token: while one exists, no other entry point
// that moves funds may run. It is discarded when the unit commits or aborts,
// never persisted.
type OperationContext struct {
	Phase       Phase
	Request     LoanRequest
	Obligations []RepaymentObligation
	// Outputs holds realized per-hop swap outputs, in execution order.
	Outputs []*big.Int
	// Profit is the realized home-asset profit, set in PhaseProfitChecked.
	Profit    *big.Int
	StartedAt time.Time
}

// NewOperationContext creates the context for req in PhaseIdle. The facility
// callback moves it to PhaseBorrowed once the caller and request are verified.
func NewOperationContext(req LoanRequest) *OperationContext {
	return &OperationContext{
		Phase:     PhaseIdle,
		Request:   req,
		StartedAt: time.Now().UTC(),
	}
}
