package domain

import "errors"

// Sentinel errors for the engine. Callers match with errors.Is; every one of
// them aborts the whole atomic unit, there is no partial commit.
var (
	// Validation: bad caller input, rejected before any external call.
	ErrInvalidToken   = errors.New("invalid token address")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooLarge = errors.New("amount exceeds safety cap")

	// Authorization.
	ErrUnauthorizedAccount = errors.New("unauthorized account")

	// State.
	ErrPaused        = errors.New("contract paused")
	ErrAlreadyPaused = errors.New("already paused")
	ErrNotPaused     = errors.New("not paused")
	ErrReentrantCall = errors.New("reentrant call rejected")

	// Economic.
	ErrInsufficientProfit    = errors.New("no profitable arbitrage opportunity")
	ErrInsufficientFunds     = errors.New("insufficient funds for repayment")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// External call.
	ErrExecutionFailed = errors.New("arbitrage execution failed")

	// Path validation.
	ErrBrokenPath = errors.New("swap path is not continuous")

	ErrUnknownVenue = errors.New("unknown venue")
)

// ErrorKind classifies a sentinel into the closed error taxonomy.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindState         ErrorKind = "state"
	KindEconomic      ErrorKind = "economic"
	KindExternalCall  ErrorKind = "external_call"
	KindUnknown       ErrorKind = "unknown"
)

// Kind returns the taxonomy bucket for err, unwrapping as needed.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrAmountTooLarge),
		errors.Is(err, ErrBrokenPath),
		errors.Is(err, ErrUnknownVenue):
		return KindValidation
	case errors.Is(err, ErrUnauthorizedAccount):
		return KindAuthorization
	case errors.Is(err, ErrPaused),
		errors.Is(err, ErrAlreadyPaused),
		errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrReentrantCall):
		return KindState
	case errors.Is(err, ErrInsufficientProfit),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientLiquidity):
		return KindEconomic
	case errors.Is(err, ErrExecutionFailed):
		return KindExternalCall
	default:
		return KindUnknown
	}
}
