package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/metrics"
)

// setPhase advances the operation state machine. CurrentStatus reads the
// in-flight phase under e.mu while the callback runs, so transitions take the
// same lock.
func (e *Engine) setPhase(op *domain.OperationContext, p domain.Phase) {
	e.mu.Lock()
	op.Phase = p
	e.mu.Unlock()
}

func (e *Engine) phaseOf(op *domain.OperationContext) domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return op.Phase
}

// OnLoanReceived is the facility callback driving the operation state
// machine: Borrowed -> Swapping -> ProfitChecked -> Settled, or Aborted on
// the first failure. Only the facility may invoke it, and only for the loan
// this engine itself initiated; anything else is rejected without touching
// the in-flight operation.
//
// Obligations are recorded before any proceeds are spent, so a reentrant
// observer sees consistent accounting (checks-effects-interactions).
func (e *Engine) OnLoanReceived(ctx context.Context, caller common.Address, assets []domain.Asset, amounts, fees []*big.Int, initiator common.Address, params []byte) error {
	e.mu.Lock()
	op := e.inflight
	e.mu.Unlock()
	facility := e.facility.Address()

	if op == nil || caller != facility || initiator != e.addr {
		return domain.ErrUnauthorizedAccount
	}
	if e.phaseOf(op) != domain.PhaseIdle {
		// A second callback for the same loan is a reentrant facility.
		return domain.ErrReentrantCall
	}
	if len(assets) != len(op.Request.Assets) || len(amounts) != len(assets) || len(fees) != len(assets) {
		return domain.ErrUnauthorizedAccount
	}
	for i, aa := range op.Request.Assets {
		if assets[i] != aa.Asset || amounts[i].Cmp(aa.Amount) != 0 {
			return domain.ErrUnauthorizedAccount
		}
	}
	e.setPhase(op, domain.PhaseBorrowed)

	log := e.logger.With(slog.String("request_id", op.Request.ID))
	log.DebugContext(ctx, "loan received", slog.Int("assets", len(assets)))

	// Obligations first, before a single unit of proceeds moves.
	op.Obligations = make([]domain.RepaymentObligation, len(assets))
	for i, asset := range assets {
		fee := fees[i]
		if fee == nil {
			fee = new(big.Int)
		}
		op.Obligations[i] = domain.RepaymentObligation{
			Asset:     asset,
			Principal: new(big.Int).Set(amounts[i]),
			Fee:       new(big.Int).Set(fee),
			Total:     new(big.Int).Add(amounts[i], fee),
		}
	}

	path, minOuts, err := domain.DecodeSwapPath(op.Request.Params)
	if err != nil {
		return e.abort(ctx, op, err)
	}

	home := assets[0]
	if len(path) > 0 {
		if path.Home() != home {
			return e.abort(ctx, op, domain.ErrBrokenPath)
		}
		e.setPhase(op, domain.PhaseSwapping)
		outputs, err := e.paths.Execute(ctx, e.addr, path, amounts[0], minOuts)
		if err != nil {
			return e.abort(ctx, op, err)
		}
		op.Outputs = outputs
	}

	// Profit guard: realized balances only, never quotes, so a divergence
	// between quote and execution cannot mask a loss.
	threshold := e.MinimumProfitThreshold()
	profit := e.book.Balance(e.addr, home)
	profit.Sub(profit, op.Obligations[0].Total)
	if profit.Cmp(threshold) < 0 {
		return e.abort(ctx, op, fmt.Errorf("realized profit %s below threshold %s: %w",
			profit, threshold, domain.ErrInsufficientProfit))
	}
	op.Profit = profit
	e.setPhase(op, domain.PhaseProfitChecked)

	for _, ob := range op.Obligations {
		if err := e.accountant.Settle(e.addr, facility, ob); err != nil {
			return e.abort(ctx, op, err)
		}
	}

	e.setPhase(op, domain.PhaseSettled)
	log.InfoContext(ctx, "operation settled",
		slog.String("home_asset", home.Hex()),
		slog.String("profit", profit.String()),
	)
	return nil
}

// abort marks the operation terminal and reports the failure. The engine
// performs no cleanup of its own: unwinding every effect since Idle is the
// facility's ledger unit, applied when this error reaches it.
func (e *Engine) abort(ctx context.Context, op *domain.OperationContext, err error) error {
	e.setPhase(op, domain.PhaseAborted)
	kind := domain.Kind(err)
	metrics.Aborts.WithLabelValues(string(kind)).Inc()
	e.events.Append(ctx, domain.EventOperationAborted, map[string]string{
		"request_id": op.Request.ID,
		"kind":       string(kind),
		"error":      err.Error(),
	})
	e.logger.WarnContext(ctx, "operation aborted",
		slog.String("request_id", op.Request.ID),
		slog.String("kind", string(kind)),
		slog.String("error", err.Error()),
	)
	return err
}
