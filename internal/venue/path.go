package venue

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// PathExecutor runs multi-hop swap paths strictly in order against registered
// venues. Continuity is validated before the first hop so a broken path never
// spends a call on partial execution.
type PathExecutor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewPathExecutor creates a PathExecutor over the given registry.
func NewPathExecutor(registry *Registry, logger *slog.Logger) *PathExecutor {
	return &PathExecutor{
		registry: registry,
		logger:   logger.With(slog.String("component", "path_executor")),
	}
}

// QuotePath estimates the final output of feeding amountIn through the path.
// Read-only; used for pre-flight profit estimation only, never settlement.
func (pe *PathExecutor) QuotePath(ctx context.Context, path domain.SwapPath, amountIn *big.Int) (*big.Int, error) {
	if err := path.Validate(false); err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(amountIn)
	for _, hop := range path {
		v, err := pe.registry.Lookup(hop.Venue)
		if err != nil {
			return nil, err
		}
		amount, err = v.Quote(ctx, hop.AssetIn, hop.AssetOut, amount)
		if err != nil {
			return nil, err
		}
	}
	return amount, nil
}

// Execute runs the path hop by hop on behalf of trader, feeding each hop's
// realized output into the next. It returns the per-hop outputs. Any hop
// failure is returned as-is; the caller aborts the surrounding unit.
func (pe *PathExecutor) Execute(ctx context.Context, trader common.Address, path domain.SwapPath, amountIn *big.Int, minOuts []*big.Int) ([]*big.Int, error) {
	if err := path.Validate(true); err != nil {
		return nil, err
	}
	// Resolve every venue up front: an unknown venue is a validation
	// failure, not a mid-path abort.
	venues := make([]Venue, len(path))
	for i, hop := range path {
		v, err := pe.registry.Lookup(hop.Venue)
		if err != nil {
			return nil, err
		}
		venues[i] = v
	}

	outputs := make([]*big.Int, 0, len(path))
	amount := new(big.Int).Set(amountIn)
	for i, hop := range path {
		var minOut *big.Int
		if minOuts != nil && i < len(minOuts) {
			minOut = minOuts[i]
		}
		out, err := venues[i].Swap(ctx, trader, hop.AssetIn, hop.AssetOut, amount, minOut)
		if err != nil {
			return nil, fmt.Errorf("hop %d %s->%s: %w", i, hop.AssetIn.Hex(), hop.AssetOut.Hex(), err)
		}
		pe.logger.DebugContext(ctx, "hop executed",
			slog.Int("hop", i),
			slog.String("venue", hop.Venue.Hex()),
			slog.String("amount_in", amount.String()),
			slog.String("amount_out", out.String()),
		)
		outputs = append(outputs, out)
		amount = new(big.Int).Set(out)
	}
	return outputs, nil
}
