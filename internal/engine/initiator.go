package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/lending"
	"github.com/doubletap-dave/flashloan-engine/internal/metrics"
)

// FlashloanSimple borrows a single asset with no swap path. The loan must
// still satisfy the profit guard against the current threshold once the
// facility fee is paid.
func (e *Engine) FlashloanSimple(ctx context.Context, caller common.Address, asset domain.Asset, amount *big.Int) error {
	aa := []domain.AssetAmount{{Asset: asset, Amount: amount}}
	_, err := e.initiate(ctx, caller, "flashloan_simple", aa, nil)
	return err
}

// FlashloanMultiple borrows several assets in one atomic unit. The assets and
// amounts slices must be the same non-zero length.
func (e *Engine) FlashloanMultiple(ctx context.Context, caller common.Address, assets []domain.Asset, amounts []*big.Int) error {
	if len(assets) == 0 || len(assets) != len(amounts) {
		metrics.Operations.WithLabelValues("flashloan_multiple", "rejected").Inc()
		return domain.ErrInvalidAmount
	}
	aa := make([]domain.AssetAmount, len(assets))
	for i := range assets {
		aa[i] = domain.AssetAmount{Asset: assets[i], Amount: amounts[i]}
	}
	_, err := e.initiate(ctx, caller, "flashloan_multiple", aa, nil)
	return err
}

// ExecuteArbitrage borrows amount of assetA, runs the round trip
// assetA -> assetB -> assetA across the engine's venue pair, and keeps the
// surplus. Optional price hints (one per venue, fixed-point 1e18) replace the
// pre-flight venue quotes; with hints the venues are expected to be fixed-rate
// adapters configured to the same prices.
func (e *Engine) ExecuteArbitrage(ctx context.Context, caller common.Address, assetA, assetB domain.Asset, amount *big.Int, priceHints ...*big.Int) error {
	if assetA == (common.Address{}) || assetB == (common.Address{}) || assetA == assetB {
		metrics.Operations.WithLabelValues("execute_arbitrage", "rejected").Inc()
		return domain.ErrInvalidToken
	}
	if amount == nil || amount.Sign() <= 0 {
		metrics.Operations.WithLabelValues("execute_arbitrage", "rejected").Inc()
		return domain.ErrInvalidAmount
	}
	// begin re-checks under its lock; this keeps a caller it would reject
	// from quoting venues or emitting a started event.
	if err := e.admit(caller, amount); err != nil {
		metrics.Operations.WithLabelValues("execute_arbitrage", "rejected").Inc()
		return err
	}

	path, estOut, err := e.planRoundTrip(ctx, assetA, assetB, amount, priceHints)
	if err != nil {
		metrics.Operations.WithLabelValues("execute_arbitrage", "rejected").Inc()
		return err
	}

	// Pre-flight economics: quoted proceeds must clear principal, fee, and
	// threshold before the facility is ever contacted. Settlement re-checks
	// against realized balances.
	ob := lending.ComputeObligation(assetA, amount, e.facility.FeeRateBps())
	estProfit := new(big.Int).Sub(estOut, ob.Total)
	if estProfit.Cmp(e.MinimumProfitThreshold()) < 0 {
		metrics.Operations.WithLabelValues("execute_arbitrage", "rejected").Inc()
		return fmt.Errorf("estimated profit %s below threshold: %w", estProfit, domain.ErrInsufficientProfit)
	}

	params, err := domain.EncodeSwapPath(path, nil)
	if err != nil {
		return err
	}

	e.events.Append(ctx, domain.EventFlashOperationStarted,
		domain.FlashOperationStartedFields(assetA, assetB, amount, new(big.Int)))

	op, err := e.initiate(ctx, caller, "execute_arbitrage",
		[]domain.AssetAmount{{Asset: assetA, Amount: amount}}, params)
	if err != nil {
		return err
	}

	e.events.Append(ctx, domain.EventArbitrageExecuted,
		domain.ArbitrageExecutedFields(assetA, assetB, amount, op.Profit))
	return nil
}

// planRoundTrip picks the venue ordering that sells assetA where it is dear
// and buys it back where it is cheap, returning the two-hop path and the
// estimated final output.
func (e *Engine) planRoundTrip(ctx context.Context, assetA, assetB domain.Asset, amount *big.Int, hints []*big.Int) (domain.SwapPath, *big.Int, error) {
	if len(hints) >= 2 && hints[0] != nil && hints[1] != nil {
		p1, p2 := hints[0], hints[1]
		if p1.Sign() <= 0 || p2.Sign() <= 0 {
			return nil, nil, domain.ErrInvalidAmount
		}
		sell, buy := e.venueA, e.venueB
		hi, lo := p1, p2
		if p2.Cmp(p1) > 0 {
			sell, buy = e.venueB, e.venueA
			hi, lo = p2, p1
		}
		est := new(big.Int).Mul(amount, hi)
		est.Div(est, lo)
		path := domain.SwapPath{
			{Venue: sell, AssetIn: assetA, AssetOut: assetB},
			{Venue: buy, AssetIn: assetB, AssetOut: assetA},
		}
		return path, est, nil
	}

	forward := domain.SwapPath{
		{Venue: e.venueA, AssetIn: assetA, AssetOut: assetB},
		{Venue: e.venueB, AssetIn: assetB, AssetOut: assetA},
	}
	reverse := domain.SwapPath{
		{Venue: e.venueB, AssetIn: assetA, AssetOut: assetB},
		{Venue: e.venueA, AssetIn: assetB, AssetOut: assetA},
	}
	outFwd, errFwd := e.paths.QuotePath(ctx, forward, amount)
	outRev, errRev := e.paths.QuotePath(ctx, reverse, amount)
	switch {
	case errFwd != nil && errRev != nil:
		return nil, nil, errFwd
	case errFwd != nil:
		return reverse, outRev, nil
	case errRev != nil:
		return forward, outFwd, nil
	case outRev.Cmp(outFwd) > 0:
		return reverse, outRev, nil
	default:
		return forward, outFwd, nil
	}
}

// admit runs the begin preconditions without installing the in-flight token.
// ExecuteArbitrage consults venues and announces itself before the loan is
// requested; none of that may happen for a caller begin would turn away.
func (e *Engine) admit(caller common.Address, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return domain.ErrPaused
	}
	if caller != e.owner && !e.authorized[caller] {
		return domain.ErrUnauthorizedAccount
	}
	if e.cap != nil && e.cap.Sign() > 0 && amount.Cmp(e.cap) > 0 {
		return domain.ErrAmountTooLarge
	}
	if e.inflight != nil {
		return domain.ErrReentrantCall
	}
	return nil
}

// begin runs every precondition under one lock and installs the operation
// context as the exclusive in-flight token. A second loan while one is in
// flight fails fast; nothing queues.
func (e *Engine) begin(caller common.Address, req domain.LoanRequest) (*domain.OperationContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return nil, domain.ErrPaused
	}
	if caller != e.owner && !e.authorized[caller] {
		return nil, domain.ErrUnauthorizedAccount
	}
	if err := req.Validate(e.cap); err != nil {
		return nil, err
	}
	if e.inflight != nil {
		return nil, domain.ErrReentrantCall
	}
	op := domain.NewOperationContext(req)
	e.inflight = op
	return op, nil
}

// initiate requests the loan from the facility and emits the loan events on
// success. The in-flight token is always released on return, whatever the
// outcome.
func (e *Engine) initiate(ctx context.Context, caller common.Address, opName string, assets []domain.AssetAmount, params []byte) (*domain.OperationContext, error) {
	req := domain.LoanRequest{
		ID:        uuid.New().String(),
		Assets:    assets,
		Initiator: caller,
		Params:    params,
	}
	op, err := e.begin(caller, req)
	if err != nil {
		metrics.Operations.WithLabelValues(opName, "rejected").Inc()
		return nil, err
	}
	defer func() {
		e.mu.Lock()
		e.inflight = nil
		e.mu.Unlock()
	}()

	addrs := make([]domain.Asset, len(assets))
	amounts := make([]*big.Int, len(assets))
	for i, aa := range assets {
		addrs[i] = aa.Asset
		amounts[i] = aa.Amount
	}

	log := e.logger.With(
		slog.String("op", opName),
		slog.String("request_id", req.ID),
		slog.String("caller", caller.Hex()),
	)
	log.InfoContext(ctx, "initiating flash loan", slog.Int("assets", len(assets)))

	if err := e.facility.FlashLoan(ctx, e, addrs, amounts, params); err != nil {
		metrics.Operations.WithLabelValues(opName, "aborted").Inc()
		log.WarnContext(ctx, "flash loan aborted",
			slog.String("kind", string(domain.Kind(err))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	for _, ob := range op.Obligations {
		e.events.Append(ctx, domain.EventFlashLoanExecuted,
			domain.FlashLoanExecutedFields(ob.Asset, ob.Principal, ob.Fee))
	}
	metrics.Operations.WithLabelValues(opName, "ok").Inc()
	log.InfoContext(ctx, "flash loan settled")
	return op, nil
}
