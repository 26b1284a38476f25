package lending

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/ledger"
)

// Borrower receives the borrowed funds and must leave the facility fully
// repaid (principal + fee per asset) by the time it returns.
type Borrower interface {
	Address() common.Address
	OnLoanReceived(ctx context.Context, caller common.Address, assets []domain.Asset, amounts, fees []*big.Int, initiator common.Address, params []byte) error
}

// Lender is the facility interface the engine initiates loans through.
type Lender interface {
	Address() common.Address
	FeeRateBps() uint32
	FlashLoan(ctx context.Context, borrower Borrower, assets []domain.Asset, amounts []*big.Int, params []byte) error
}

// Pool is an in-process lending facility. It owns the atomic unit: the loan,
// the borrower callback, and repayment verification all happen inside one
// ledger unit that either commits whole or unwinds whole.
type Pool struct {
	addr    common.Address
	feeBps  uint32
	ledger  *ledger.Ledger
	logger  *slog.Logger
}

// NewPool creates a facility at addr charging feeBps per loan, with its
// liquidity held in l under addr.
func NewPool(addr common.Address, feeBps uint32, l *ledger.Ledger, logger *slog.Logger) *Pool {
	return &Pool{
		addr:   addr,
		feeBps: feeBps,
		ledger: l,
		logger: logger.With(slog.String("component", "lending_pool")),
	}
}

// Address returns the facility identifier.
func (p *Pool) Address() common.Address { return p.addr }

// FeeRateBps returns the facility fee rate in basis points.
func (p *Pool) FeeRateBps() uint32 { return p.feeBps }

// FlashLoan lends the requested amounts to borrower, invokes its callback,
// and verifies full repayment. Any failure (insufficient pool liquidity, a
// callback error, under-repayment) aborts the unit and restores every balance
// to its pre-loan state.
func (p *Pool) FlashLoan(ctx context.Context, borrower Borrower, assets []domain.Asset, amounts []*big.Int, params []byte) error {
	if len(assets) == 0 || len(assets) != len(amounts) {
		return domain.ErrInvalidAmount
	}
	if err := p.ledger.Begin(); err != nil {
		return err
	}

	fees := make([]*big.Int, len(assets))
	expected := make([]*big.Int, len(assets))
	for i, asset := range assets {
		ob := ComputeObligation(asset, amounts[i], p.feeBps)
		fees[i] = ob.Fee
		// The pool must end the unit with its pre-loan balance plus the fee.
		expected[i] = new(big.Int).Add(p.ledger.Balance(p.addr, asset), ob.Fee)

		if err := p.ledger.Transfer(p.addr, borrower.Address(), asset, amounts[i]); err != nil {
			p.ledger.Abort()
			return fmt.Errorf("lend %s: %w", asset.Hex(), domain.ErrInsufficientLiquidity)
		}
	}

	p.logger.Debug("loan disbursed",
		slog.Int("assets", len(assets)),
		slog.String("borrower", borrower.Address().Hex()),
	)

	if err := borrower.OnLoanReceived(ctx, p.addr, assets, amounts, fees, borrower.Address(), params); err != nil {
		p.ledger.Abort()
		return err
	}

	for i, asset := range assets {
		if p.ledger.Balance(p.addr, asset).Cmp(expected[i]) < 0 {
			p.ledger.Abort()
			return fmt.Errorf("repayment of %s: %w", asset.Hex(), domain.ErrInsufficientFunds)
		}
	}

	p.ledger.Commit()
	return nil
}
