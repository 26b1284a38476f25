// Package lending holds the engine's side of the flash-loan facility
// boundary: the repayment accountant and an in-process pool implementation
// used for local networks and tests. Real deployments point the engine at an
// external facility through the same Lender interface.
package lending

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// bpsDenominator is the basis-point scale of facility fee rates.
const bpsDenominator = 10000

// ComputeObligation returns what the borrower owes for principal at the given
// facility fee rate. The fee rounds up so truncation can never under-repay
// the lender.
func ComputeObligation(asset domain.Asset, principal *big.Int, feeRateBps uint32) domain.RepaymentObligation {
	fee := new(big.Int).Mul(principal, big.NewInt(int64(feeRateBps)))
	fee.Add(fee, big.NewInt(bpsDenominator-1))
	fee.Div(fee, big.NewInt(bpsDenominator))
	return domain.RepaymentObligation{
		Asset:     asset,
		Principal: new(big.Int).Set(principal),
		Fee:       fee,
		Total:     new(big.Int).Add(principal, fee),
	}
}

// Accountant settles repayment obligations out of the engine's balances.
type Accountant struct {
	book   Book
	logger *slog.Logger
}

// Book is the ledger surface the accountant needs.
type Book interface {
	Balance(account common.Address, asset domain.Asset) *big.Int
	Transfer(from, to common.Address, asset domain.Asset, amount *big.Int) error
}

// NewAccountant creates an Accountant over the given balance book.
func NewAccountant(book Book, logger *slog.Logger) *Accountant {
	return &Accountant{book: book, logger: logger.With(slog.String("component", "accountant"))}
}

// Settle verifies that payer holds at least the obligation total post-swap
// and transfers exactly that total to the facility. A shortfall is an
// economic failure that aborts the whole unit; the remainder stays with the
// payer as profit.
func (a *Accountant) Settle(payer, facility common.Address, ob domain.RepaymentObligation) error {
	held := a.book.Balance(payer, ob.Asset)
	if held.Cmp(ob.Total) < 0 {
		return fmt.Errorf("settle %s: hold %s, owe %s: %w",
			ob.Asset.Hex(), held, ob.Total, domain.ErrInsufficientFunds)
	}
	if err := a.book.Transfer(payer, facility, ob.Asset, ob.Total); err != nil {
		return fmt.Errorf("settle %s: %w", ob.Asset.Hex(), err)
	}
	a.logger.Debug("obligation settled",
		slog.String("asset", ob.Asset.Hex()),
		slog.String("principal", ob.Principal.String()),
		slog.String("fee", ob.Fee.String()),
	)
	return nil
}
