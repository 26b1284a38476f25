package engine

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// requireIdle rejects treasury movement while a loan is in flight.
func (e *Engine) requireIdle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight != nil {
		return domain.ErrReentrantCall
	}
	return nil
}

// WithdrawToken sweeps the engine's full balance of asset (including the
// native pseudo-asset) to the owner and returns the amount moved. A zero
// balance is a zero-value no-op, never an error, so repeated sweeps are safe.
func (e *Engine) WithdrawToken(caller common.Address, asset domain.Asset) (*big.Int, error) {
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	if err := e.requireIdle(); err != nil {
		return nil, err
	}
	if asset == (common.Address{}) {
		return nil, domain.ErrInvalidToken
	}
	balance := e.book.Balance(e.addr, asset)
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := e.book.Transfer(e.addr, e.Owner(), asset, balance); err != nil {
		return nil, err
	}
	e.logger.Info("treasury withdrawal",
		slog.String("asset", asset.Hex()),
		slog.String("amount", balance.String()),
	)
	return balance, nil
}

// EmergencyWithdraw moves an exact amount of asset to an explicit recipient.
// Owner only, idle only.
func (e *Engine) EmergencyWithdraw(caller common.Address, asset domain.Asset, amount *big.Int, recipient common.Address) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.requireIdle(); err != nil {
		return err
	}
	if asset == (common.Address{}) || recipient == (common.Address{}) {
		return domain.ErrInvalidToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	if err := e.book.Transfer(e.addr, recipient, asset, amount); err != nil {
		return err
	}
	e.logger.Warn("emergency withdrawal",
		slog.String("asset", asset.Hex()),
		slog.String("amount", amount.String()),
		slog.String("recipient", recipient.Hex()),
	)
	return nil
}
