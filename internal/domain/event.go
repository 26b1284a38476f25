package domain

import (
	"math/big"
	"time"
)

// EventType enumerates the observable engine events consumed by off-engine
// monitoring.
type EventType string

const (
	EventFlashLoanExecuted     EventType = "flash_loan_executed"
	EventArbitrageExecuted     EventType = "arbitrage_executed"
	EventFlashOperationStarted EventType = "flash_operation_started"
	EventOperationAborted      EventType = "operation_aborted"
)

// Event is one append-only observation emitted by the engine. Numeric fields
// are stringified base-unit integers so the JSON form is lossless.
type Event struct {
	ID     string            `json:"id"`
	Type   EventType         `json:"type"`
	At     time.Time         `json:"at"`
	Fields map[string]string `json:"fields,omitempty"`
}

// bigStr renders a possibly-nil big.Int for event fields.
func bigStr(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// FlashLoanExecutedFields builds the field set for EventFlashLoanExecuted.
func FlashLoanExecutedFields(asset Asset, amount, fee *big.Int) map[string]string {
	return map[string]string{
		"asset":  asset.Hex(),
		"amount": bigStr(amount),
		"fee":    bigStr(fee),
	}
}

// ArbitrageExecutedFields builds the field set for EventArbitrageExecuted.
func ArbitrageExecutedFields(assetA, assetB Asset, amountIn, profit *big.Int) map[string]string {
	return map[string]string{
		"asset_a":   assetA.Hex(),
		"asset_b":   assetB.Hex(),
		"amount_in": bigStr(amountIn),
		"profit":    bigStr(profit),
	}
}

// FlashOperationStartedFields builds the field set for
// EventFlashOperationStarted.
func FlashOperationStartedFields(assetA, assetB Asset, amount0, amount1 *big.Int) map[string]string {
	return map[string]string{
		"asset_a": assetA.Hex(),
		"asset_b": assetB.Hex(),
		"amount0": bigStr(amount0),
		"amount1": bigStr(amount1),
	}
}
