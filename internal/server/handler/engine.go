package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/engine"
	"github.com/doubletap-dave/flashloan-engine/internal/server/middleware"
)

// EngineService defines the engine methods the HTTP handlers require.
type EngineService interface {
	FlashloanSimple(ctx context.Context, caller common.Address, asset domain.Asset, amount *big.Int) error
	FlashloanMultiple(ctx context.Context, caller common.Address, assets []domain.Asset, amounts []*big.Int) error
	ExecuteArbitrage(ctx context.Context, caller common.Address, assetA, assetB domain.Asset, amount *big.Int, priceHints ...*big.Int) error
	Pause(caller common.Address) error
	Unpause(caller common.Address) error
	SetMinimumProfitThreshold(caller common.Address, value *big.Int) error
	WithdrawToken(caller common.Address, asset domain.Asset) (*big.Int, error)
	EmergencyWithdraw(caller common.Address, asset domain.Asset, amount *big.Int, recipient common.Address) error
	CurrentStatus() engine.Status
}

// EngineHandler serves the engine control and execution endpoints.
type EngineHandler struct {
	eng    EngineService
	logger *slog.Logger
}

// NewEngineHandler creates an EngineHandler with the given service and logger.
func NewEngineHandler(eng EngineService, logger *slog.Logger) *EngineHandler {
	return &EngineHandler{eng: eng, logger: logger}
}

type flashloanRequest struct {
	Assets  []string `json:"assets"`
	Amounts []string `json:"amounts"`
}

// Flashloan initiates a plain flash loan with no swap route attached.
// POST /api/flashloan
func (h *EngineHandler) Flashloan(w http.ResponseWriter, r *http.Request) {
	var req flashloanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Assets) == 0 || len(req.Assets) != len(req.Amounts) {
		writeError(w, http.StatusBadRequest, "assets and amounts must be non-empty and equal length")
		return
	}

	assets := make([]domain.Asset, len(req.Assets))
	amounts := make([]*big.Int, len(req.Amounts))
	for i := range req.Assets {
		asset, err := parseAddress(req.Assets[i])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		amount, err := parseAmount(req.Amounts[i])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		assets[i] = asset
		amounts[i] = amount
	}

	caller := middleware.Caller(r.Context())
	var err error
	if len(assets) == 1 {
		err = h.eng.FlashloanSimple(r.Context(), caller, assets[0], amounts[0])
	} else {
		err = h.eng.FlashloanMultiple(r.Context(), caller, assets, amounts)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: flashloan failed",
			slog.String("caller", caller.Hex()),
			slog.String("error", err.Error()),
		)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

type arbitrageRequest struct {
	AssetA     string   `json:"asset_a"`
	AssetB     string   `json:"asset_b"`
	Amount     string   `json:"amount"`
	PriceHints []string `json:"price_hints,omitempty"`
}

// Arbitrage initiates a flash-loan funded round trip between two assets.
// POST /api/arbitrage
func (h *EngineHandler) Arbitrage(w http.ResponseWriter, r *http.Request) {
	var req arbitrageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	assetA, err := parseAddress(req.AssetA)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	assetB, err := parseAddress(req.AssetB)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hints := make([]*big.Int, 0, len(req.PriceHints))
	for _, hv := range req.PriceHints {
		hint, err := parseAmount(hv)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hints = append(hints, hint)
	}

	caller := middleware.Caller(r.Context())
	if err := h.eng.ExecuteArbitrage(r.Context(), caller, assetA, assetB, amount, hints...); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: arbitrage failed",
			slog.String("caller", caller.Hex()),
			slog.String("error", err.Error()),
		)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

// Pause stops the engine from accepting new operations.
// POST /api/pause
func (h *EngineHandler) Pause(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if err := h.eng.Pause(caller); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// Unpause resumes normal operation.
// POST /api/unpause
func (h *EngineHandler) Unpause(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r.Context())
	if err := h.eng.Unpause(caller); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

type thresholdRequest struct {
	Value string `json:"value"`
}

// SetThreshold updates the minimum profit threshold.
// PUT /api/threshold
func (h *EngineHandler) SetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	caller := middleware.Caller(r.Context())
	if err := h.eng.SetMinimumProfitThreshold(caller, value); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"min_profit": value.String()})
}

type withdrawRequest struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// Withdraw sweeps accumulated profit to the owner. When amount and recipient
// are provided, performs a targeted emergency withdrawal instead.
// POST /api/withdraw
func (h *EngineHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := parseAddress(req.Asset)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	caller := middleware.Caller(r.Context())

	if req.Amount != "" || req.Recipient != "" {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		recipient, err := parseAddress(req.Recipient)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.eng.EmergencyWithdraw(caller, asset, amount, recipient); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"asset":     asset.Hex(),
			"amount":    amount.String(),
			"recipient": recipient.Hex(),
		})
		return
	}

	swept, err := h.eng.WithdrawToken(caller, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"asset":  asset.Hex(),
		"amount": swept.String(),
	})
}

// Status returns the engine's observable state.
// GET /api/status
func (h *EngineHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.CurrentStatus())
}
