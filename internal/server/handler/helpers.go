package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// decodeBody parses the request body as JSON into dst, rejecting unknown
// fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine error to an HTTP status by its kind and
// sends it as a JSON error response.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.Kind(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindAuthorization:
		status = http.StatusForbidden
	case domain.KindState:
		status = http.StatusConflict
	case domain.KindEconomic:
		status = http.StatusUnprocessableEntity
	case domain.KindExternalCall:
		status = http.StatusBadGateway
	}
	writeError(w, status, err.Error())
}

// parseAddress decodes a hex address field, rejecting malformed values.
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.New("invalid address: " + s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount decodes a base-10 integer amount in the asset's smallest unit.
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.New("invalid amount: " + s)
	}
	return v, nil
}

// queryLimit extracts a bounded limit parameter from the query string.
func queryLimit(r *http.Request, def, max int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
