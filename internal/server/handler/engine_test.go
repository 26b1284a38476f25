package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/engine"
	"github.com/doubletap-dave/flashloan-engine/internal/server/middleware"
)

var (
	ownerAddr = common.HexToAddress("0x0000000000000000000000000000000000000001")
	wethAddr  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	daiAddr   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEngine records calls and returns scripted errors.
type stubEngine struct {
	err        error
	lastCaller common.Address
	lastAmount *big.Int
	paused     bool
}

func (s *stubEngine) FlashloanSimple(_ context.Context, caller common.Address, _ domain.Asset, amount *big.Int) error {
	s.lastCaller, s.lastAmount = caller, amount
	return s.err
}

func (s *stubEngine) FlashloanMultiple(_ context.Context, caller common.Address, _ []domain.Asset, _ []*big.Int) error {
	s.lastCaller = caller
	return s.err
}

func (s *stubEngine) ExecuteArbitrage(_ context.Context, caller common.Address, _, _ domain.Asset, amount *big.Int, _ ...*big.Int) error {
	s.lastCaller, s.lastAmount = caller, amount
	return s.err
}

func (s *stubEngine) Pause(caller common.Address) error {
	s.lastCaller = caller
	s.paused = true
	return s.err
}

func (s *stubEngine) Unpause(caller common.Address) error {
	s.lastCaller = caller
	s.paused = false
	return s.err
}

func (s *stubEngine) SetMinimumProfitThreshold(caller common.Address, value *big.Int) error {
	s.lastCaller, s.lastAmount = caller, value
	return s.err
}

func (s *stubEngine) WithdrawToken(caller common.Address, _ domain.Asset) (*big.Int, error) {
	s.lastCaller = caller
	return big.NewInt(1000), s.err
}

func (s *stubEngine) EmergencyWithdraw(caller common.Address, _ domain.Asset, amount *big.Int, _ common.Address) error {
	s.lastCaller, s.lastAmount = caller, amount
	return s.err
}

func (s *stubEngine) CurrentStatus() engine.Status {
	return engine.Status{Owner: ownerAddr, Paused: s.paused, MinProfit: "0"}
}

func doRequest(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithCaller(req.Context(), ownerAddr))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestArbitrageHappyPath(t *testing.T) {
	stub := &stubEngine{}
	h := NewEngineHandler(stub, testLogger())

	body := `{"asset_a":"` + wethAddr.Hex() + `","asset_b":"` + daiAddr.Hex() + `","amount":"20000000000000000000"}`
	rec := doRequest(h.Arbitrage, http.MethodPost, "/api/arbitrage", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ownerAddr, stub.lastCaller)
	assert.Equal(t, "20000000000000000000", stub.lastAmount.String())
}

func TestArbitrageBadAddress(t *testing.T) {
	h := NewEngineHandler(&stubEngine{}, testLogger())

	body := `{"asset_a":"nope","asset_b":"` + daiAddr.Hex() + `","amount":"1"}`
	rec := doRequest(h.Arbitrage, http.MethodPost, "/api/arbitrage", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArbitrageErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrUnauthorizedAccount, http.StatusForbidden},
		{domain.ErrPaused, http.StatusConflict},
		{domain.ErrReentrantCall, http.StatusConflict},
		{domain.ErrInsufficientProfit, http.StatusUnprocessableEntity},
		{domain.ErrExecutionFailed, http.StatusBadGateway},
	}
	body := `{"asset_a":"` + wethAddr.Hex() + `","asset_b":"` + daiAddr.Hex() + `","amount":"1"}`
	for _, tc := range cases {
		h := NewEngineHandler(&stubEngine{err: tc.err}, testLogger())
		rec := doRequest(h.Arbitrage, http.MethodPost, "/api/arbitrage", body)
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestFlashloanSingleAndMultiple(t *testing.T) {
	stub := &stubEngine{}
	h := NewEngineHandler(stub, testLogger())

	single := `{"assets":["` + wethAddr.Hex() + `"],"amounts":["100"]}`
	rec := doRequest(h.Flashloan, http.MethodPost, "/api/flashloan", single)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", stub.lastAmount.String())

	multi := `{"assets":["` + wethAddr.Hex() + `","` + daiAddr.Hex() + `"],"amounts":["100","200"]}`
	rec = doRequest(h.Flashloan, http.MethodPost, "/api/flashloan", multi)
	require.Equal(t, http.StatusOK, rec.Code)

	mismatch := `{"assets":["` + wethAddr.Hex() + `"],"amounts":[]}`
	rec = doRequest(h.Flashloan, http.MethodPost, "/api/flashloan", mismatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPauseAndStatus(t *testing.T) {
	stub := &stubEngine{}
	h := NewEngineHandler(stub, testLogger())

	rec := doRequest(h.Pause, http.MethodPost, "/api/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h.Status, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st engine.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Paused)
	assert.Equal(t, ownerAddr, st.Owner)
}

func TestSetThreshold(t *testing.T) {
	stub := &stubEngine{}
	h := NewEngineHandler(stub, testLogger())

	rec := doRequest(h.SetThreshold, http.MethodPut, "/api/threshold", `{"value":"100000000000000000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100000000000000000", stub.lastAmount.String())

	rec = doRequest(h.SetThreshold, http.MethodPut, "/api/threshold", `{"value":"ten"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawSweepAndEmergency(t *testing.T) {
	stub := &stubEngine{}
	h := NewEngineHandler(stub, testLogger())

	sweep := `{"asset":"` + wethAddr.Hex() + `"}`
	rec := doRequest(h.Withdraw, http.MethodPost, "/api/withdraw", sweep)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1000", resp["amount"])

	emergency := `{"asset":"` + wethAddr.Hex() + `","amount":"50","recipient":"` + ownerAddr.Hex() + `"}`
	rec = doRequest(h.Withdraw, http.MethodPost, "/api/withdraw", emergency)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50", stub.lastAmount.String())
}
