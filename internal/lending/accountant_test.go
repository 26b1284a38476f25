package lending

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
	"github.com/doubletap-dave/flashloan-engine/internal/ledger"
)

var (
	payer    = common.HexToAddress("0x0000000000000000000000000000000000000e01")
	facility = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	weth     = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestComputeObligationRoundsUp(t *testing.T) {
	cases := []struct {
		principal int64
		bps       uint32
		wantFee   int64
	}{
		{10000, 9, 9},
		{10001, 9, 10},   // 9.0009 rounds up
		{1, 9, 1},        // 0.0009 rounds up
		{10000, 0, 0},    // zero-fee facility
		{20000, 9, 18},   // exact
		{1111, 100, 12},  // 11.11 rounds up
	}
	for _, tc := range cases {
		ob := ComputeObligation(weth, big.NewInt(tc.principal), tc.bps)
		// Compare by value: a division-produced zero and big.NewInt(0) differ
		// in internal representation.
		assert.Zero(t, ob.Fee.Cmp(big.NewInt(tc.wantFee)), "principal=%d bps=%d", tc.principal, tc.bps)
		assert.Zero(t, ob.Total.Cmp(big.NewInt(tc.principal+tc.wantFee)), "principal=%d bps=%d", tc.principal, tc.bps)
	}
}

func TestSettleTransfersExactlyTotal(t *testing.T) {
	book := ledger.New()
	book.Mint(payer, weth, big.NewInt(10_050))

	a := NewAccountant(book, testLogger())
	ob := ComputeObligation(weth, big.NewInt(10_000), 9)

	require.NoError(t, a.Settle(payer, facility, ob))

	assert.Equal(t, ob.Total, book.Balance(facility, weth))
	// Surplus stays with the payer.
	assert.Equal(t, big.NewInt(10_050-10_009), book.Balance(payer, weth))
}

func TestSettleShortfall(t *testing.T) {
	book := ledger.New()
	book.Mint(payer, weth, big.NewInt(10_008))

	a := NewAccountant(book, testLogger())
	ob := ComputeObligation(weth, big.NewInt(10_000), 9)

	err := a.Settle(payer, facility, ob)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Zero(t, book.Balance(facility, weth).Sign())
}
