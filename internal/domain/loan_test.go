package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	venue1 = common.HexToAddress("0x0000000000000000000000000000000000000101")
	venue2 = common.HexToAddress("0x0000000000000000000000000000000000000102")
)

func TestLoanRequestValidate(t *testing.T) {
	cap := big.NewInt(1000)

	cases := []struct {
		name    string
		assets  []AssetAmount
		wantErr error
	}{
		{
			name:    "empty",
			assets:  nil,
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero address",
			assets:  []AssetAmount{{Asset: common.Address{}, Amount: big.NewInt(1)}},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "zero amount",
			assets:  []AssetAmount{{Asset: tokenA, Amount: big.NewInt(0)}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "nil amount",
			assets:  []AssetAmount{{Asset: tokenA}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "over cap",
			assets:  []AssetAmount{{Asset: tokenA, Amount: big.NewInt(1001)}},
			wantErr: ErrAmountTooLarge,
		},
		{
			name:   "at cap",
			assets: []AssetAmount{{Asset: tokenA, Amount: big.NewInt(1000)}},
		},
		{
			name: "second asset bad",
			assets: []AssetAmount{
				{Asset: tokenA, Amount: big.NewInt(1)},
				{Asset: tokenB, Amount: big.NewInt(-5)},
			},
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := LoanRequest{Assets: tc.assets}.Validate(cap)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSwapPathValidate(t *testing.T) {
	roundTrip := SwapPath{
		{Venue: venue1, AssetIn: tokenA, AssetOut: tokenB},
		{Venue: venue2, AssetIn: tokenB, AssetOut: tokenA},
	}
	require.NoError(t, roundTrip.Validate(true))
	require.Equal(t, tokenA, roundTrip.Home())

	oneWay := SwapPath{
		{Venue: venue1, AssetIn: tokenA, AssetOut: tokenB},
		{Venue: venue2, AssetIn: tokenB, AssetOut: tokenC},
	}
	require.NoError(t, oneWay.Validate(false))
	require.ErrorIs(t, oneWay.Validate(true), ErrBrokenPath)

	broken := SwapPath{
		{Venue: venue1, AssetIn: tokenA, AssetOut: tokenB},
		{Venue: venue2, AssetIn: tokenC, AssetOut: tokenA},
	}
	require.ErrorIs(t, broken.Validate(false), ErrBrokenPath)

	selfHop := SwapPath{{Venue: venue1, AssetIn: tokenA, AssetOut: tokenA}}
	require.ErrorIs(t, selfHop.Validate(false), ErrBrokenPath)

	require.ErrorIs(t, SwapPath{}.Validate(false), ErrBrokenPath)
}

func TestEncodeDecodeSwapPath(t *testing.T) {
	path := SwapPath{
		{Venue: venue1, AssetIn: tokenA, AssetOut: tokenB},
		{Venue: venue2, AssetIn: tokenB, AssetOut: tokenA},
	}
	minOuts := []*big.Int{big.NewInt(100), nil}

	data, err := EncodeSwapPath(path, minOuts)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, gotOuts, err := DecodeSwapPath(data)
	require.NoError(t, err)
	require.Equal(t, path, got)
	require.Len(t, gotOuts, 2)
	require.Equal(t, big.NewInt(100), gotOuts[0])
	require.Equal(t, int64(0), gotOuts[1].Int64())
}

func TestDecodeSwapPathEmptyBlob(t *testing.T) {
	path, minOuts, err := DecodeSwapPath(nil)
	require.NoError(t, err)
	require.Nil(t, path)
	require.Nil(t, minOuts)
}

func TestEncodeSwapPathEmpty(t *testing.T) {
	_, err := EncodeSwapPath(nil, nil)
	require.ErrorIs(t, err, ErrBrokenPath)
}

func TestDecodeSwapPathGarbage(t *testing.T) {
	_, _, err := DecodeSwapPath([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestKindClassification(t *testing.T) {
	cases := map[error]ErrorKind{
		ErrInvalidToken:          KindValidation,
		ErrInvalidAmount:         KindValidation,
		ErrAmountTooLarge:        KindValidation,
		ErrUnauthorizedAccount:   KindAuthorization,
		ErrPaused:                KindState,
		ErrReentrantCall:         KindState,
		ErrInsufficientProfit:    KindEconomic,
		ErrInsufficientFunds:     KindEconomic,
		ErrInsufficientLiquidity: KindEconomic,
		ErrExecutionFailed:       KindExternalCall,
	}
	for err, want := range cases {
		require.Equal(t, want, Kind(err), err.Error())
	}
}
