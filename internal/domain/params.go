package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The loan Params blob is ABI-encoded as (address[] tokens, address[] venues,
// uint256[] minOuts): tokens is the full asset chain (len n+1), venues and
// minOuts carry one entry per hop. This matches the facility-agnostic layout
// the deployment tooling produces.
var pathArguments abi.Arguments

func init() {
	addrSlice, err := abi.NewType("address[]", "", nil)
	if err != nil {
		panic(err)
	}
	uintSlice, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	pathArguments = abi.Arguments{
		{Name: "tokens", Type: addrSlice},
		{Name: "venues", Type: addrSlice},
		{Name: "minOuts", Type: uintSlice},
	}
}

// EncodeSwapPath packs a swap path and its per-hop minimum outputs into the
// opaque Params blob carried by a LoanRequest. A nil minOuts encodes zeros.
func EncodeSwapPath(path SwapPath, minOuts []*big.Int) ([]byte, error) {
	if len(path) == 0 {
		return nil, ErrBrokenPath
	}
	tokens := make([]common.Address, 0, len(path)+1)
	venues := make([]common.Address, 0, len(path))
	tokens = append(tokens, path[0].AssetIn)
	for _, h := range path {
		tokens = append(tokens, h.AssetOut)
		venues = append(venues, h.Venue)
	}
	outs := make([]*big.Int, len(path))
	for i := range outs {
		if minOuts != nil && i < len(minOuts) && minOuts[i] != nil {
			outs[i] = minOuts[i]
		} else {
			outs[i] = new(big.Int)
		}
	}
	data, err := pathArguments.Pack(tokens, venues, outs)
	if err != nil {
		return nil, fmt.Errorf("encode swap path: %w", err)
	}
	return data, nil
}

// DecodeSwapPath unpacks a Params blob produced by EncodeSwapPath. An empty
// blob decodes to an empty path: a plain flash loan with no swaps.
func DecodeSwapPath(data []byte) (SwapPath, []*big.Int, error) {
	if len(data) == 0 {
		return nil, nil, nil
	}
	vals, err := pathArguments.Unpack(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode swap path: %w", err)
	}
	tokens, ok1 := vals[0].([]common.Address)
	venues, ok2 := vals[1].([]common.Address)
	minOuts, ok3 := vals[2].([]*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return nil, nil, fmt.Errorf("decode swap path: unexpected layout")
	}
	if len(tokens) != len(venues)+1 || len(minOuts) != len(venues) {
		return nil, nil, ErrBrokenPath
	}
	path := make(SwapPath, len(venues))
	for i := range venues {
		path[i] = Hop{Venue: venues[i], AssetIn: tokens[i], AssetOut: tokens[i+1]}
	}
	return path, minOuts, nil
}
