package usecases

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	CCIPRouterABI = mustParseABI(`[
		{"inputs":[{"internalType":"uint64","name":"destinationChainSelector","type":"uint64"},{"components":[{"internalType":"bytes","name":"receiver","type":"bytes"},{"internalType":"bytes","name":"data","type":"bytes"},{"components":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"internalType":"struct Client.EVMTokenAmount[]","name":"tokenAmounts","type":"tuple[]"},{"internalType":"address","name":"feeToken","type":"address"},{"internalType":"bytes","name":"extraArgs","type":"bytes"}],"internalType":"struct Client.EVM2AnyMessage","name":"message","type":"tuple"}],"name":"getFee","outputs":[{"internalType":"uint256","name":"fee","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"internalType":"uint64","name":"destinationChainSelector","type":"uint64"},{"components":[{"internalType":"bytes","name":"receiver","type":"bytes"},{"internalType":"bytes","name":"data","type":"bytes"},{"components":[{"internalType":"address","name":"token","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"internalType":"struct Client.EVMTokenAmount[]","name":"tokenAmounts","type":"tuple[]"},{"internalType":"address","name":"feeToken","type":"address"},{"internalType":"bytes","name":"extraArgs","type":"bytes"}],"internalType":"struct Client.EVM2AnyMessage","name":"message","type":"tuple"}],"name":"ccipSend","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"payable","type":"function"},
		{"inputs":[{"internalType":"uint64","name":"chainSelector","type":"uint64"}],"name":"isChainSupported","outputs":[{"internalType":"bool","name":"supported","type":"bool"}],"stateMutability":"view","type":"function"}
	]`)
	ERC20ABI = mustParseABI(`[
		{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
		{"inputs":[{"internalType":"address","name":"spender","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"approve","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
		{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
	]`)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// evmTokenAmount and evm2AnyMessage mirror Client.EVMTokenAmount and
// Client.EVM2AnyMessage for abi packing.
type evmTokenAmount struct {
	Token  common.Address
	Amount *big.Int
}

type evm2AnyMessage struct {
	Receiver     []byte
	Data         []byte
	TokenAmounts []evmTokenAmount
	FeeToken     common.Address
	ExtraArgs    []byte
}

func unpackSingle[T any](parsed abi.ABI, method string, out []byte) (T, error) {
	var zero T
	vals, err := parsed.Unpack(method, out)
	if err != nil {
		return zero, fmt.Errorf("failed to decode %s: %w", method, err)
	}
	if len(vals) != 1 {
		return zero, fmt.Errorf("failed to decode %s", method)
	}
	value, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("invalid %s return type", method)
	}
	return value, nil
}

// extractEVMMessageID finds the CCIP message id in a send receipt. Both the
// v1.6 OnRamp event and the v1.5 EVM2EVMOnRamp event are understood.
func extractEVMMessageID(receipt *types.Receipt) (string, bool) {
	if receipt == nil {
		return "", false
	}
	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 {
			continue
		}
		var offset int
		switch lg.Topics[0] {
		case CCIPMessageSentTopic:
			offset = messageSentIDOffset
		case CCIPSendRequestedTopic:
			offset = sendRequestedIDOffset
		default:
			continue
		}
		if len(lg.Data) < offset+EVMWordSize {
			continue
		}
		id := common.BytesToHash(lg.Data[offset : offset+EVMWordSize])
		if id == (common.Hash{}) {
			continue
		}
		return id.Hex(), true
	}
	return "", false
}
