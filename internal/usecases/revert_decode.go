package usecases

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RevertReason is a decoded EVM revert payload.
type RevertReason struct {
	Selector string
	Name     string
	Message  string
}

var revertHexPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8,}`)

// knownCCIPErrors are custom errors raised by the router, onramps and fee
// quoters, keyed by selector.
var knownCCIPErrors = func() map[string]string {
	sigs := []string{
		"UnsupportedDestinationChain(uint64)",
		"DestinationChainNotEnabled(uint64)",
		"InsufficientFeeTokenAmount()",
		"InvalidMsgValue()",
		"InvalidExtraArgsTag()",
		"InvalidEVMAddress(bytes)",
		"InvalidSVMAddress(bytes)",
		"MessageGasLimitTooHigh()",
		"MessageTooLarge(uint256,uint256)",
		"UnsupportedToken(address)",
		"FeeTokenNotSupported(address)",
		"SenderNotAllowed(address)",
		"CursedByRMN(bytes16)",
		"TokenMaxCapacityExceeded(uint256,uint256,address)",
		"TokenRateLimitReached(uint256,uint256,address)",
		"ExtraArgOutOfOrderExecutionMustBeTrue()",
		"StaleGasPrice(uint64,uint256,uint256)",
	}
	out := make(map[string]string, len(sigs))
	for _, sig := range sigs {
		out[computeSelectorHex(sig)] = sig[:strings.Index(sig, "(")]
	}
	return out
}()

// decodeRevertDataFromError attempts to parse hex-encoded revert bytes from RPC errors.
// It supports rpc.DataError payloads and fallback extraction from error strings.
func decodeRevertDataFromError(err error) (RevertReason, bool) {
	if err == nil {
		return RevertReason{}, false
	}

	var dataErr interface{ ErrorData() interface{} }
	if errors.As(err, &dataErr) {
		if data, ok := parseRevertBytesFromAny(dataErr.ErrorData()); ok {
			return decodeRevertData(data), true
		}
	}

	for _, candidate := range revertHexPattern.FindAllString(err.Error(), -1) {
		if data, ok := parseHexBytes(candidate); ok {
			return decodeRevertData(data), true
		}
	}
	return RevertReason{}, false
}

func parseRevertBytesFromAny(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return parseHexBytes(v)
	case []byte:
		if len(v) == 0 {
			return nil, false
		}
		out := make([]byte, len(v))
		copy(out, v)
		return out, true
	case map[string]interface{}:
		if raw, ok := v["data"]; ok {
			return parseRevertBytesFromAny(raw)
		}
	}
	return nil, false
}

func parseHexBytes(raw string) ([]byte, bool) {
	value := strings.TrimSpace(strings.TrimPrefix(raw, "0x"))
	if len(value) < 8 || len(value)%2 != 0 {
		return nil, false
	}
	data, err := hex.DecodeString(value)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func decodeRevertData(data []byte) RevertReason {
	if len(data) < 4 {
		return RevertReason{Message: "execution reverted"}
	}
	selector := "0x" + hex.EncodeToString(data[:4])
	result := RevertReason{Selector: selector}

	switch selector {
	case "0x08c379a0": // Error(string)
		if values, err := (abi.Arguments{{Type: mustNewType("string", nil)}}).Unpack(data[4:]); err == nil && len(values) == 1 {
			if msg, ok := values[0].(string); ok {
				result.Name = "Error"
				result.Message = msg
				return result
			}
		}
	case "0x4e487b71": // Panic(uint256)
		if len(data) >= 36 {
			result.Name = "Panic"
			result.Message = fmt.Sprintf("panic code: %s", new(big.Int).SetBytes(data[4:36]))
			return result
		}
	}

	if name, ok := knownCCIPErrors[selector]; ok {
		result.Name = name
		result.Message = name
		if len(data) >= 36 && (name == "UnsupportedDestinationChain" || name == "DestinationChainNotEnabled") {
			result.Message = fmt.Sprintf("%s(%s)", name, new(big.Int).SetBytes(data[4:36]))
		}
		if len(data) >= 36 && (name == "UnsupportedToken" || name == "FeeTokenNotSupported") {
			result.Message = fmt.Sprintf("%s(%s)", name, common.BytesToAddress(data[4:36]).Hex())
		}
		return result
	}

	result.Message = "execution reverted with " + selector
	return result
}

// describeRPCError appends the decoded revert reason to err's message when
// one can be found.
func describeRPCError(err error) string {
	if decoded, ok := decodeRevertDataFromError(err); ok && decoded.Message != "" {
		if strings.Contains(err.Error(), decoded.Message) {
			return err.Error()
		}
		return fmt.Sprintf("%v (%s)", err, decoded.Message)
	}
	return err.Error()
}
