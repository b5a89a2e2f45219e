package usecases

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// computeSelectorHex computes the 4-byte EVM function selector from a canonical
// function signature and returns it as a "0x"-prefixed hex string.
func computeSelectorHex(sig string) string {
	return "0x" + hex.EncodeToString(crypto.Keccak256([]byte(sig))[:4])
}

// CCIP extra-args tags: bytes4(keccak256("CCIP EVMExtraArgsV2")) and
// bytes4(keccak256("CCIP SVMExtraArgsV1")).
var (
	EVMExtraArgsV2Tag = [4]byte{0x18, 0x1d, 0xcf, 0x10}
	SVMExtraArgsV1Tag = [4]byte{0x1f, 0x3b, 0x3a, 0xba}
)

// SVM extra-args defaults.
const (
	DefaultSVMComputeUnits   = 200000
	DefaultAllowOutOfOrder   = true
	DefaultSVMTxComputeLimit = 400000
)

// Event topics carrying the CCIP message id on EVM sources.
var (
	// OnRamp v1.6
	CCIPMessageSentTopic = crypto.Keccak256Hash([]byte(
		"CCIPMessageSent(uint64,uint64,((bytes32,uint64,uint64,uint64,uint64),address,bytes,bytes,bytes,address,uint256,uint256,(address,bytes,bytes,uint256,bytes)[]))",
	))
	// EVM2EVMOnRamp v1.5
	CCIPSendRequestedTopic = crypto.Keccak256Hash([]byte(
		"CCIPSendRequested((uint64,address,address,uint64,uint256,bool,uint64,address,uint256,bytes,(address,uint256)[],bytes[],bytes32))",
	))
)

// Byte offsets of messageId inside the event data.
const (
	messageSentIDOffset   = 32
	sendRequestedIDOffset = 416
)

const (
	EVMWordSize            = 32
	approvalConfirmations  = 1
	transferStatusRejected = "rejected"
	finalizeAttempts       = 2
)
