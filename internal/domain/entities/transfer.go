package entities

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	TransferStatusProcessing TransferStatus = "processing"
	TransferStatusCompleted  TransferStatus = "completed"
	TransferStatusFailed     TransferStatus = "failed"
)

// IsTerminal reports whether no further status change is allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusFailed
}

// Fee token selections understood besides an explicit token address.
const (
	FeeTokenNative        = "native"
	FeeTokenWrappedNative = "wrapped-native"
	FeeTokenProtocol      = "protocol-token"
)

// NormalizeFeeTokenSelection folds the accepted aliases onto the canonical selections.
func NormalizeFeeTokenSelection(sel string) string {
	s := strings.TrimSpace(sel)
	switch strings.ToLower(s) {
	case "":
		return ""
	case FeeTokenNative, "eth", "sol":
		return FeeTokenNative
	case FeeTokenWrappedNative, "wrapped", "wrappednative", "wrapped_native", "weth", "wsol":
		return FeeTokenWrappedNative
	case FeeTokenProtocol, "link", "protocol", "protocol_token":
		return FeeTokenProtocol
	}
	return s
}

const UnknownSender = "unknown"

// TransferRequest is a caller's ask to move tokens between two chains.
type TransferRequest struct {
	SourceChain      string `json:"sourceChain"`
	DestinationChain string `json:"destinationChain"`
	Receiver         string `json:"receiver"`
	Amount           string `json:"amount"`
	Asset            string `json:"asset"`
	FeeToken         string `json:"feeToken,omitempty"`
	// GasLimit, when set, asks for EVMExtraArgsV2 on an EVM destination.
	GasLimit uint64 `json:"gasLimit,omitempty"`
}

// TransferRecord is the persisted history of one transfer attempt.
type TransferRecord struct {
	ID                   string         `json:"id"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	Status               TransferStatus `json:"status"`
	SourceChain          string         `json:"sourceChain"`
	SourceChainName      string         `json:"sourceChainName"`
	DestinationChain     string         `json:"destinationChain"`
	DestinationChainName string         `json:"destinationChainName"`
	Amount               string         `json:"amount"`
	Asset                string         `json:"asset"`
	Sender               string         `json:"sender"`
	Receiver             string         `json:"receiver"`
	FeeToken             string         `json:"feeToken"`
	Fee                  null.String    `json:"fee"`
	TxHash               null.String    `json:"txHash"`
	MessageID            null.String    `json:"messageId"`
	Error                null.String    `json:"error"`
	ExplorerURL          null.String    `json:"explorerUrl"`
}

// TransferUpdate carries the fields to merge into a record. Nil fields are left alone.
type TransferUpdate struct {
	Sender      *string
	FeeToken    *string
	Fee         *string
	TxHash      *string
	MessageID   *string
	Error       *string
	ExplorerURL *string
}

// Apply merges u into r.
func (u TransferUpdate) Apply(r *TransferRecord) {
	if u.Sender != nil {
		r.Sender = *u.Sender
	}
	if u.FeeToken != nil {
		r.FeeToken = *u.FeeToken
	}
	setNull(&r.Fee, u.Fee)
	setNull(&r.TxHash, u.TxHash)
	setNull(&r.MessageID, u.MessageID)
	setNull(&r.Error, u.Error)
	setNull(&r.ExplorerURL, u.ExplorerURL)
}

func setNull(dst *null.String, v *string) {
	if v != nil {
		*dst = null.StringFrom(*v)
	}
}
