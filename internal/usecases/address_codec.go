package usecases

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
)

var (
	addressArgs = abi.Arguments{{Type: mustNewType("address", nil)}}

	evmExtraArgsV2Args = abi.Arguments{
		{Type: mustNewType("uint256", nil)},
		{Type: mustNewType("bool", nil)},
	}

	svmExtraArgsV1Args = abi.Arguments{{Type: mustNewType("tuple", []abi.ArgumentMarshaling{
		{Name: "computeUnits", Type: "uint32"},
		{Name: "accountIsWritableBitmap", Type: "uint64"},
		{Name: "allowOutOfOrderExecution", Type: "bool"},
		{Name: "tokenReceiver", Type: "bytes32"},
		{Name: "accounts", Type: "bytes32[]"},
	})}}
)

func mustNewType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

// svmExtraArgsV1 mirrors the SVMExtraArgsV1 tuple; field names must match the
// camel-cased component names for abi packing.
type svmExtraArgsV1 struct {
	ComputeUnits             uint32
	AccountIsWritableBitmap  uint64
	AllowOutOfOrderExecution bool
	TokenReceiver            [32]byte
	Accounts                 [][32]byte
}

// ExtraArgsOptions tunes the destination-specific extra args. Zero values
// select the defaults.
type ExtraArgsOptions struct {
	// GasLimit on an EVM destination switches on EVMExtraArgsV2. On an SVM
	// destination it overrides the compute units.
	GasLimit uint64
	// Explicit emits EVMExtraArgsV2 even without a gas limit, for sources
	// whose fee quoter rejects empty extra args.
	Explicit                 bool
	AccountIsWritableBitmap  uint64
	AllowOutOfOrderExecution *bool
	TokenReceiver            [32]byte
	Accounts                 [][32]byte
}

func (o ExtraArgsOptions) allowOutOfOrder() bool {
	if o.AllowOutOfOrderExecution != nil {
		return *o.AllowOutOfOrderExecution
	}
	return DefaultAllowOutOfOrder
}

// AddressCodec turns destination receivers and options into the bytes the
// CCIP router expects.
type AddressCodec struct{}

func NewAddressCodec() *AddressCodec {
	return &AddressCodec{}
}

// EncodeReceiver returns the 32-byte receiver field for a destination family.
// EVM receivers are abi.encode(address); SVM public keys are right-aligned in
// a zeroed 32-byte buffer.
func (c *AddressCodec) EncodeReceiver(family entities.ChainFamily, receiver string) ([]byte, error) {
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return nil, domainerrors.Transferf(domainerrors.KindInvalidReceiver, "receiver is empty")
	}

	switch family {
	case entities.FamilyEVM:
		if !common.IsHexAddress(receiver) {
			return nil, domainerrors.Transferf(domainerrors.KindInvalidReceiver, "%q is not a valid EVM address", receiver)
		}
		out, err := addressArgs.Pack(common.HexToAddress(receiver))
		if err != nil {
			return nil, domainerrors.NewTransferError(domainerrors.KindInvalidReceiver, err)
		}
		return out, nil
	case entities.FamilySVM:
		pk, err := solana.PublicKeyFromBase58(receiver)
		if err != nil {
			return nil, domainerrors.Transferf(domainerrors.KindInvalidReceiver, "%q is not a valid Solana address: %v", receiver, err)
		}
		raw := pk.Bytes()
		out := make([]byte, EVMWordSize)
		copy(out[EVMWordSize-len(raw):], raw)
		return out, nil
	}
	return nil, domainerrors.Transferf(domainerrors.KindInvalidReceiver, "unsupported destination family %q", family)
}

// BuildExtraArgs encodes the extra args for a destination family.
func (c *AddressCodec) BuildExtraArgs(family entities.ChainFamily, opts ExtraArgsOptions) ([]byte, error) {
	switch family {
	case entities.FamilyEVM:
		if opts.GasLimit == 0 && !opts.Explicit {
			return []byte{}, nil
		}
		packed, err := evmExtraArgsV2Args.Pack(new(big.Int).SetUint64(opts.GasLimit), opts.allowOutOfOrder())
		if err != nil {
			return nil, fmt.Errorf("failed to encode EVM extra args: %w", err)
		}
		return append(EVMExtraArgsV2Tag[:], packed...), nil
	case entities.FamilySVM:
		units := uint64(DefaultSVMComputeUnits)
		if opts.GasLimit > 0 {
			units = opts.GasLimit
		}
		if units > math.MaxUint32 {
			return nil, errors.New("compute units exceed uint32")
		}
		accounts := opts.Accounts
		if accounts == nil {
			accounts = [][32]byte{}
		}
		packed, err := svmExtraArgsV1Args.Pack(svmExtraArgsV1{
			ComputeUnits:             uint32(units),
			AccountIsWritableBitmap:  opts.AccountIsWritableBitmap,
			AllowOutOfOrderExecution: opts.allowOutOfOrder(),
			TokenReceiver:            opts.TokenReceiver,
			Accounts:                 accounts,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode SVM extra args: %w", err)
		}
		return append(SVMExtraArgsV1Tag[:], packed...), nil
	}
	return nil, fmt.Errorf("unsupported destination family %q", family)
}
