package usecases

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"ccip-relay.backend/internal/domain/entities"
)

// FeeTokenResolver maps a fee-token selection onto a concrete token reference
// of the source chain. Resolution never fails: anything it cannot make sense
// of falls back to the chain's protocol token.
type FeeTokenResolver struct{}

func NewFeeTokenResolver() *FeeTokenResolver {
	return &FeeTokenResolver{}
}

// Resolve returns the token reference fees are paid in.
func (r *FeeTokenResolver) Resolve(chain *entities.ChainDescriptor, selection string) string {
	switch sel := entities.NormalizeFeeTokenSelection(selection); sel {
	case "":
		return r.defaultRef(chain)
	case entities.FeeTokenNative:
		return chain.Family.NativeSentinel()
	case entities.FeeTokenWrappedNative:
		if chain.WrappedNative != "" {
			return chain.WrappedNative
		}
		return r.defaultRef(chain)
	case entities.FeeTokenProtocol:
		return r.defaultRef(chain)
	default:
		if tok, ok := chain.TokenBySymbol(sel); ok {
			return tok.Address
		}
		if IsTokenRef(chain.Family, sel) {
			return sel
		}
		return r.defaultRef(chain)
	}
}

// IsNative reports whether ref means paying in the native currency.
func (r *FeeTokenResolver) IsNative(chain *entities.ChainDescriptor, ref string) bool {
	switch chain.Family {
	case entities.FamilyEVM:
		return common.IsHexAddress(ref) && common.HexToAddress(ref) == (common.Address{})
	case entities.FamilySVM:
		return ref == entities.SolanaNativeSentinel
	}
	return false
}

// defaultRef is the protocol token, or native when the chain has none configured.
func (r *FeeTokenResolver) defaultRef(chain *entities.ChainDescriptor) string {
	if chain.ProtocolToken != "" {
		return chain.ProtocolToken
	}
	return chain.Family.NativeSentinel()
}

// IsTokenRef reports whether s is syntactically a token address for family.
func IsTokenRef(family entities.ChainFamily, s string) bool {
	s = strings.TrimSpace(s)
	switch family {
	case entities.FamilyEVM:
		return common.IsHexAddress(s)
	case entities.FamilySVM:
		_, err := solana.PublicKeyFromBase58(s)
		return err == nil
	}
	return false
}
