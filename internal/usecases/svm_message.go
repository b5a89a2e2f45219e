package usecases

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	wrappedSOLMint        = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	computeBudgetProgram  = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	ccipSendDiscriminator = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "ccip_send")
	getFeeDiscriminator   = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "get_fee")
)

// On-chain layouts read by the SVM route.
const (
	tokenAdminRegistryLookupTableOffset = 73
	tokenAdminRegistryWritableOffset    = 105
	tokenAdminRegistryMinSize           = 137
	lookupTableMetaSize                 = 56
	// index of the pool program inside a token pool lookup table
	lookupTablePoolProgramIndex = 2
	// GetFeeResult: token pubkey, then amount as u64
	getFeeAmountOffset = 32

	splTokenApproveInstruction    = 4
	computeBudgetSetUnitLimitType = 2
)

// svmTokenAmount and svm2AnyMessage mirror the router's borsh types.
type svmTokenAmount struct {
	Token  solana.PublicKey
	Amount uint64
}

type svm2AnyMessage struct {
	Receiver     []byte
	Data         []byte
	TokenAmounts []svmTokenAmount
	FeeToken     solana.PublicKey
	ExtraArgs    []byte
}

type ccipSendArgs struct {
	DestChainSelector uint64
	Message           svm2AnyMessage
	TokenIndexes      []byte
}

type getFeeArgs struct {
	DestChainSelector uint64
	Message           svm2AnyMessage
}

func encodeInstructionData(disc bin.TypeID, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func selectorLE(selector uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, selector)
	return out
}

func findPDA(program solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive PDA: %w", err)
	}
	return addr, nil
}

// associatedTokenAddress derives the ATA of owner for mint under tokenProgram,
// which may be SPL Token or Token-2022.
func associatedTokenAddress(owner, tokenProgram, mint solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(solana.SPLAssociatedTokenAccountProgramID, owner[:], tokenProgram[:], mint[:])
}

// ccipProgramAccounts are the router, fee quoter and RMN accounts every
// ccip_send and get_fee needs for one destination.
type ccipProgramAccounts struct {
	router           solana.PublicKey
	feeQuoter        solana.PublicKey
	rmnRemote        solana.PublicKey
	routerConfig     solana.PublicKey
	destChainState   solana.PublicKey
	feeBillingSigner solana.PublicKey
	fqConfig         solana.PublicKey
	fqDestChain      solana.PublicKey
	rmnCurses        solana.PublicKey
	rmnConfig        solana.PublicKey
	selector         uint64
}

func deriveCCIPAccounts(router, feeQuoter, rmnRemote solana.PublicKey, selector uint64) (*ccipProgramAccounts, error) {
	sel := selectorLE(selector)
	a := &ccipProgramAccounts{router: router, feeQuoter: feeQuoter, rmnRemote: rmnRemote, selector: selector}
	var err error
	derive := func(dst *solana.PublicKey, program solana.PublicKey, seeds ...[]byte) {
		if err == nil {
			*dst, err = findPDA(program, seeds...)
		}
	}
	derive(&a.routerConfig, router, []byte("config"))
	derive(&a.destChainState, router, []byte("dest_chain_state"), sel)
	derive(&a.feeBillingSigner, router, []byte("fee_billing_signer"))
	derive(&a.fqConfig, feeQuoter, []byte("config"))
	derive(&a.fqDestChain, feeQuoter, []byte("dest_chain"), sel)
	derive(&a.rmnCurses, rmnRemote, []byte("curses"))
	derive(&a.rmnConfig, rmnRemote, []byte("config"))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ccipProgramAccounts) nonce(authority solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(a.router, []byte("nonce"), selectorLE(a.selector), authority[:])
}

func (a *ccipProgramAccounts) billingTokenConfig(mint solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(a.feeQuoter, []byte("fee_billing_token_config"), mint[:])
}

func (a *ccipProgramAccounts) perChainPerTokenConfig(mint solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(a.feeQuoter, []byte("per_chain_per_token_config"), selectorLE(a.selector), mint[:])
}

func (a *ccipProgramAccounts) tokenAdminRegistry(mint solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(a.router, []byte("token_admin_registry"), mint[:])
}

func poolChainConfig(poolProgram solana.PublicKey, selector uint64, mint solana.PublicKey) (solana.PublicKey, error) {
	return findPDA(poolProgram, []byte("ccip_tokenpool_chainconfig"), selectorLE(selector), mint[:])
}

// tokenPoolRegistration is the lookup-table half of a registered token pool.
type tokenPoolRegistration struct {
	lookupTable solana.PublicKey
	// writable bitmap, two little-endian u128 words
	writable  [2][2]uint64
	addresses solana.PublicKeySlice
}

func parseTokenAdminRegistry(data []byte) (solana.PublicKey, [2][2]uint64, error) {
	var bitmap [2][2]uint64
	if len(data) < tokenAdminRegistryMinSize {
		return solana.PublicKey{}, bitmap, fmt.Errorf("token admin registry too short: %d bytes", len(data))
	}
	table := solana.PublicKeyFromBytes(data[tokenAdminRegistryLookupTableOffset : tokenAdminRegistryLookupTableOffset+32])
	for w := 0; w < 2; w++ {
		off := tokenAdminRegistryWritableOffset + w*16
		bitmap[w][0] = binary.LittleEndian.Uint64(data[off : off+8])
		bitmap[w][1] = binary.LittleEndian.Uint64(data[off+8 : off+16])
	}
	return table, bitmap, nil
}

func parseLookupTableAddresses(data []byte) (solana.PublicKeySlice, error) {
	if len(data) < lookupTableMetaSize || (len(data)-lookupTableMetaSize)%32 != 0 {
		return nil, fmt.Errorf("malformed address lookup table: %d bytes", len(data))
	}
	n := (len(data) - lookupTableMetaSize) / 32
	out := make(solana.PublicKeySlice, 0, n)
	for i := 0; i < n; i++ {
		off := lookupTableMetaSize + i*32
		out = append(out, solana.PublicKeyFromBytes(data[off:off+32]))
	}
	return out, nil
}

// isWritable reads the registry bitmap; within each u128 the most
// significant bit is index 0.
func (r *tokenPoolRegistration) isWritable(index int) bool {
	if index < 0 || index >= 256 {
		return false
	}
	word := r.writable[index/128]
	pos := 127 - index%128
	if pos >= 64 {
		return word[1]&(1<<uint(pos-64)) != 0
	}
	return word[0]&(1<<uint(pos)) != 0
}

func (r *tokenPoolRegistration) poolProgram() (solana.PublicKey, error) {
	if len(r.addresses) <= lookupTablePoolProgramIndex {
		return solana.PublicKey{}, errors.New("token pool lookup table has no pool program")
	}
	return r.addresses[lookupTablePoolProgramIndex], nil
}

func (r *tokenPoolRegistration) accountMetas() solana.AccountMetaSlice {
	out := make(solana.AccountMetaSlice, 0, len(r.addresses))
	for i, addr := range r.addresses {
		out = append(out, solana.NewAccountMeta(addr, r.isWritable(i), false))
	}
	return out
}

func newApproveInstruction(tokenProgram, source, delegate, owner solana.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = splTokenApproveInstruction
	binary.LittleEndian.PutUint64(data[1:], amount)
	return solana.NewInstruction(tokenProgram, solana.AccountMetaSlice{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(delegate, false, false),
		solana.NewAccountMeta(owner, false, true),
	}, data)
}

func newComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeBudgetSetUnitLimitType
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(computeBudgetProgram, solana.AccountMetaSlice{}, data)
}

// programReturnData finds the last "Program return: <program> <base64>" log
// line emitted by program.
func programReturnData(logs []string, program solana.PublicKey) ([]byte, bool) {
	prefix := "Program return: " + program.String() + " "
	for i := len(logs) - 1; i >= 0; i-- {
		if !strings.HasPrefix(logs[i], prefix) {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(logs[i], prefix)))
		if err != nil {
			return nil, false
		}
		return raw, true
	}
	return nil, false
}

func parseGetFeeAmount(ret []byte) (uint64, error) {
	if len(ret) < getFeeAmountOffset+8 {
		return 0, fmt.Errorf("get_fee returned %d bytes", len(ret))
	}
	return binary.LittleEndian.Uint64(ret[getFeeAmountOffset : getFeeAmountOffset+8]), nil
}
