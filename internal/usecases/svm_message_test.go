package usecases

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPoolRegistration_IsWritable(t *testing.T) {
	r := &tokenPoolRegistration{}
	r.writable[0][1] = 1 << 63 // index 0
	r.writable[0][0] = 1       // index 127
	r.writable[1][1] = 1 << 62 // index 129

	for i := 0; i < 256; i++ {
		want := i == 0 || i == 127 || i == 129
		assert.Equal(t, want, r.isWritable(i), i)
	}
	assert.False(t, r.isWritable(-1))
	assert.False(t, r.isWritable(256))
}

func registryAccountData(table solana.PublicKey, words [4]uint64) []byte {
	data := make([]byte, tokenAdminRegistryMinSize)
	copy(data[tokenAdminRegistryLookupTableOffset:], table[:])
	for i, w := range words {
		binary.LittleEndian.PutUint64(data[tokenAdminRegistryWritableOffset+8*i:], w)
	}
	return data
}

func lookupTableData(addrs ...solana.PublicKey) []byte {
	data := make([]byte, lookupTableMetaSize, lookupTableMetaSize+32*len(addrs))
	for _, a := range addrs {
		data = append(data, a[:]...)
	}
	return data
}

func TestParseTokenAdminRegistry(t *testing.T) {
	table := solana.NewWallet().PublicKey()
	got, bitmap, err := parseTokenAdminRegistry(registryAccountData(table, [4]uint64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, table, got)
	assert.Equal(t, [2][2]uint64{{1, 2}, {3, 4}}, bitmap)

	_, _, err = parseTokenAdminRegistry(make([]byte, tokenAdminRegistryMinSize-1))
	assert.Error(t, err)
}

func TestParseLookupTableAddresses(t *testing.T) {
	a, b, c := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	addrs, err := parseLookupTableAddresses(lookupTableData(a, b, c))
	require.NoError(t, err)
	assert.Equal(t, solana.PublicKeySlice{a, b, c}, addrs)

	reg := &tokenPoolRegistration{addresses: addrs}
	reg.writable[0][1] = 1 << 62 // index 1
	pool, err := reg.poolProgram()
	require.NoError(t, err)
	assert.Equal(t, c, pool)

	metas := reg.accountMetas()
	require.Len(t, metas, 3)
	assert.False(t, metas[0].IsWritable)
	assert.True(t, metas[1].IsWritable)
	assert.False(t, metas[2].IsSigner)

	_, err = parseLookupTableAddresses(make([]byte, lookupTableMetaSize+5))
	assert.Error(t, err)
	_, err = parseLookupTableAddresses(make([]byte, 10))
	assert.Error(t, err)

	_, err = (&tokenPoolRegistration{addresses: solana.PublicKeySlice{a}}).poolProgram()
	assert.Error(t, err)
}

func TestProgramReturnData(t *testing.T) {
	prog := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()
	first := base64.StdEncoding.EncodeToString([]byte("first"))
	last := base64.StdEncoding.EncodeToString([]byte("last"))

	logs := []string{
		"Program " + prog.String() + " invoke [1]",
		"Program return: " + prog.String() + " " + first,
		"Program return: " + other.String() + " " + base64.StdEncoding.EncodeToString([]byte("other")),
		"Program return: " + prog.String() + " " + last,
		"Program " + prog.String() + " success",
	}
	got, ok := programReturnData(logs, prog)
	require.True(t, ok)
	assert.Equal(t, []byte("last"), got)

	_, ok = programReturnData(logs[:1], prog)
	assert.False(t, ok)

	_, ok = programReturnData([]string{"Program return: " + prog.String() + " !!!"}, prog)
	assert.False(t, ok)
}

func TestParseGetFeeAmount(t *testing.T) {
	ret := make([]byte, 40)
	binary.LittleEndian.PutUint64(ret[32:], 123456789)
	fee, err := parseGetFeeAmount(ret)
	require.NoError(t, err)
	assert.Equal(t, uint64(123456789), fee)

	_, err = parseGetFeeAmount(ret[:39])
	assert.Error(t, err)
}

func TestEncodeInstructionData(t *testing.T) {
	data, err := encodeInstructionData(ccipSendDiscriminator, ccipSendArgs{
		DestChainSelector: 16015286601757825753,
		Message: svm2AnyMessage{
			Receiver:     make([]byte, 32),
			Data:         []byte{},
			TokenAmounts: []svmTokenAmount{{Token: wrappedSOLMint, Amount: 5}},
			FeeToken:     solana.PublicKey{},
			ExtraArgs:    []byte{0x18, 0x1d, 0xcf, 0x10},
		},
		TokenIndexes: []byte{0},
	})
	require.NoError(t, err)
	assert.Equal(t, ccipSendDiscriminator[:], data[:8])
	assert.Equal(t, uint64(16015286601757825753), binary.LittleEndian.Uint64(data[8:16]))
	// receiver: u32 length prefix then bytes
	assert.Equal(t, uint32(32), binary.LittleEndian.Uint32(data[16:20]))
	assert.Equal(t, []byte{1, 0, 0, 0, 0}, data[len(data)-5:])

	assert.NotEqual(t, ccipSendDiscriminator, getFeeDiscriminator)
}

func TestDeriveCCIPAccounts(t *testing.T) {
	router := solana.MustPublicKeyFromBase58("Ccip842gzYHhvdDkSyi2YVCoAWPbYJoApMFzSxQroE9C")
	fq := solana.MustPublicKeyFromBase58("FeeQPGkKDeRV1MgoYfMH6L8o3KeuYjwUZrgn4LRKfjHi")
	rmn := solana.MustPublicKeyFromBase58("RmnXLft1mSEwDgMKu2okYuHkiazxntFFcZFrrcXxYg7")

	a, err := deriveCCIPAccounts(router, fq, rmn, 1)
	require.NoError(t, err)
	b, err := deriveCCIPAccounts(router, fq, rmn, 2)
	require.NoError(t, err)

	assert.Equal(t, a.routerConfig, b.routerConfig)
	assert.Equal(t, a.feeBillingSigner, b.feeBillingSigner)
	assert.NotEqual(t, a.destChainState, b.destChainState)
	assert.NotEqual(t, a.fqDestChain, b.fqDestChain)
	assert.NotEqual(t, a.rmnCurses, a.rmnConfig)

	want, _, err := solana.FindProgramAddress([][]byte{[]byte("dest_chain_state"), selectorLE(1)}, router)
	require.NoError(t, err)
	assert.Equal(t, want, a.destChainState)

	owner := solana.NewWallet().PublicKey()
	n1, err := a.nonce(owner)
	require.NoError(t, err)
	n2, err := b.nonce(owner)
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)
}

func TestNewApproveInstruction(t *testing.T) {
	src, delegate, owner := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	ix := newApproveInstruction(solana.TokenProgramID, src, delegate, owner, 77)

	assert.Equal(t, solana.TokenProgramID, ix.ProgramID())
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(splTokenApproveInstruction), data[0])
	assert.Equal(t, uint64(77), binary.LittleEndian.Uint64(data[1:]))

	accts := ix.Accounts()
	require.Len(t, accts, 3)
	assert.True(t, accts[0].IsWritable)
	assert.True(t, accts[2].IsSigner)

	cu := newComputeUnitLimitInstruction(DefaultSVMTxComputeLimit)
	cuData, err := cu.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(computeBudgetSetUnitLimitType), cuData[0])
	assert.Equal(t, uint32(DefaultSVMTxComputeLimit), binary.LittleEndian.Uint32(cuData[1:]))
}
