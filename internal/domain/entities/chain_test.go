package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEVM() *ChainDescriptor {
	return &ChainDescriptor{
		ID:         "ethereum-sepolia",
		Family:     FamilyEVM,
		EVMChainID: 11155111,
		Router:     "0x0BF3dE8c5D3e8A2B34D2BEeB17ABfCeBaf363A59",
		Tokens: map[string]TokenInfo{
			"LINK":     {Symbol: "LINK", Address: "0x779877A7B0D9E8603169DdbD7836e478b4624789", Decimals: 18},
			"CCIP-BNM": {Symbol: "CCIP-BnM", Address: "0xFd57b4ddBf88a4e07fF4e34C487b99af2Fe82a05", Decimals: 18},
		},
		ExplorerTxURL: "https://sepolia.etherscan.io/tx/",
	}
}

func TestParseChainFamily(t *testing.T) {
	f, err := ParseChainFamily(" EVM ")
	require.NoError(t, err)
	assert.Equal(t, FamilyEVM, f)

	f, err = ParseChainFamily("svm")
	require.NoError(t, err)
	assert.Equal(t, FamilySVM, f)

	_, err = ParseChainFamily("substrate")
	assert.Error(t, err)
}

func TestChainDescriptor_GetCAIP2ID(t *testing.T) {
	assert.Equal(t, "eip155:11155111", sampleEVM().GetCAIP2ID())

	svm := &ChainDescriptor{ID: "solana-devnet", Family: FamilySVM, Cluster: "devnet"}
	assert.Equal(t, "solana:devnet", svm.GetCAIP2ID())

	assert.Equal(t, "odd", (&ChainDescriptor{ID: "odd"}).GetCAIP2ID())
}

func TestChainDescriptor_Tokens(t *testing.T) {
	c := sampleEVM()

	tok, ok := c.TokenBySymbol("ccip-bnm")
	require.True(t, ok)
	assert.Equal(t, uint8(18), tok.Decimals)

	tok, ok = c.TokenByAddress("0x779877a7b0d9e8603169ddbd7836e478b4624789")
	require.True(t, ok)
	assert.Equal(t, "LINK", tok.Symbol)

	_, ok = c.TokenBySymbol("USDC")
	assert.False(t, ok)

	assert.Equal(t, []string{"CCIP-BNM", "LINK"}, c.TokenSymbols())
}

func TestChainDescriptor_TokenBySymbolAliases(t *testing.T) {
	c := sampleEVM()
	bnm, ok := c.TokenBySymbol("CCIP-BnM")
	require.True(t, ok)

	for _, sym := range []string{"BnM", "bnm", " BNM "} {
		tok, ok := c.TokenBySymbol(sym)
		require.True(t, ok, sym)
		assert.Equal(t, bnm, tok)
	}

	// no CCIP-LnM on this chain
	_, ok = c.TokenBySymbol("LnM")
	assert.False(t, ok)

	c.Tokens["BNM"] = TokenInfo{Symbol: "BNM", Address: "0x0000000000000000000000000000000000000b0b", Decimals: 6}
	tok, ok := c.TokenBySymbol("bnm")
	require.True(t, ok)
	assert.Equal(t, "BNM", tok.Symbol)
}

func TestChainDescriptor_QuoteAddressAndExplorer(t *testing.T) {
	c := sampleEVM()
	assert.Equal(t, c.Router, c.QuoteAddress())
	c.FeeQuoter = "FeeQPGkKDeRV1MgoYfMH6L8o3KeuYjwUZrgn4LRKfjHi"
	assert.Equal(t, c.FeeQuoter, c.QuoteAddress())

	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", c.ExplorerURL("0xabc"))
	assert.Equal(t, "", c.ExplorerURL(""))

	c.ExplorerTxURL = "https://explorer.solana.com/tx/{tx}?cluster=devnet"
	assert.Equal(t, "https://explorer.solana.com/tx/sig?cluster=devnet", c.ExplorerURL("sig"))
}

func TestChainFamily_NativeSentinel(t *testing.T) {
	assert.Equal(t, EVMNativeSentinel, FamilyEVM.NativeSentinel())
	assert.Equal(t, SolanaNativeSentinel, FamilySVM.NativeSentinel())
}
