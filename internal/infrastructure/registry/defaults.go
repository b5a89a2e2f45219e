package registry

import (
	chainsel "github.com/smartcontractkit/chain-selectors"

	"ccip-relay.backend/internal/domain/entities"
)

// WrappedSOLMint is the SPL wrapped SOL mint.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

func evmTokens(link, weth, wethSymbol, bnm string) map[string]entities.TokenInfo {
	return map[string]entities.TokenInfo{
		"LINK":     {Symbol: "LINK", Address: link, Decimals: 18},
		wethSymbol: {Symbol: wethSymbol, Address: weth, Decimals: 18},
		"CCIP-BNM": {Symbol: "CCIP-BnM", Address: bnm, Decimals: 18},
	}
}

// defaultChains is the built-in CCIP testnet table. A chain only becomes usable
// once an RPC endpoint is configured for it.
func defaultChains() []*entities.ChainDescriptor {
	return []*entities.ChainDescriptor{
		{
			ID:                "ethereum-sepolia",
			Name:              "Ethereum Sepolia",
			Family:            entities.FamilyEVM,
			EVMChainID:        chainsel.ETHEREUM_TESTNET_SEPOLIA.EvmChainID,
			ChainSelector:     chainsel.ETHEREUM_TESTNET_SEPOLIA.Selector,
			Router:            "0x0BF3dE8c5D3e8A2B34D2BEeB17ABfCeBaf363A59",
			Tokens:            evmTokens("0x779877A7B0D9E8603169DdbD7836e478b4624789", "0x097D90c9d3E0B50Ca60e1ae45F6A81010f9FB534", "WETH", "0xFd57b4ddBf88a4e07fF4e34C487b99af2Fe82a05"),
			WrappedNative:     "0x097D90c9d3E0B50Ca60e1ae45F6A81010f9FB534",
			ProtocolToken:     "0x779877A7B0D9E8603169DdbD7836e478b4624789",
			ConfirmationDepth: 1,
			ExplorerTxURL:     "https://sepolia.etherscan.io/tx/",
		},
		{
			ID:                "base-sepolia",
			Name:              "Base Sepolia",
			Family:            entities.FamilyEVM,
			EVMChainID:        chainsel.ETHEREUM_TESTNET_SEPOLIA_BASE_1.EvmChainID,
			ChainSelector:     chainsel.ETHEREUM_TESTNET_SEPOLIA_BASE_1.Selector,
			Router:            "0xD3b06cEbF099CE7DA4AcCf578aaebFDBd6e88a93",
			Tokens:            evmTokens("0xE4aB69C077896252FAFBD49EFD26B5D171A32410", "0x4200000000000000000000000000000000000006", "WETH", "0x88A2d74F47a237a62e7A51cdDa67270CE381555e"),
			WrappedNative:     "0x4200000000000000000000000000000000000006",
			ProtocolToken:     "0xE4aB69C077896252FAFBD49EFD26B5D171A32410",
			ConfirmationDepth: 1,
			ExplorerTxURL:     "https://sepolia.basescan.org/tx/",
		},
		{
			ID:                "arbitrum-sepolia",
			Name:              "Arbitrum Sepolia",
			Family:            entities.FamilyEVM,
			EVMChainID:        chainsel.ETHEREUM_TESTNET_SEPOLIA_ARBITRUM_1.EvmChainID,
			ChainSelector:     chainsel.ETHEREUM_TESTNET_SEPOLIA_ARBITRUM_1.Selector,
			Router:            "0x2a9C5afB0d0e4BAb2BCdaE109EC4b0c4Be15a165",
			Tokens:            evmTokens("0xb1D4538B4571d411F07960EF2838Ce337FE1E80E", "0xE591bf0A0CF924A0674d7792db046B23CEbF5f34", "WETH", "0xA8C0c11bf64AF62CDCA6f93D3769B88BdD7cb93D"),
			WrappedNative:     "0xE591bf0A0CF924A0674d7792db046B23CEbF5f34",
			ProtocolToken:     "0xb1D4538B4571d411F07960EF2838Ce337FE1E80E",
			ConfirmationDepth: 1,
			ExplorerTxURL:     "https://sepolia.arbiscan.io/tx/",
		},
		{
			ID:                "avalanche-fuji",
			Name:              "Avalanche Fuji",
			Family:            entities.FamilyEVM,
			EVMChainID:        chainsel.AVALANCHE_TESTNET_FUJI.EvmChainID,
			ChainSelector:     chainsel.AVALANCHE_TESTNET_FUJI.Selector,
			Router:            "0xF694E193200268f9a4868e4Aa017A0118C9a8177",
			Tokens:            evmTokens("0x0b9d5D9136855f6FEc3c0993feE6E9CE8a297846", "0xd00ae08403B9bbb9124bB305C09058E32C39A48c", "WAVAX", "0xD21341536c5cF5EB1bcb58f6723cE26e8D8E90e4"),
			WrappedNative:     "0xd00ae08403B9bbb9124bB305C09058E32C39A48c",
			ProtocolToken:     "0x0b9d5D9136855f6FEc3c0993feE6E9CE8a297846",
			ConfirmationDepth: 1,
			ExplorerTxURL:     "https://testnet.snowtrace.io/tx/",
		},
		{
			ID:            "solana-devnet",
			Name:          "Solana Devnet",
			Family:        entities.FamilySVM,
			Cluster:       "devnet",
			ChainSelector: chainsel.SOLANA_DEVNET.Selector,
			Router:        "Ccip842gzYHhvdDkSyi2YVCoAWPbYJoApMFzSxQroE9C",
			FeeQuoter:     "FeeQPGkKDeRV1MgoYfMH6L8o3KeuYjwUZrgn4LRKfjHi",
			RMNRemote:     "RmnXLft1mSEwDgMKu2okYuHkiazxntFFcZFrrcXxYg7",
			Tokens: map[string]entities.TokenInfo{
				"LINK":     {Symbol: "LINK", Address: "LinkhB3afbBKb2EQQu7s7umdZceV3wcvAUJhQAfQ23L", Decimals: 9},
				"WSOL":     {Symbol: "wSOL", Address: WrappedSOLMint, Decimals: 9},
				"CCIP-BNM": {Symbol: "CCIP-BnM", Address: "3PjyGzj1jGVgHSKS4VR1Hr1memm63PmN8L9rtPDKwzZ6", Decimals: 9},
			},
			WrappedNative:     WrappedSOLMint,
			ProtocolToken:     "LinkhB3afbBKb2EQQu7s7umdZceV3wcvAUJhQAfQ23L",
			ConfirmationDepth: 1,
			ExplorerTxURL:     "https://explorer.solana.com/tx/{tx}?cluster=devnet",
		},
	}
}
