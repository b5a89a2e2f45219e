package entities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ChainFamily is the execution model of a chain.
type ChainFamily string

const (
	FamilyEVM ChainFamily = "evm"
	FamilySVM ChainFamily = "svm"
)

// Sentinels meaning "pay in the chain's native currency".
const (
	EVMNativeSentinel    = "0x0000000000000000000000000000000000000000"
	SolanaNativeSentinel = "11111111111111111111111111111111"
)

// NativeSentinel returns the fee-token reference for native payment.
func (f ChainFamily) NativeSentinel() string {
	if f == FamilySVM {
		return SolanaNativeSentinel
	}
	return EVMNativeSentinel
}

// ParseChainFamily accepts "evm"/"svm" in any case.
func ParseChainFamily(s string) (ChainFamily, error) {
	switch ChainFamily(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyEVM:
		return FamilyEVM, nil
	case FamilySVM:
		return FamilySVM, nil
	}
	return "", fmt.Errorf("unknown chain family %q", s)
}

// TokenInfo is a token known on one chain. Decimals 0 means look it up on chain.
type TokenInfo struct {
	Symbol   string `json:"symbol" toml:"symbol"`
	Address  string `json:"address" toml:"address"`
	Decimals uint8  `json:"decimals" toml:"decimals"`
}

// ChainDescriptor is the static description of one CCIP-enabled chain.
// Descriptors are built once at startup and never mutated.
type ChainDescriptor struct {
	ID                string               `json:"id"`
	Name              string               `json:"name"`
	Family            ChainFamily          `json:"family"`
	EVMChainID        uint64               `json:"evmChainId,omitempty"`
	Cluster           string               `json:"cluster,omitempty"`
	ChainSelector     uint64               `json:"chainSelector,string"`
	Router            string               `json:"router"`
	FeeQuoter         string               `json:"feeQuoter,omitempty"`
	RMNRemote         string               `json:"rmnRemote,omitempty"`
	Tokens            map[string]TokenInfo `json:"tokens"`
	WrappedNative     string               `json:"wrappedNative"`
	ProtocolToken     string               `json:"protocolToken"`
	ConfirmationDepth uint64               `json:"confirmationDepth"`
	ExplorerTxURL     string               `json:"explorerTxUrl,omitempty"`
	RPCURL            string               `json:"-"`
}

// GetCAIP2ID returns the CAIP-2 id (eip155:<id> or solana:<cluster>).
func (c *ChainDescriptor) GetCAIP2ID() string {
	switch c.Family {
	case FamilyEVM:
		return "eip155:" + strconv.FormatUint(c.EVMChainID, 10)
	case FamilySVM:
		return "solana:" + c.Cluster
	}
	return c.ID
}

// QuoteAddress is the contract or program answering fee quotes. On EVM the
// router quotes.
func (c *ChainDescriptor) QuoteAddress() string {
	if c.FeeQuoter != "" {
		return c.FeeQuoter
	}
	return c.Router
}

// symbolAliases maps short test-token names onto their registered symbols.
var symbolAliases = map[string]string{
	"BNM": "CCIP-BNM",
	"LNM": "CCIP-LNM",
}

// TokenBySymbol looks up a known token, case-insensitively. An exact symbol
// wins over an alias.
func (c *ChainDescriptor) TokenBySymbol(symbol string) (TokenInfo, bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if t, ok := c.Tokens[key]; ok {
		return t, true
	}
	if alias, ok := symbolAliases[key]; ok {
		t, ok := c.Tokens[alias]
		return t, ok
	}
	return TokenInfo{}, false
}

// TokenByAddress finds a known token by address. EVM addresses compare
// case-insensitively, SVM mints exactly.
func (c *ChainDescriptor) TokenByAddress(addr string) (TokenInfo, bool) {
	for _, t := range c.Tokens {
		if t.Address == addr || (c.Family == FamilyEVM && strings.EqualFold(t.Address, addr)) {
			return t, true
		}
	}
	return TokenInfo{}, false
}

// TokenSymbols returns the known symbols sorted.
func (c *ChainDescriptor) TokenSymbols() []string {
	out := make([]string, 0, len(c.Tokens))
	for s := range c.Tokens {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ExplorerURL renders the explorer link for txHash, or "" when no template is set.
func (c *ChainDescriptor) ExplorerURL(txHash string) string {
	if c.ExplorerTxURL == "" || txHash == "" {
		return ""
	}
	if strings.Contains(c.ExplorerTxURL, "{tx}") {
		return strings.ReplaceAll(c.ExplorerTxURL, "{tx}", txHash)
	}
	return strings.TrimRight(c.ExplorerTxURL, "/") + "/" + txHash
}
