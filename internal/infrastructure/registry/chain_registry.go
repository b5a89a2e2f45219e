package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
)

// TokenOverride is one [chains.<id>.tokens.<SYMBOL>] table.
type TokenOverride struct {
	Address  string `toml:"address"`
	Decimals uint8  `toml:"decimals"`
}

// ChainOverride is one [chains.<id>] table. Zero values keep the built-in value.
type ChainOverride struct {
	Name              string                   `toml:"name"`
	Family            string                   `toml:"family"`
	EVMChainID        uint64                   `toml:"evm_chain_id"`
	Cluster           string                   `toml:"cluster"`
	Selector          uint64                   `toml:"selector"`
	Router            string                   `toml:"router"`
	FeeQuoter         string                   `toml:"fee_quoter"`
	RMNRemote         string                   `toml:"rmn_remote"`
	WrappedNative     string                   `toml:"wrapped_native"`
	ProtocolToken     string                   `toml:"protocol_token"`
	ConfirmationDepth uint64                   `toml:"confirmation_depth"`
	ExplorerTxURL     string                   `toml:"explorer_tx_url"`
	RPCURL            string                   `toml:"rpc_url"`
	Tokens            map[string]TokenOverride `toml:"tokens"`
}

// FileConfig is the layout of CHAINS_CONFIG_PATH.
type FileConfig struct {
	Chains map[string]ChainOverride `toml:"chains"`
}

var readFile = os.ReadFile

// LoadFile parses a chains TOML file. An empty path yields no overrides.
func LoadFile(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}
	raw, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains config: %w", err)
	}
	return ParseFile(raw)
}

// ParseFile decodes chains TOML.
func ParseFile(raw []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse chains config: %w", err)
	}
	return &cfg, nil
}

// ChainRegistry is the immutable table of usable chains.
type ChainRegistry struct {
	chains map[string]*entities.ChainDescriptor
	ids    []string
}

// New merges the built-in table with file overrides and keeps only chains that
// have an RPC endpoint (from rpcURLs, keyed by chain id, or the file).
func New(rpcURLs map[string]string, file *FileConfig) (*ChainRegistry, error) {
	all := make(map[string]*entities.ChainDescriptor)
	for _, d := range defaultChains() {
		all[d.ID] = d
	}

	if file != nil {
		ids := make([]string, 0, len(file.Chains))
		for id := range file.Chains {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			d, err := applyOverride(all[id], id, file.Chains[id])
			if err != nil {
				return nil, err
			}
			all[id] = d
		}
	}

	r := &ChainRegistry{chains: make(map[string]*entities.ChainDescriptor)}
	for id, d := range all {
		if url := strings.TrimSpace(rpcURLs[id]); url != "" {
			d.RPCURL = url
		}
		if d.RPCURL == "" {
			continue
		}
		if err := validate(d); err != nil {
			return nil, err
		}
		r.chains[id] = d
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Describe returns the descriptor for a configured chain.
func (r *ChainRegistry) Describe(id string) (*entities.ChainDescriptor, error) {
	d, ok := r.chains[id]
	if !ok {
		return nil, domainerrors.Transferf(domainerrors.KindUnknownChain, "chain %q is not configured", id)
	}
	return d, nil
}

// FamilyOf returns the family of a configured chain without any network call.
func (r *ChainRegistry) FamilyOf(id string) (entities.ChainFamily, error) {
	d, err := r.Describe(id)
	if err != nil {
		return "", err
	}
	return d.Family, nil
}

// List returns configured chains ordered by id.
func (r *ChainRegistry) List() []*entities.ChainDescriptor {
	out := make([]*entities.ChainDescriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.chains[id])
	}
	return out
}

func applyOverride(base *entities.ChainDescriptor, id string, o ChainOverride) (*entities.ChainDescriptor, error) {
	d := &entities.ChainDescriptor{ID: id, Tokens: map[string]entities.TokenInfo{}}
	if base != nil {
		cp := *base
		cp.Tokens = make(map[string]entities.TokenInfo, len(base.Tokens))
		for k, v := range base.Tokens {
			cp.Tokens[k] = v
		}
		d = &cp
	}

	if o.Family != "" {
		fam, err := entities.ParseChainFamily(o.Family)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", id, err)
		}
		d.Family = fam
	}
	setString(&d.Name, o.Name)
	setString(&d.Cluster, o.Cluster)
	setString(&d.Router, o.Router)
	setString(&d.FeeQuoter, o.FeeQuoter)
	setString(&d.RMNRemote, o.RMNRemote)
	setString(&d.WrappedNative, o.WrappedNative)
	setString(&d.ProtocolToken, o.ProtocolToken)
	setString(&d.ExplorerTxURL, o.ExplorerTxURL)
	setString(&d.RPCURL, o.RPCURL)
	if o.EVMChainID != 0 {
		d.EVMChainID = o.EVMChainID
	}
	if o.Selector != 0 {
		d.ChainSelector = o.Selector
	}
	if o.ConfirmationDepth != 0 {
		d.ConfirmationDepth = o.ConfirmationDepth
	}
	for sym, t := range o.Tokens {
		key := strings.ToUpper(sym)
		d.Tokens[key] = entities.TokenInfo{Symbol: sym, Address: t.Address, Decimals: t.Decimals}
	}

	if d.ChainSelector == 0 && d.Family == entities.FamilyEVM && d.EVMChainID != 0 {
		sel, err := chainsel.SelectorFromChainId(d.EVMChainID)
		if err != nil {
			return nil, fmt.Errorf("chain %s: no CCIP selector for evm chain id %d: %w", id, d.EVMChainID, err)
		}
		d.ChainSelector = sel
	}
	if d.Name == "" {
		d.Name = id
	}
	if d.ConfirmationDepth == 0 {
		d.ConfirmationDepth = 1
	}
	return d, nil
}

func validate(d *entities.ChainDescriptor) error {
	if d.Family != entities.FamilyEVM && d.Family != entities.FamilySVM {
		return fmt.Errorf("chain %s: family must be evm or svm", d.ID)
	}
	if d.ChainSelector == 0 {
		return fmt.Errorf("chain %s: missing CCIP chain selector", d.ID)
	}
	if d.Router == "" {
		return fmt.Errorf("chain %s: missing router", d.ID)
	}
	if d.Family == entities.FamilyEVM && d.EVMChainID == 0 {
		return fmt.Errorf("chain %s: missing evm chain id", d.ID)
	}
	if d.Family == entities.FamilySVM && d.FeeQuoter == "" {
		return fmt.Errorf("chain %s: svm chains need a fee quoter program", d.ID)
	}
	if fam, err := chainsel.GetSelectorFamily(d.ChainSelector); err == nil {
		want := chainsel.FamilyEVM
		if d.Family == entities.FamilySVM {
			want = chainsel.FamilySolana
		}
		if fam != want {
			return fmt.Errorf("chain %s: selector %d belongs to family %s", d.ID, d.ChainSelector, fam)
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
