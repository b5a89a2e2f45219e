package usecases

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gagliardetto/solana-go"

	"ccip-relay.backend/internal/domain/entities"
	"ccip-relay.backend/internal/infrastructure/blockchain"
)

// SignerProvider supplies the relay's signing keys per chain family.
type SignerProvider interface {
	EVMSigner(ctx context.Context) (*blockchain.EVMSigner, error)
	SVMSigner(ctx context.Context) (*blockchain.SVMSigner, error)
}

// EVMChainClient is what the relay needs from an EVM node.
type EVMChainClient interface {
	CallView(ctx context.Context, to string, data []byte) ([]byte, error)
	Transact(ctx context.Context, key *ecdsa.PrivateKey, to string, data []byte, value *big.Int) (string, error)
	WaitForReceipt(ctx context.Context, txHash string, confirmations uint64) (*types.Receipt, error)
	RemoteChainID(ctx context.Context) (*big.Int, error)
}

// SVMChainClient is what the relay needs from a Solana node.
type SVMChainClient interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	Simulate(ctx context.Context, tx *solana.Transaction) ([]string, error)
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	WaitForSignature(ctx context.Context, sig solana.Signature, finalized bool) error
	TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error)
	Account(ctx context.Context, key solana.PublicKey) (solana.PublicKey, []byte, error)
	MintInfo(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, uint8, error)
	Health(ctx context.Context) error
}

// ChainClients hands out RPC clients for configured chains.
type ChainClients interface {
	EVM(ctx context.Context, chain *entities.ChainDescriptor) (EVMChainClient, error)
	SVM(ctx context.Context, chain *entities.ChainDescriptor) (SVMChainClient, error)
}

type factoryChainClients struct {
	factory *blockchain.ClientFactory
}

// NewChainClients adapts a ClientFactory to ChainClients.
func NewChainClients(factory *blockchain.ClientFactory) ChainClients {
	return &factoryChainClients{factory: factory}
}

func (c *factoryChainClients) EVM(ctx context.Context, chain *entities.ChainDescriptor) (EVMChainClient, error) {
	client, err := c.factory.GetEVMClient(ctx, chain.RPCURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *factoryChainClients) SVM(_ context.Context, chain *entities.ChainDescriptor) (SVMChainClient, error) {
	return c.factory.GetSVMClient(chain.RPCURL), nil
}
