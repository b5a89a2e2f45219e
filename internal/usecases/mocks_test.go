package usecases

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"

	"ccip-relay.backend/internal/domain/entities"
	"ccip-relay.backend/internal/infrastructure/blockchain"
)

// Mock SignerProvider
type MockSignerProvider struct {
	mock.Mock
}

func (m *MockSignerProvider) EVMSigner(ctx context.Context) (*blockchain.EVMSigner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.EVMSigner), args.Error(1)
}

func (m *MockSignerProvider) SVMSigner(ctx context.Context) (*blockchain.SVMSigner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blockchain.SVMSigner), args.Error(1)
}

// Mock EVMChainClient
type MockEVMClient struct {
	mock.Mock
}

func (m *MockEVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	args := m.Called(ctx, to, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockEVMClient) Transact(ctx context.Context, key *ecdsa.PrivateKey, to string, data []byte, value *big.Int) (string, error) {
	args := m.Called(ctx, key, to, data, value)
	return args.String(0), args.Error(1)
}

func (m *MockEVMClient) WaitForReceipt(ctx context.Context, txHash string, confirmations uint64) (*types.Receipt, error) {
	args := m.Called(ctx, txHash, confirmations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockEVMClient) RemoteChainID(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

// Mock SVMChainClient
type MockSVMClient struct {
	mock.Mock
}

func (m *MockSVMClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockSVMClient) Simulate(ctx context.Context, tx *solana.Transaction) ([]string, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSVMClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockSVMClient) WaitForSignature(ctx context.Context, sig solana.Signature, finalized bool) error {
	args := m.Called(ctx, sig, finalized)
	return args.Error(0)
}

func (m *MockSVMClient) TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	args := m.Called(ctx, sig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSVMClient) Account(ctx context.Context, key solana.PublicKey) (solana.PublicKey, []byte, error) {
	args := m.Called(ctx, key)
	if args.Get(1) == nil {
		return args.Get(0).(solana.PublicKey), nil, args.Error(2)
	}
	return args.Get(0).(solana.PublicKey), args.Get(1).([]byte), args.Error(2)
}

func (m *MockSVMClient) MintInfo(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	args := m.Called(ctx, mint)
	return args.Get(0).(solana.PublicKey), args.Get(1).(uint8), args.Error(2)
}

func (m *MockSVMClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Mock ChainClients
type MockChainClients struct {
	mock.Mock
}

func (m *MockChainClients) EVM(ctx context.Context, chain *entities.ChainDescriptor) (EVMChainClient, error) {
	args := m.Called(ctx, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(EVMChainClient), args.Error(1)
}

func (m *MockChainClients) SVM(ctx context.Context, chain *entities.ChainDescriptor) (SVMChainClient, error) {
	args := m.Called(ctx, chain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SVMChainClient), args.Error(1)
}
