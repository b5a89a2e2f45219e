package usecases

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ccip-relay.backend/internal/domain/entities"
)

func chainWithID(id string) interface{} {
	return mock.MatchedBy(func(c *entities.ChainDescriptor) bool { return c.ID == id })
}

func TestChainHealthUsecase_ListChains(t *testing.T) {
	u := NewChainHealthUsecase(newTestRegistry(t), new(MockChainClients))

	ids := []string{}
	for _, c := range u.ListChains() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"base-sepolia", "ethereum-sepolia", "solana-devnet", "solana-mainnet"}, ids)
}

func TestChainHealthUsecase_CheckAll(t *testing.T) {
	clients := new(MockChainClients)
	sepolia, base := new(MockEVMClient), new(MockEVMClient)
	devnet, mainnet := new(MockSVMClient), new(MockSVMClient)

	clients.On("EVM", mock.Anything, chainWithID("ethereum-sepolia")).Return(sepolia, nil)
	clients.On("EVM", mock.Anything, chainWithID("base-sepolia")).Return(base, nil)
	clients.On("SVM", mock.Anything, chainWithID("solana-devnet")).Return(devnet, nil)
	clients.On("SVM", mock.Anything, chainWithID("solana-mainnet")).Return(mainnet, nil)

	sepolia.On("RemoteChainID", mock.Anything).Return(big.NewInt(11155111), nil)
	// wrong network behind the base endpoint
	base.On("RemoteChainID", mock.Anything).Return(big.NewInt(1), nil)
	devnet.On("Health", mock.Anything).Return(nil)
	mainnet.On("Health", mock.Anything).Return(errors.New("node is behind by 120 slots"))

	u := NewChainHealthUsecase(newTestRegistry(t), clients)
	statuses, err := u.CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	byID := map[string]ChainStatus{}
	for _, s := range statuses {
		byID[s.ID] = s
	}
	assert.True(t, byID["ethereum-sepolia"].Healthy)
	assert.Equal(t, "Ethereum Sepolia", byID["ethereum-sepolia"].Name)
	assert.False(t, byID["base-sepolia"].Healthy)
	assert.Contains(t, byID["base-sepolia"].Error, "expected 84532")
	assert.True(t, byID["solana-devnet"].Healthy)
	assert.Equal(t, entities.FamilySVM, byID["solana-devnet"].Family)
	assert.False(t, byID["solana-mainnet"].Healthy)
	assert.Equal(t, "node is behind by 120 slots", byID["solana-mainnet"].Error)

	assert.Equal(t, "base-sepolia", statuses[0].ID)
	clients.AssertExpectations(t)
}

func TestChainHealthUsecase_ClientUnavailable(t *testing.T) {
	clients := new(MockChainClients)
	clients.On("EVM", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
	clients.On("SVM", mock.Anything, mock.Anything).Return(nil, errors.New("no endpoint"))

	u := NewChainHealthUsecase(newTestRegistry(t), clients)
	statuses, err := u.CheckAll(context.Background())
	require.NoError(t, err)
	for _, s := range statuses {
		assert.False(t, s.Healthy, s.ID)
		assert.NotEmpty(t, s.Error, s.ID)
	}
}
