package blockchain

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ClientFactory manages blockchain clients, one per RPC URL.
type ClientFactory struct {
	evmClients    map[string]*EVMClient
	solanaClients map[string]*SVMClient
	wait          WaitOptions
	dialTimeout   time.Duration
	mu            sync.RWMutex
}

func NewClientFactory(wait WaitOptions) *ClientFactory {
	return &ClientFactory{
		evmClients:    make(map[string]*EVMClient),
		solanaClients: make(map[string]*SVMClient),
		wait:          wait.withDefaults(),
		dialTimeout:   15 * time.Second,
	}
}

// GetEVMClient returns the cached client for rpcURL, dialing on first use.
func (f *ClientFactory) GetEVMClient(ctx context.Context, rpcURL string) (*EVMClient, error) {
	f.mu.RLock()
	client, ok := f.evmClients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if client, ok := f.evmClients[rpcURL]; ok {
		return client, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, f.dialTimeout)
	defer cancel()
	newClient, err := NewEVMClient(dialCtx, rpcURL, f.wait)
	if err != nil {
		return nil, fmt.Errorf("failed to create EVM client: %w", err)
	}

	f.evmClients[rpcURL] = newClient
	return newClient, nil
}

// GetSVMClient returns the cached Solana client for rpcURL.
func (f *ClientFactory) GetSVMClient(rpcURL string) *SVMClient {
	f.mu.RLock()
	client, ok := f.solanaClients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if client, ok := f.solanaClients[rpcURL]; ok {
		return client
	}
	client = NewSVMClient(rpcURL, f.wait)
	f.solanaClients[rpcURL] = client
	return client
}

// RegisterEVMClient injects/overrides cached client for a specific rpcURL.
// Useful for deterministic unit tests.
func (f *ClientFactory) RegisterEVMClient(rpcURL string, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evmClients[rpcURL] = client
}

func (f *ClientFactory) RegisterSVMClient(rpcURL string, client *SVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.solanaClients[rpcURL] = client
}

// Close releases every EVM connection.
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for url, c := range f.evmClients {
		c.Close()
		delete(f.evmClients, url)
	}
}
