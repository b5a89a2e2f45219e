package usecases

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ccip-relay.backend/internal/domain/entities"
	"ccip-relay.backend/internal/domain/repositories"
)

const (
	defaultHealthTimeout  = 5 * time.Second
	maxParallelHealthRPCs = 8
)

// ChainStatus is the RPC health of one configured chain.
type ChainStatus struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Family    entities.ChainFamily `json:"family"`
	Healthy   bool                 `json:"healthy"`
	LatencyMs int64                `json:"latencyMs"`
	Error     string               `json:"error,omitempty"`
}

type ChainHealthUsecase struct {
	registry repositories.ChainRegistry
	clients  ChainClients
	timeout  time.Duration
}

func NewChainHealthUsecase(registry repositories.ChainRegistry, clients ChainClients) *ChainHealthUsecase {
	return &ChainHealthUsecase{
		registry: registry,
		clients:  clients,
		timeout:  defaultHealthTimeout,
	}
}

// ListChains returns the configured chains ordered by id.
func (u *ChainHealthUsecase) ListChains() []*entities.ChainDescriptor {
	return u.registry.List()
}

// CheckAll probes every configured chain concurrently. An unhealthy chain is
// reported in its status, not as an error.
func (u *ChainHealthUsecase) CheckAll(ctx context.Context) ([]ChainStatus, error) {
	chains := u.registry.List()
	out := make([]ChainStatus, len(chains))

	var g errgroup.Group
	g.SetLimit(maxParallelHealthRPCs)
	for i, chain := range chains {
		g.Go(func() error {
			out[i] = u.check(ctx, chain)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *ChainHealthUsecase) check(ctx context.Context, chain *entities.ChainDescriptor) ChainStatus {
	status := ChainStatus{ID: chain.ID, Name: chain.Name, Family: chain.Family}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	err := u.probe(ctx, chain)
	status.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

func (u *ChainHealthUsecase) probe(ctx context.Context, chain *entities.ChainDescriptor) error {
	switch chain.Family {
	case entities.FamilyEVM:
		client, err := u.clients.EVM(ctx, chain)
		if err != nil {
			return err
		}
		id, err := client.RemoteChainID(ctx)
		if err != nil {
			return err
		}
		if !id.IsUint64() || id.Uint64() != chain.EVMChainID {
			return fmt.Errorf("rpc reports chain id %s, expected %d", id, chain.EVMChainID)
		}
		return nil
	case entities.FamilySVM:
		client, err := u.clients.SVM(ctx, chain)
		if err != nil {
			return err
		}
		return client.Health(ctx)
	}
	return fmt.Errorf("unknown chain family %q", chain.Family)
}
