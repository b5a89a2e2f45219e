package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ccip-relay.backend/internal/domain/entities"
	"ccip-relay.backend/internal/interfaces/http/response"
	"ccip-relay.backend/internal/usecases"
)

type ChainService interface {
	ListChains() []*entities.ChainDescriptor
	CheckAll(ctx context.Context) ([]usecases.ChainStatus, error)
}

// ChainHandler handles chain endpoints
type ChainHandler struct {
	chains ChainService
}

// NewChainHandler creates a new chain handler
func NewChainHandler(chains ChainService) *ChainHandler {
	return &ChainHandler{chains: chains}
}

type chainResponse struct {
	ID            string               `json:"id"`
	CAIP2         string               `json:"caip2"`
	Name          string               `json:"name"`
	Family        entities.ChainFamily `json:"family"`
	ChainSelector uint64               `json:"chainSelector,string"`
	Router        string               `json:"router"`
	FeeQuoter     string               `json:"feeQuoter,omitempty"`
	Tokens        []entities.TokenInfo `json:"tokens"`
	WrappedNative string               `json:"wrappedNative"`
	ProtocolToken string               `json:"protocolToken"`
}

// ListChains lists the configured chains
// GET /api/v1/chains
func (h *ChainHandler) ListChains(c *gin.Context) {
	chains := h.chains.ListChains()

	out := make([]chainResponse, 0, len(chains))
	for _, chain := range chains {
		tokens := make([]entities.TokenInfo, 0, len(chain.Tokens))
		for _, sym := range chain.TokenSymbols() {
			tokens = append(tokens, chain.Tokens[sym])
		}
		out = append(out, chainResponse{
			ID:            chain.ID,
			CAIP2:         chain.GetCAIP2ID(),
			Name:          chain.Name,
			Family:        chain.Family,
			ChainSelector: chain.ChainSelector,
			Router:        chain.Router,
			FeeQuoter:     chain.FeeQuoter,
			Tokens:        tokens,
			WrappedNative: chain.WrappedNative,
			ProtocolToken: chain.ProtocolToken,
		})
	}

	response.Success(c, http.StatusOK, gin.H{"chains": out})
}

// ChainStatus probes the RPC endpoint of every configured chain
// GET /api/v1/chains/status
func (h *ChainHandler) ChainStatus(c *gin.Context) {
	statuses, err := h.chains.CheckAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	healthy := true
	for _, s := range statuses {
		healthy = healthy && s.Healthy
	}
	response.Success(c, http.StatusOK, gin.H{"healthy": healthy, "chains": statuses})
}
