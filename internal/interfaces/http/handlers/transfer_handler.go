package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/interfaces/http/response"
)

type TransferService interface {
	ExecuteTransfer(ctx context.Context, req *entities.TransferRequest) (*entities.TransferRecord, error)
	GetTransfer(ctx context.Context, id string) (*entities.TransferRecord, error)
	ListTransfers(ctx context.Context, limit int) ([]*entities.TransferRecord, error)
}

// TransferHandler handles transfer endpoints
type TransferHandler struct {
	transfers TransferService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transfers TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// CreateTransfer submits a cross-chain transfer and waits for its outcome.
// A transfer that fails after acceptance is still a 200 with the failed record.
// POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var req entities.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid request body"))
		return
	}

	record, err := h.transfers.ExecuteTransfer(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if record.Status == entities.TransferStatusCompleted {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"transfer": record})
}

// GetTransfer gets a transfer by ID
// GET /api/v1/transfers/:id
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid transfer ID"))
		return
	}

	record, err := h.transfers.GetTransfer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			response.Error(c, domainerrors.NotFound("Transfer not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transfer": record})
}

// ListTransfers returns the transfer history, most recent first
// GET /api/v1/transfers?limit=20
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, domainerrors.BadRequest("Invalid limit"))
			return
		}
		limit = n
	}

	records, err := h.transfers.ListTransfers(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if records == nil {
		records = []*entities.TransferRecord{}
	}

	response.Success(c, http.StatusOK, gin.H{"transfers": records})
}
