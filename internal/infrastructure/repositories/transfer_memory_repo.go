package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
)

// MemoryTransferRepository keeps transfer history in process memory.
type MemoryTransferRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.TransferRecord
}

func NewMemoryTransferRepository() *MemoryTransferRepository {
	return &MemoryTransferRepository{records: make(map[string]*entities.TransferRecord)}
}

func (r *MemoryTransferRepository) Insert(_ context.Context, record *entities.TransferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; ok {
		return domainerrors.ErrAlreadyExists
	}
	cp := *record
	r.records[record.ID] = &cp
	return nil
}

func (r *MemoryTransferRepository) Update(_ context.Context, id string, status entities.TransferStatus, upd entities.TransferUpdate) (*entities.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	if rec.Status.IsTerminal() {
		return nil, domainerrors.ErrTerminalState
	}
	rec.Status = status
	upd.Apply(rec)
	rec.UpdatedAt = time.Now().UTC()

	cp := *rec
	return &cp, nil
}

func (r *MemoryTransferRepository) Get(_ context.Context, id string) (*entities.TransferRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryTransferRepository) List(_ context.Context, limit int) ([]*entities.TransferRecord, error) {
	r.mu.RLock()
	sorted := r.sortedLocked()
	r.mu.RUnlock()

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *MemoryTransferRepository) Prune(_ context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, domainerrors.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := r.sortedLocked()
	var removed int64
	for i, rec := range sorted {
		if i < keep || rec.Status == entities.TransferStatusProcessing {
			continue
		}
		delete(r.records, rec.ID)
		removed++
	}
	return removed, nil
}

// sortedLocked returns copies ordered newest first. Ties on CreatedAt fall
// back to the id, which is time-ordered.
func (r *MemoryTransferRepository) sortedLocked() []*entities.TransferRecord {
	out := make([]*entities.TransferRecord, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
