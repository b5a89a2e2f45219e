package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"ccip-relay.backend/internal/domain/entities"
	domainerrors "ccip-relay.backend/internal/domain/errors"
	"ccip-relay.backend/internal/infrastructure/models"
)

// TransferRepositoryImpl persists transfers through GORM (postgres in
// production, sqlite in tests).
type TransferRepositoryImpl struct {
	db  *gorm.DB
	uow *UnitOfWorkImpl
}

func NewTransferRepository(db *gorm.DB) *TransferRepositoryImpl {
	return &TransferRepositoryImpl{db: db, uow: &UnitOfWorkImpl{db: db}}
}

// AutoMigrate creates or updates the transfers table.
func (r *TransferRepositoryImpl) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Transfer{})
}

func (r *TransferRepositoryImpl) Insert(ctx context.Context, record *entities.TransferRecord) error {
	m := toTransferModel(record)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return fmt.Errorf("insert transfer %s: %w", record.ID, err)
	}
	return nil
}

func (r *TransferRepositoryImpl) Update(ctx context.Context, id string, status entities.TransferStatus, upd entities.TransferUpdate) (*entities.TransferRecord, error) {
	var out *entities.TransferRecord
	err := r.uow.Do(ctx, func(txCtx context.Context) error {
		var m models.Transfer
		if err := GetDB(r.uow.WithLock(txCtx), r.db).Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}

		rec := toTransferEntity(&m)
		if rec.Status.IsTerminal() {
			return domainerrors.ErrTerminalState
		}
		rec.Status = status
		upd.Apply(rec)
		rec.UpdatedAt = time.Now().UTC()

		if err := GetDB(txCtx, r.db).Save(toTransferModel(rec)).Error; err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TransferRepositoryImpl) Get(ctx context.Context, id string) (*entities.TransferRecord, error) {
	var m models.Transfer
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toTransferEntity(&m), nil
}

func (r *TransferRepositoryImpl) List(ctx context.Context, limit int) ([]*entities.TransferRecord, error) {
	var ms []models.Transfer
	q := GetDB(ctx, r.db).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]*entities.TransferRecord, 0, len(ms))
	for i := range ms {
		out = append(out, toTransferEntity(&ms[i]))
	}
	return out, nil
}

// Prune deletes terminal records outside the keep most recent. In-flight
// records are never pruned.
func (r *TransferRepositoryImpl) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, domainerrors.ErrInvalidInput
	}
	db := GetDB(ctx, r.db)
	q := db.Where("status <> ?", string(entities.TransferStatusProcessing))
	if keep > 0 {
		recent := db.Model(&models.Transfer{}).Select("id").
			Order("created_at DESC").Order("id DESC").Limit(keep)
		q = q.Where("id NOT IN (?)", recent)
	}
	res := q.Delete(&models.Transfer{})
	return res.RowsAffected, res.Error
}

func toTransferModel(e *entities.TransferRecord) *models.Transfer {
	return &models.Transfer{
		ID:                   e.ID,
		Status:               string(e.Status),
		SourceChain:          e.SourceChain,
		SourceChainName:      e.SourceChainName,
		DestinationChain:     e.DestinationChain,
		DestinationChainName: e.DestinationChainName,
		Amount:               e.Amount,
		Asset:                e.Asset,
		Sender:               e.Sender,
		Receiver:             e.Receiver,
		FeeToken:             e.FeeToken,
		Fee:                  e.Fee.Ptr(),
		TxHash:               e.TxHash.Ptr(),
		MessageID:            e.MessageID.Ptr(),
		Error:                e.Error.Ptr(),
		ExplorerURL:          e.ExplorerURL.Ptr(),
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

func toTransferEntity(m *models.Transfer) *entities.TransferRecord {
	return &entities.TransferRecord{
		ID:                   m.ID,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		Status:               entities.TransferStatus(m.Status),
		SourceChain:          m.SourceChain,
		SourceChainName:      m.SourceChainName,
		DestinationChain:     m.DestinationChain,
		DestinationChainName: m.DestinationChainName,
		Amount:               m.Amount,
		Asset:                m.Asset,
		Sender:               m.Sender,
		Receiver:             m.Receiver,
		FeeToken:             m.FeeToken,
		Fee:                  null.StringFromPtr(m.Fee),
		TxHash:               null.StringFromPtr(m.TxHash),
		MessageID:            null.StringFromPtr(m.MessageID),
		Error:                null.StringFromPtr(m.Error),
		ExplorerURL:          null.StringFromPtr(m.ExplorerURL),
	}
}
