package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ccip-relay.backend/internal/domain/entities"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func newTestTransferRepo(t *testing.T) *TransferRepositoryImpl {
	t.Helper()
	repo := NewTransferRepository(newTestDB(t))
	require.NoError(t, repo.AutoMigrate())
	return repo
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTransfer(id string, offset time.Duration) *entities.TransferRecord {
	at := testEpoch.Add(offset)
	return &entities.TransferRecord{
		ID:                   id,
		CreatedAt:            at,
		UpdatedAt:            at,
		Status:               entities.TransferStatusProcessing,
		SourceChain:          "ethereum-sepolia",
		SourceChainName:      "Ethereum Sepolia",
		DestinationChain:     "solana-devnet",
		DestinationChainName: "Solana Devnet",
		Amount:               "1.5",
		Asset:                "CCIP-BnM",
		Sender:               entities.UnknownSender,
		Receiver:             "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		FeeToken:             "0x779877A7B0D9E8603169DdbD7836e478b4624789",
	}
}
