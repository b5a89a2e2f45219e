package models

import (
	"time"
)

type Transfer struct {
	ID                   string    `gorm:"type:varchar(36);primaryKey"`
	Status               string    `gorm:"type:varchar(20);not null;index"`
	SourceChain          string    `gorm:"type:varchar(64);not null"`
	SourceChainName      string    `gorm:"type:varchar(128)"`
	DestinationChain     string    `gorm:"type:varchar(64);not null"`
	DestinationChainName string    `gorm:"type:varchar(128)"`
	Amount               string    `gorm:"type:varchar(100);not null"` // decimal string as submitted
	Asset                string    `gorm:"type:varchar(128);not null"`
	Sender               string    `gorm:"type:varchar(128);not null"`
	Receiver             string    `gorm:"type:varchar(128);not null"`
	FeeToken             string    `gorm:"type:varchar(128)"`
	Fee                  *string   `gorm:"type:varchar(100)"` // base units
	TxHash               *string   `gorm:"type:varchar(128);index"`
	MessageID            *string   `gorm:"type:varchar(66);index"`
	Error                *string   `gorm:"type:text"`
	ExplorerURL          *string   `gorm:"type:varchar(512)"`
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
}

func (Transfer) TableName() string {
	return "transfers"
}
