package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Transaction is the stored form of an extracted payment. Payer and GroupID
// hold ciphertext; GroupHash is the lookup key for a group's rows.
type Transaction struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	GroupHash string          `gorm:"type:char(64);not null;index:ix_transactions_group_date,priority:1"`
	Date      string          `gorm:"type:char(10);not null;index:ix_transactions_group_date,priority:2"`
	Timestamp time.Time       `gorm:"not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Payer     string          `gorm:"type:text;not null"`
	GroupID   string          `gorm:"column:group_id_enc;type:text;not null"`
	Type      string          `gorm:"type:varchar(32);not null"`
	Source    string          `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time       `gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }
