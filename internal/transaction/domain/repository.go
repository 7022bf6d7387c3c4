package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tx *Transaction) error
	ListByDate(ctx context.Context, db *gorm.DB, groupHash, date string) ([]Transaction, error)
	ListAll(ctx context.Context, db *gorm.DB, groupHash string) ([]Transaction, error)
	// ListBefore returns up to limit rows newest first, strictly older than
	// beforeID when it is non-zero.
	ListBefore(ctx context.Context, db *gorm.DB, groupHash string, beforeID snowflake.ID, limit int) ([]Transaction, error)
}
