package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByGroupID(ctx context.Context, db *gorm.DB, groupID string) (*Settings, error)
	Upsert(ctx context.Context, db *gorm.DB, settings *Settings) error
}
