package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByGroupID(ctx context.Context, db *gorm.DB, groupID string) (*domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).Where("group_id = ?", groupID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, settings *domain.Settings) error {
	if settings == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"payment_source", "custom_source", "enabled", "admin_only_config", "updated_at",
		}),
	}).Create(settings).Error
}
