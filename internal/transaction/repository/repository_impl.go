package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paysignal/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	if tx == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(tx).Error
}

func (r *repo) ListByDate(ctx context.Context, db *gorm.DB, groupHash, date string) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := db.WithContext(ctx).
		Where("group_hash = ? AND date = ?", groupHash, date).
		Order("timestamp ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB, groupHash string) ([]domain.Transaction, error) {
	var items []domain.Transaction
	err := db.WithContext(ctx).
		Where("group_hash = ?", groupHash).
		Order("date ASC, timestamp ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListBefore(ctx context.Context, db *gorm.DB, groupHash string, beforeID snowflake.ID, limit int) ([]domain.Transaction, error) {
	q := db.WithContext(ctx).Where("group_hash = ?", groupHash)
	if beforeID != 0 {
		q = q.Where("id < ?", beforeID)
	}
	var items []domain.Transaction
	if err := q.Order("id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
