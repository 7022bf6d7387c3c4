package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/paysignal/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateClient(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	if client == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(client).Error
}

func (r *repo) FindClientByID(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error) {
	return firstClient(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindClientByKeyHash(ctx context.Context, db *gorm.DB, hash string) (*domain.Client, error) {
	return firstClient(db.WithContext(ctx).Where("api_key_hash = ?", hash))
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, id, plan string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Client{}).
		Where("id = ?", id).
		Updates(map[string]any{"plan": plan, "updated_at": now}).Error
}

func (r *repo) ResetUsage(ctx context.Context, db *gorm.DB, id string, resetAt, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Client{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"monthly_transactions": 0,
			"usage_reset_at":       resetAt,
			"updated_at":           now,
		}).Error
}

func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, id string, n int, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Client{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"monthly_transactions": gorm.Expr("monthly_transactions + ?", n),
			"updated_at":           now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) CreateGroup(ctx context.Context, db *gorm.DB, group *domain.Group) error {
	if group == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(group).Error
}

func (r *repo) FindGroup(ctx context.Context, db *gorm.DB, groupID string) (*domain.Group, error) {
	var g domain.Group
	err := db.WithContext(ctx).Where("group_id = ?", groupID).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *repo) CountGroups(ctx context.Context, db *gorm.DB, clientID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Group{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

func (r *repo) ListActiveGroups(ctx context.Context, db *gorm.DB) ([]domain.Group, error) {
	var items []domain.Group
	err := db.WithContext(ctx).
		Joins("JOIN clients ON clients.id = client_groups.client_id").
		Where("client_groups.status = ? AND clients.status = ?", domain.StatusActive, domain.StatusActive).
		Order("client_groups.group_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func firstClient(stmt *gorm.DB) (*domain.Client, error) {
	var c domain.Client
	if err := stmt.First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
