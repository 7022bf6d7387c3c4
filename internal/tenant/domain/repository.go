package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateClient(ctx context.Context, db *gorm.DB, client *Client) error
	FindClientByID(ctx context.Context, db *gorm.DB, id string) (*Client, error)
	FindClientByKeyHash(ctx context.Context, db *gorm.DB, hash string) (*Client, error)
	UpdatePlan(ctx context.Context, db *gorm.DB, id, plan string, now time.Time) error
	ResetUsage(ctx context.Context, db *gorm.DB, id string, resetAt, now time.Time) error
	IncrementUsage(ctx context.Context, db *gorm.DB, id string, n int, now time.Time) error

	CreateGroup(ctx context.Context, db *gorm.DB, group *Group) error
	FindGroup(ctx context.Context, db *gorm.DB, groupID string) (*Group, error)
	CountGroups(ctx context.Context, db *gorm.DB, clientID string) (int64, error)
	ListActiveGroups(ctx context.Context, db *gorm.DB) ([]Group, error)
}
