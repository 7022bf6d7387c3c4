package domain

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Client is a paying account. The API key is only ever stored hashed.
type Client struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)"`
	Email               string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CompanyName         string    `gorm:"type:varchar(255);not null"`
	Plan                string    `gorm:"type:varchar(32);not null"`
	APIKeyHash          string    `gorm:"column:api_key_hash;type:char(64);not null;uniqueIndex"`
	Status              string    `gorm:"type:varchar(16);not null"`
	MonthlyTransactions int       `gorm:"not null;default:0"`
	UsageResetAt        time.Time `gorm:"not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (Client) TableName() string { return "clients" }

// Group binds a chat group to the client that pays for it.
type Group struct {
	GroupID  string    `gorm:"primaryKey;type:varchar(50)"`
	ClientID string    `gorm:"type:varchar(36);not null;index"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Status   string    `gorm:"type:varchar(16);not null"`
	AddedAt  time.Time `gorm:"not null"`
}

func (Group) TableName() string { return "client_groups" }
