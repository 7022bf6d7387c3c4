package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// CustomKey selects the tenant's own PaymentSourceConfig.
	CustomKey = "custom"
	// DefaultKey is the source a tenant starts with.
	DefaultKey = "kb_prasac_merchant_payment"

	CustomDisplayName = "Custom Pattern"
	CustomDescription = "User-defined custom pattern"

	MaxIdentifierLength = 100
)

// PaymentSourceConfig describes the notification shape of one provider.
// AmountPattern and PayerPattern each hold exactly one capture group.
type PaymentSourceConfig struct {
	Key           string `json:"key"`
	DisplayName   string `json:"display_name"`
	Identifier    string `json:"identifier"`
	AmountPattern string `json:"amount_pattern"`
	PayerPattern  string `json:"payer_pattern"`
	Description   string `json:"description"`
}

// Settings is the persisted per-group configuration.
type Settings struct {
	GroupID         string         `gorm:"primaryKey;type:text"`
	PaymentSource   string         `gorm:"type:text;not null"`
	CustomSource    datatypes.JSON `gorm:"type:json"`
	Enabled         bool           `gorm:"not null"`
	AdminOnlyConfig bool           `gorm:"not null"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

func (Settings) TableName() string { return "payment_settings" }
