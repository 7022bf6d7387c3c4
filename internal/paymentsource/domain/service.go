package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/paysignal/internal/validation"
)

// Service resolves and mutates the payment source of a group.
type Service interface {
	GetActiveSource(ctx context.Context, groupID string) (PaymentSourceConfig, error)
	GetSettings(ctx context.Context, groupID string) (*TenantPaymentSettings, error)
	SetActiveSource(ctx context.Context, groupID, key string) (bool, error)
	SetCustomSource(ctx context.Context, groupID string, req CustomSourceRequest) (validation.Result, error)
	SetEnabled(ctx context.Context, groupID string, enabled bool) error
	ListSources() []PaymentSourceConfig
}

type CustomSourceRequest struct {
	AmountPattern string `json:"amount_pattern"`
	PayerPattern  string `json:"payer_pattern"`
	Identifier    string `json:"identifier"`
}

// TenantPaymentSettings is the resolved view of Settings. Groups that were
// never configured get the defaults without a row being written.
type TenantPaymentSettings struct {
	GroupID         string               `json:"group_id"`
	PaymentSource   string               `json:"payment_source"`
	CustomSource    *PaymentSourceConfig `json:"custom_source,omitempty"`
	Enabled         bool                 `json:"enabled"`
	AdminOnlyConfig bool                 `json:"admin_only_config"`
	UpdatedAt       *time.Time           `json:"updated_at,omitempty"`
}

var (
	ErrInvalidGroup      = errors.New("invalid_group_id")
	ErrInvalidIdentifier = errors.New("invalid_identifier")
	ErrCorruptSettings   = errors.New("corrupt_payment_settings")
)
