// Package ingest runs the payment notification pipeline: rate limiting,
// sanitizing, source resolution, pattern vetting, extraction, authorization
// and storage. It also hosts the pattern tester used while authoring custom
// sources.
package ingest

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paysignal/internal/extraction"
	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
)

type Status string

const (
	StatusStored       Status = "stored"
	StatusNoMatch      Status = "no_match"
	StatusRejected     Status = "rejected"
	StatusRateLimited  Status = "rate_limited"
	StatusUnauthorized Status = "unauthorized"
	StatusDisabled     Status = "disabled"
)

// Result describes what happened to one message. Only StatusStored carries
// a Transaction.
type Result struct {
	Status        Status                  `json:"status"`
	TransactionID string                  `json:"transaction_id,omitempty"`
	Transaction   *extraction.Transaction `json:"transaction,omitempty"`
	Reason        extraction.Reason       `json:"reason,omitempty"`
	Errors        []string                `json:"errors"`
	Warnings      []string                `json:"warnings"`
	RetryAfter    time.Duration           `json:"-"`
}

type TestRequest struct {
	Message       string `json:"message"`
	AmountPattern string `json:"amount_pattern"`
	PayerPattern  string `json:"payer_pattern"`
	// RateKey scopes the tester's rate limit; empty means the shared key.
	RateKey string `json:"-"`
}

type TestResult struct {
	AmountMatch *decimal.Decimal `json:"amount_match"`
	PayerMatch  *string          `json:"payer_match"`
	Success     bool             `json:"success"`
	Errors      []string         `json:"errors"`
	Warnings    []string         `json:"warnings"`
}

// SourceResolver is the settings collaborator.
type SourceResolver interface {
	GetSettings(ctx context.Context, groupID string) (*psdomain.TenantPaymentSettings, error)
	GetActiveSource(ctx context.Context, groupID string) (psdomain.PaymentSourceConfig, error)
}

// Store is the storage collaborator.
type Store interface {
	Append(ctx context.Context, tx extraction.Transaction) (snowflake.ID, error)
}

// Authorizer is the usage/authorization collaborator.
type Authorizer interface {
	Authorize(ctx context.Context, groupID string) (tenantdomain.Decision, error)
	IncrementUsage(ctx context.Context, clientID string) error
}
