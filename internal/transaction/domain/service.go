package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paysignal/internal/extraction"
	"github.com/smallbiznis/paysignal/pkg/db/pagination"
)

// Service owns encryption at rest: callers hand in clear records and get
// clear records back.
type Service interface {
	Append(ctx context.Context, tx extraction.Transaction) (snowflake.ID, error)
	ListByDate(ctx context.Context, groupID, date string) ([]Record, error)
	DailySummary(ctx context.Context, groupID, date string) (*DailySummary, error)
	AllTimeSummary(ctx context.Context, groupID string) (*AllTimeSummary, error)
	History(ctx context.Context, groupID string, page pagination.Pagination) (*HistoryPage, error)
}

// Record is a decrypted Transaction. Opaque is set when the stored fields
// could not be decrypted; Payer then holds a placeholder.
type Record struct {
	ID        string          `json:"id"`
	Date      string          `json:"date"`
	Timestamp time.Time       `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Payer     string          `json:"payer"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	GroupID   string          `json:"group_id"`
	Opaque    bool            `json:"opaque,omitempty"`
}

type DailySummary struct {
	GroupID      string          `json:"group_id"`
	Date         string          `json:"date"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	Transactions []Record        `json:"transactions"`
}

type DayTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type AllTimeSummary struct {
	GroupID string          `json:"group_id"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Days    []DayTotal      `json:"days"`
}

// HistoryPage is one newest-first slice of a group's transactions.
type HistoryPage struct {
	Transactions []Record            `json:"transactions"`
	PageInfo     pagination.PageInfo `json:"page_info"`
}

const OpaquePayer = "[encrypted]"

var (
	ErrInvalidGroup       = errors.New("invalid_group_id")
	ErrInvalidDate        = errors.New("invalid_date")
	ErrInvalidTransaction = errors.New("invalid_transaction")
)
