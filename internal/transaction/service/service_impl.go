package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/extraction"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	"github.com/smallbiznis/paysignal/internal/transaction/domain"
	"github.com/smallbiznis/paysignal/pkg/db/pagination"
	"github.com/smallbiznis/paysignal/pkg/fieldcrypt"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Cipher *fieldcrypt.Cipher
	Repo   domain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	cipher *fieldcrypt.Cipher
	repo   domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("transaction.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		cipher: p.Cipher,
		repo:   p.Repo,
	}
}

func (s *Service) Append(ctx context.Context, tx extraction.Transaction) (snowflake.ID, error) {
	groupID := strings.TrimSpace(tx.GroupID)
	if groupID == "" {
		return 0, domain.ErrInvalidGroup
	}
	if tx.Date == "" || tx.Payer == "" || !tx.Amount.IsPositive() {
		return 0, domain.ErrInvalidTransaction
	}

	payer, err := s.cipher.Encrypt(tx.Payer)
	if err != nil {
		return 0, fmt.Errorf("encrypt payer: %w", err)
	}
	group, err := s.cipher.Encrypt(groupID)
	if err != nil {
		return 0, fmt.Errorf("encrypt group: %w", err)
	}

	record := &domain.Transaction{
		ID:        s.genID.Generate(),
		GroupHash: securitylog.Hash(groupID),
		Date:      tx.Date,
		Timestamp: tx.Timestamp.UTC(),
		Amount:    tx.Amount.Round(2),
		Payer:     payer,
		GroupID:   group,
		Type:      tx.Type,
		Source:    tx.Source,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (s *Service) ListByDate(ctx context.Context, groupID, date string) ([]domain.Record, error) {
	groupID, date, err := normalizeQuery(groupID, date)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByDate(ctx, s.db, securitylog.Hash(groupID), date)
	if err != nil {
		return nil, err
	}
	return s.decryptAll(groupID, items), nil
}

func (s *Service) DailySummary(ctx context.Context, groupID, date string) (*domain.DailySummary, error) {
	records, err := s.ListByDate(ctx, groupID, date)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return &domain.DailySummary{
		GroupID:      strings.TrimSpace(groupID),
		Date:         strings.TrimSpace(date),
		Total:        total,
		Count:        len(records),
		Transactions: records,
	}, nil
}

func (s *Service) AllTimeSummary(ctx context.Context, groupID string) (*domain.AllTimeSummary, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.ErrInvalidGroup
	}

	items, err := s.repo.ListAll(ctx, s.db, securitylog.Hash(groupID))
	if err != nil {
		return nil, err
	}

	out := &domain.AllTimeSummary{GroupID: groupID, Total: decimal.Zero, Days: []domain.DayTotal{}}
	for _, item := range items {
		out.Total = out.Total.Add(item.Amount)
		out.Count++
		if n := len(out.Days); n > 0 && out.Days[n-1].Date == item.Date {
			out.Days[n-1].Total = out.Days[n-1].Total.Add(item.Amount)
			out.Days[n-1].Count++
			continue
		}
		out.Days = append(out.Days, domain.DayTotal{Date: item.Date, Total: item.Amount, Count: 1})
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, groupID string, page pagination.Pagination) (*domain.HistoryPage, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.ErrInvalidGroup
	}

	var before snowflake.ID
	cursor, err := pagination.DecodeCursor(page.PageToken)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		if before, err = snowflake.ParseString(cursor.ID); err != nil {
			return nil, pagination.ErrInvalidPageToken
		}
	}

	limit := page.Limit()
	items, err := s.repo.ListBefore(ctx, s.db, securitylog.Hash(groupID), before, limit+1)
	if err != nil {
		return nil, err
	}
	records, info, err := pagination.Trim(s.decryptAll(groupID, items), limit, func(r domain.Record) string { return r.ID })
	if err != nil {
		return nil, err
	}
	return &domain.HistoryPage{Transactions: records, PageInfo: info}, nil
}

func (s *Service) decryptAll(groupID string, items []domain.Transaction) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		rec := domain.Record{
			ID:        item.ID.String(),
			Date:      item.Date,
			Timestamp: item.Timestamp.UTC(),
			Amount:    item.Amount,
			Type:      item.Type,
			Source:    item.Source,
			GroupID:   groupID,
		}

		payer, err := s.cipher.Decrypt(item.Payer)
		if err != nil {
			s.log.Warn("transaction fields not decryptable",
				zap.String("transaction_id", rec.ID),
				zap.Error(err),
			)
			rec.Payer = domain.OpaquePayer
			rec.Opaque = true
		} else {
			rec.Payer = payer
		}
		out = append(out, rec)
	}
	return out
}

func normalizeQuery(groupID, date string) (string, string, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return "", "", domain.ErrInvalidGroup
	}
	date = strings.TrimSpace(date)
	if _, err := time.Parse(extraction.DateLayout, date); err != nil {
		return "", "", domain.ErrInvalidDate
	}
	return groupID, date, nil
}
