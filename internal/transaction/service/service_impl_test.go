package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/extraction"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	"github.com/smallbiznis/paysignal/internal/transaction/domain"
	"github.com/smallbiznis/paysignal/internal/transaction/repository"
	"github.com/smallbiznis/paysignal/pkg/db/pagination"
	"github.com/smallbiznis/paysignal/pkg/fieldcrypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T, key string) (domain.Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Transaction{}))

	return newService(t, db, key), db
}

func newService(t *testing.T, db *gorm.DB, key string) domain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cipher, err := fieldcrypt.New(key)
	require.NoError(t, err)

	return New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)),
		Cipher: cipher,
		Repo:   repository.Provide(),
	})
}

func tx(groupID, date, amount, payer string) extraction.Transaction {
	ts, _ := time.Parse(extraction.DateLayout, date)
	return extraction.Transaction{
		Date:      date,
		Timestamp: ts.Add(10 * time.Hour),
		Amount:    decimal.RequireFromString(amount),
		Payer:     payer,
		Type:      extraction.TypeIncome,
		Source:    "KB Prasac Merchant Payment",
		GroupID:   groupID,
	}
}

func TestAppendEncryptsSensitiveFields(t *testing.T) {
	svc, db := setupService(t, "secret")
	ctx := context.Background()

	id, err := svc.Append(ctx, tx("group-1", "2025-06-14", "15.50", "JOHN DOE"))
	require.NoError(t, err)
	require.NotZero(t, id)

	var stored domain.Transaction
	require.NoError(t, db.First(&stored, "id = ?", id).Error)
	assert.NotContains(t, stored.Payer, "JOHN")
	assert.NotEqual(t, "group-1", stored.GroupID)
	assert.Equal(t, securitylog.Hash("group-1"), stored.GroupHash)

	records, err := svc.ListByDate(ctx, "group-1", "2025-06-14")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "JOHN DOE", records[0].Payer)
	assert.Equal(t, "group-1", records[0].GroupID)
	assert.True(t, decimal.RequireFromString("15.50").Equal(records[0].Amount))
	assert.False(t, records[0].Opaque)
}

func TestAppendRejectsIncompleteTransaction(t *testing.T) {
	svc, _ := setupService(t, "secret")
	ctx := context.Background()

	_, err := svc.Append(ctx, tx("", "2025-06-14", "1.00", "A"))
	assert.ErrorIs(t, err, domain.ErrInvalidGroup)

	_, err = svc.Append(ctx, tx("g", "2025-06-14", "1.00", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidTransaction)
}

func TestSummaries(t *testing.T) {
	svc, _ := setupService(t, "secret")
	ctx := context.Background()

	for _, item := range []extraction.Transaction{
		tx("group-1", "2025-06-14", "15.50", "JOHN DOE"),
		tx("group-1", "2025-06-14", "25.75", "Jane Smith"),
		tx("group-1", "2025-06-15", "4.00", "JOHN DOE"),
		tx("group-2", "2025-06-14", "100.00", "Other"),
	} {
		_, err := svc.Append(ctx, item)
		require.NoError(t, err)
	}

	daily, err := svc.DailySummary(ctx, "group-1", "2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, 2, daily.Count)
	assert.Equal(t, "41.25", daily.Total.StringFixed(2))

	empty, err := svc.DailySummary(ctx, "group-1", "2025-06-16")
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.Total.IsZero())

	all, err := svc.AllTimeSummary(ctx, "group-1")
	require.NoError(t, err)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, "45.25", all.Total.StringFixed(2))
	require.Len(t, all.Days, 2)
	assert.Equal(t, "2025-06-14", all.Days[0].Date)
	assert.Equal(t, 2, all.Days[0].Count)
	assert.Equal(t, "4.00", all.Days[1].Total.StringFixed(2))
}

func TestListByDateValidatesInput(t *testing.T) {
	svc, _ := setupService(t, "secret")
	_, err := svc.ListByDate(context.Background(), "group-1", "14/06/2025")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
	_, err = svc.ListByDate(context.Background(), " ", "2025-06-14")
	assert.ErrorIs(t, err, domain.ErrInvalidGroup)
}

func TestUndecryptableRowsStayOpaque(t *testing.T) {
	svc, db := setupService(t, "key-one")
	ctx := context.Background()
	_, err := svc.Append(ctx, tx("group-1", "2025-06-14", "9.99", "JOHN DOE"))
	require.NoError(t, err)

	rotated := newService(t, db, "key-two")
	records, err := rotated.ListByDate(ctx, "group-1", "2025-06-14")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Opaque)
	assert.Equal(t, domain.OpaquePayer, records[0].Payer)
	assert.Equal(t, "9.99", records[0].Amount.StringFixed(2))
}

func TestHistoryPagesNewestFirst(t *testing.T) {
	svc, _ := setupService(t, "history-key")
	ctx := context.Background()

	var ids []string
	for i, payer := range []string{"A", "B", "C", "D", "E"} {
		id, err := svc.Append(ctx, tx("group-1", fmt.Sprintf("2025-06-1%d", i), "1.00", payer))
		require.NoError(t, err)
		ids = append(ids, id.String())
	}
	_, err := svc.Append(ctx, tx("group-2", "2025-06-10", "1.00", "Z"))
	require.NoError(t, err)

	first, err := svc.History(ctx, "group-1", pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	assert.Equal(t, "E", first.Transactions[0].Payer)
	assert.Equal(t, "D", first.Transactions[1].Payer)
	assert.True(t, first.PageInfo.HasMore)

	second, err := svc.History(ctx, "group-1", pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 2)
	assert.Equal(t, "C", second.Transactions[0].Payer)

	last, err := svc.History(ctx, "group-1", pagination.Pagination{PageSize: 2, PageToken: second.PageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, last.Transactions, 1)
	assert.Equal(t, ids[0], last.Transactions[0].ID)
	assert.False(t, last.PageInfo.HasMore)

	_, err = svc.History(ctx, "group-1", pagination.Pagination{PageToken: "garbage!"})
	assert.ErrorIs(t, err, pagination.ErrInvalidPageToken)
}
