package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/tenant/domain"
	"github.com/smallbiznis/paysignal/internal/tenant/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Client{}, &domain.Group{}))

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clk,
		Enforcer: enforcer,
		Repo:     repository.Provide(),
	})
	return svc, db, clk
}

func createClient(t *testing.T, svc domain.Service, plan string) *domain.CreateClientResponse {
	t.Helper()
	resp, err := svc.CreateClient(context.Background(), domain.CreateClientRequest{
		Email:       uuid.NewString()[:8] + "@example.com",
		CompanyName: "Coffee Corner",
		Plan:        plan,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateClientAndAuthenticate(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	resp := createClient(t, svc, "")
	assert.True(t, strings.HasPrefix(resp.APIKey, domain.APIKeyPrefix))
	assert.Equal(t, domain.PlanFree, resp.Plan)
	assert.Equal(t, domain.StatusActive, resp.Status)

	var stored domain.Client
	require.NoError(t, db.First(&stored, "id = ?", resp.ClientID).Error)
	assert.NotEqual(t, resp.APIKey, stored.APIKeyHash)
	assert.Len(t, stored.APIKeyHash, 64)

	client, err := svc.Authenticate(ctx, resp.APIKey)
	require.NoError(t, err)
	assert.Equal(t, resp.ClientID, client.ID)

	_, err = svc.Authenticate(ctx, resp.APIKey+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "not-a-key")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateClientValidation(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, domain.CreateClientRequest{Email: "nope", CompanyName: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	_, err = svc.CreateClient(ctx, domain.CreateClientRequest{Email: "a@b.co", CompanyName: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidCompany)
	_, err = svc.CreateClient(ctx, domain.CreateClientRequest{Email: "a@b.co", CompanyName: "X", Plan: "platinum"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	_, err = svc.CreateClient(ctx, domain.CreateClientRequest{Email: "dup@b.co", CompanyName: "X"})
	require.NoError(t, err)
	_, err = svc.CreateClient(ctx, domain.CreateClientRequest{Email: "DUP@b.co", CompanyName: "Y"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAddGroupEnforcesPlanLimit(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	resp := createClient(t, svc, domain.PlanFree)

	group, err := svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: "g1", Name: "Shop"})
	require.NoError(t, err)
	assert.Equal(t, "Shop", group.Name)

	_, err = svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: "g2"})
	assert.ErrorIs(t, err, domain.ErrGroupLimit)

	require.NoError(t, svc.UpgradePlan(ctx, resp.ClientID, domain.PlanPremium))
	_, err = svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: "g2"})
	require.NoError(t, err)

	other := createClient(t, svc, domain.PlanPremium)
	_, err = svc.AddGroup(ctx, other.ClientID, domain.AddGroupRequest{GroupID: "g1"})
	assert.ErrorIs(t, err, domain.ErrGroupTaken)

	owner, err := svc.GroupOwner(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, resp.ClientID, owner.ClientID)

	groups, err := svc.ListActiveGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestAddGroupRejectsUnaddressableIDs(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	resp := createClient(t, svc, domain.PlanEnterprise)

	for _, id := range []string{"grp.1", "group 1", "<b>g</b>", strings.Repeat("a", 51)} {
		_, err := svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: id})
		assert.ErrorIs(t, err, domain.ErrInvalidGroup, id)
	}

	group, err := svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: " -100123_ab "})
	require.NoError(t, err)
	assert.Equal(t, "-100123_ab", group.GroupID)
}

func TestAuthorizeQuotaAndReset(t *testing.T) {
	svc, db, clk := setupService(t)
	ctx := context.Background()
	resp := createClient(t, svc, domain.PlanFree)
	_, err := svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: "g1"})
	require.NoError(t, err)

	decision, err := svc.Authorize(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1000, decision.Remaining)

	require.NoError(t, svc.IncrementUsage(ctx, resp.ClientID))
	decision, err = svc.Authorize(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 999, decision.Remaining)

	require.NoError(t, db.Model(&domain.Client{}).Where("id = ?", resp.ClientID).
		Update("monthly_transactions", 1000).Error)
	decision, err = svc.Authorize(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonLimitExceeded, decision.Reason)

	clk.Advance(UsagePeriod)
	decision, err = svc.Authorize(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1000, decision.Remaining)
}

func TestAuthorizeUnknownOrInactive(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	decision, err := svc.Authorize(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonGroupNotRegistered, decision.Reason)

	resp := createClient(t, svc, domain.PlanFree)
	_, err = svc.AddGroup(ctx, resp.ClientID, domain.AddGroupRequest{GroupID: "g1"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Client{}).Where("id = ?", resp.ClientID).
		Update("status", domain.StatusInactive).Error)

	decision, err = svc.Authorize(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonClientInactive, decision.Reason)

	_, err = svc.Authenticate(ctx, resp.APIKey)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHasFeature(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	free := createClient(t, svc, domain.PlanFree)
	premium := createClient(t, svc, domain.PlanPremium)
	enterprise := createClient(t, svc, domain.PlanEnterprise)

	ok, err := svc.HasFeature(ctx, free.ClientID, domain.FeatureCustomPatterns)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasFeature(ctx, free.ClientID, domain.FeatureDailyReports)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasFeature(ctx, premium.ClientID, domain.FeatureCustomPatterns)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasFeature(ctx, enterprise.ClientID, domain.FeatureCustomPatterns)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.HasFeature(ctx, "missing", domain.FeatureAnalytics)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpgradePlanRejectsUnknown(t *testing.T) {
	svc, _, _ := setupService(t)
	resp := createClient(t, svc, domain.PlanFree)
	assert.ErrorIs(t, svc.UpgradePlan(context.Background(), resp.ClientID, "gold"), domain.ErrInvalidPlan)
	assert.ErrorIs(t, svc.UpgradePlan(context.Background(), "missing", domain.PlanBasic), domain.ErrNotFound)
}

func TestEnforcerPersistsPolicies(t *testing.T) {
	_, db, _ := setupService(t)

	first, err := NewEnforcer(db)
	require.NoError(t, err)
	_, err = first.AddPolicy(planSubject(domain.PlanFree), domain.FeatureAnalytics)
	require.NoError(t, err)

	second, err := NewEnforcer(db)
	require.NoError(t, err)
	ok, err := second.Enforce(planSubject(domain.PlanFree), domain.FeatureAnalytics)
	require.NoError(t, err)
	assert.True(t, ok)

	var n int64
	require.NoError(t, db.Table("casbin_rule").Where("v0 = ?", planSubject(domain.PlanFree)).Count(&n).Error)
	assert.EqualValues(t, 3, n)
}
