package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/google/uuid"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/sanitize"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	"github.com/smallbiznis/paysignal/internal/tenant/domain"
	"github.com/smallbiznis/paysignal/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UsagePeriod is how long a monthly quota window lasts.
const UsagePeriod = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Enforcer *casbin.SyncedEnforcer
	Repo     domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	enforcer *casbin.SyncedEnforcer
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("tenant.service"),
		clock:    p.Clock,
		enforcer: p.Enforcer,
		repo:     p.Repo,
	}
}

func (s *Service) CreateClient(ctx context.Context, req domain.CreateClientRequest) (*domain.CreateClientResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.ErrInvalidEmail
	}
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		return nil, domain.ErrInvalidCompany
	}
	planName := strings.TrimSpace(req.Plan)
	if planName == "" {
		planName = domain.PlanFree
	}
	plan, ok := domain.LookupPlan(planName)
	if !ok {
		return nil, domain.ErrInvalidPlan
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	now := s.clock.Now()
	client := &domain.Client{
		ID:           uuid.NewString(),
		Email:        email,
		CompanyName:  company,
		Plan:         plan.Name,
		APIKeyHash:   securitylog.Hash(apiKey),
		Status:       domain.StatusActive,
		UsageResetAt: now.Add(UsagePeriod),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateClient(ctx, s.db, client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("client created",
		zap.String("client_id", client.ID),
		zap.String("plan", client.Plan),
		zap.String("api_key", securitylog.MaskSecret(apiKey)),
	)
	return &domain.CreateClientResponse{
		ClientID: client.ID,
		APIKey:   apiKey,
		Plan:     client.Plan,
		Status:   client.Status,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, apiKey string) (*domain.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if !strings.HasPrefix(apiKey, domain.APIKeyPrefix) {
		return nil, domain.ErrUnauthorized
	}
	client, err := s.repo.FindClientByKeyHash(ctx, s.db, securitylog.Hash(apiKey))
	if err != nil {
		return nil, err
	}
	if client == nil || client.Status != domain.StatusActive {
		return nil, domain.ErrUnauthorized
	}
	return client, nil
}

func (s *Service) AddGroup(ctx context.Context, clientID string, req domain.AddGroupRequest) (*domain.Group, error) {
	groupID := strings.TrimSpace(req.GroupID)
	// Stored ids must survive sanitize.TenantID unchanged or the group
	// could never be addressed afterwards.
	if clean := sanitize.TenantID(groupID); groupID == "" || !clean.OK() || clean.Sanitized != groupID {
		return nil, domain.ErrInvalidGroup
	}

	var group *domain.Group
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := s.repo.FindClientByID(ctx, tx, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrNotFound
		}
		plan, ok := domain.LookupPlan(client.Plan)
		if !ok {
			return domain.ErrInvalidPlan
		}

		existing, err := s.repo.FindGroup(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrGroupTaken
		}

		count, err := s.repo.CountGroups(ctx, tx, client.ID)
		if err != nil {
			return err
		}
		if plan.MaxGroups >= 0 && count >= int64(plan.MaxGroups) {
			return domain.ErrGroupLimit
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = groupID
		}
		group = &domain.Group{
			GroupID:  groupID,
			ClientID: client.ID,
			Name:     name,
			Status:   domain.StatusActive,
			AddedAt:  s.clock.Now(),
		}
		if err := s.repo.CreateGroup(ctx, tx, group); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrGroupTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Service) GroupOwner(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := s.repo.FindGroup(ctx, s.db, strings.TrimSpace(groupID))
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.ErrNotFound
	}
	return group, nil
}

func (s *Service) ListActiveGroups(ctx context.Context) ([]domain.Group, error) {
	return s.repo.ListActiveGroups(ctx, s.db)
}

// Authorize resolves the owning client of a group and checks its quota. The
// monthly counter is reset first when its window has elapsed.
func (s *Service) Authorize(ctx context.Context, groupID string) (domain.Decision, error) {
	group, err := s.repo.FindGroup(ctx, s.db, strings.TrimSpace(groupID))
	if err != nil {
		return domain.Decision{}, err
	}
	if group == nil || group.Status != domain.StatusActive {
		return domain.Decision{Reason: domain.ReasonGroupNotRegistered}, nil
	}

	client, err := s.repo.FindClientByID(ctx, s.db, group.ClientID)
	if err != nil {
		return domain.Decision{}, err
	}
	if client == nil {
		return domain.Decision{Reason: domain.ReasonClientNotFound}, nil
	}
	decision := domain.Decision{ClientID: client.ID, Plan: client.Plan}
	if client.Status != domain.StatusActive {
		decision.Reason = domain.ReasonClientInactive
		return decision, nil
	}

	now := s.clock.Now()
	if !now.Before(client.UsageResetAt) {
		if err := s.repo.ResetUsage(ctx, s.db, client.ID, now.Add(UsagePeriod), now); err != nil {
			return domain.Decision{}, err
		}
		client.MonthlyTransactions = 0
		s.log.Info("monthly usage reset", zap.String("client_id", client.ID))
	}

	plan, ok := domain.LookupPlan(client.Plan)
	if !ok {
		return domain.Decision{}, domain.ErrInvalidPlan
	}
	if client.MonthlyTransactions >= plan.MaxTransactions {
		decision.Reason = domain.ReasonLimitExceeded
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = plan.MaxTransactions - client.MonthlyTransactions
	return decision, nil
}

func (s *Service) IncrementUsage(ctx context.Context, clientID string) error {
	err := s.repo.IncrementUsage(ctx, s.db, clientID, 1, s.clock.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

func (s *Service) UpgradePlan(ctx context.Context, clientID, plan string) error {
	p, ok := domain.LookupPlan(plan)
	if !ok {
		return domain.ErrInvalidPlan
	}
	client, err := s.repo.FindClientByID(ctx, s.db, clientID)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.UpdatePlan(ctx, s.db, client.ID, p.Name, s.clock.Now()); err != nil {
		return err
	}
	s.log.Info("plan changed", zap.String("client_id", client.ID), zap.String("from", client.Plan), zap.String("to", p.Name))
	return nil
}

func (s *Service) HasFeature(ctx context.Context, clientID, feature string) (bool, error) {
	client, err := s.repo.FindClientByID(ctx, s.db, clientID)
	if err != nil {
		return false, err
	}
	if client == nil {
		return false, domain.ErrNotFound
	}
	return s.enforcer.Enforce(planSubject(client.Plan), strings.TrimSpace(feature))
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return domain.APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
