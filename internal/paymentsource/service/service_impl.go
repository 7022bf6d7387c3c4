package service

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/pattern"
	"github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	"github.com/smallbiznis/paysignal/internal/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentsource.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) GetActiveSource(ctx context.Context, groupID string) (domain.PaymentSourceConfig, error) {
	settings, err := s.GetSettings(ctx, groupID)
	if err != nil {
		return domain.PaymentSourceConfig{}, err
	}

	if settings.PaymentSource == domain.CustomKey && settings.CustomSource != nil {
		return *settings.CustomSource, nil
	}
	if src, ok := domain.Builtin(settings.PaymentSource); ok {
		return src, nil
	}
	return domain.DefaultSource(), nil
}

func (s *Service) GetSettings(ctx context.Context, groupID string) (*domain.TenantPaymentSettings, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, domain.ErrInvalidGroup
	}

	record, err := s.repo.FindByGroupID(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return defaultSettings(groupID), nil
	}
	return toSettings(record)
}

// SetActiveSource switches a group to a built-in source, or back to its stored
// custom source. Unknown keys leave
// the settings untouched and report false.
func (s *Service) SetActiveSource(ctx context.Context, groupID, key string) (bool, error) {
	key = normalizeKey(key)
	if key == domain.CustomKey {
		settings, err := s.GetSettings(ctx, groupID)
		if err != nil {
			return false, err
		}
		if settings.CustomSource == nil {
			return false, nil
		}
	} else if _, ok := domain.Builtin(key); !ok {
		return false, nil
	}

	err := s.mutate(ctx, groupID, func(rec *domain.Settings) {
		rec.PaymentSource = key
	})
	if err != nil {
		return false, err
	}
	s.log.Info("payment source changed", zap.String("group_id", groupID), zap.String("source", key))
	return true, nil
}

// SetCustomSource stores and activates a tenant-authored source. Both
// patterns go through the pattern validator first; rejected patterns are
// reported in the result and nothing is written.
func (s *Service) SetCustomSource(ctx context.Context, groupID string, req domain.CustomSourceRequest) (validation.Result, error) {
	res := validation.New()

	identifier := strings.TrimSpace(req.Identifier)
	switch {
	case identifier == "":
		res.AddError("Identifier is required")
	case utf8.RuneCountInString(identifier) > domain.MaxIdentifierLength:
		res.AddError("Identifier too long (max %d chars)", domain.MaxIdentifierLength)
	}
	res.Merge("Amount pattern", pattern.Validate(req.AmountPattern, pattern.KindAmount).Result)
	res.Merge("Payer pattern", pattern.Validate(req.PayerPattern, pattern.KindPayer).Result)
	if !res.OK() {
		return res, nil
	}

	custom := domain.PaymentSourceConfig{
		Key:           domain.CustomKey,
		DisplayName:   domain.CustomDisplayName,
		Identifier:    identifier,
		AmountPattern: req.AmountPattern,
		PayerPattern:  req.PayerPattern,
		Description:   domain.CustomDescription,
	}
	raw, err := json.Marshal(custom)
	if err != nil {
		return res, err
	}

	err = s.mutate(ctx, groupID, func(rec *domain.Settings) {
		rec.PaymentSource = domain.CustomKey
		rec.CustomSource = datatypes.JSON(raw)
	})
	if err != nil {
		return res, err
	}
	s.log.Info("custom payment source stored", zap.String("group_id", groupID), zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (s *Service) SetEnabled(ctx context.Context, groupID string, enabled bool) error {
	return s.mutate(ctx, groupID, func(rec *domain.Settings) {
		rec.Enabled = enabled
	})
}

func (s *Service) ListSources() []domain.PaymentSourceConfig {
	return domain.Builtins()
}

func (s *Service) mutate(ctx context.Context, groupID string, apply func(*domain.Settings)) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return domain.ErrInvalidGroup
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindByGroupID(ctx, tx, groupID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if record == nil {
			record = &domain.Settings{
				GroupID:         groupID,
				PaymentSource:   domain.DefaultKey,
				Enabled:         true,
				AdminOnlyConfig: true,
				CreatedAt:       now,
			}
		}
		apply(record)
		record.UpdatedAt = now
		return s.repo.Upsert(ctx, tx, record)
	})
}

func defaultSettings(groupID string) *domain.TenantPaymentSettings {
	return &domain.TenantPaymentSettings{
		GroupID:         groupID,
		PaymentSource:   domain.DefaultKey,
		Enabled:         true,
		AdminOnlyConfig: true,
	}
}

func toSettings(rec *domain.Settings) (*domain.TenantPaymentSettings, error) {
	out := &domain.TenantPaymentSettings{
		GroupID:         rec.GroupID,
		PaymentSource:   rec.PaymentSource,
		Enabled:         rec.Enabled,
		AdminOnlyConfig: rec.AdminOnlyConfig,
	}
	if !rec.UpdatedAt.IsZero() {
		updated := rec.UpdatedAt.UTC()
		out.UpdatedAt = &updated
	}
	if len(rec.CustomSource) > 0 && string(rec.CustomSource) != "null" {
		var custom domain.PaymentSourceConfig
		if err := json.Unmarshal(rec.CustomSource, &custom); err != nil {
			return nil, domain.ErrCorruptSettings
		}
		out.CustomSource = &custom
	}
	return out, nil
}

// normalizeKey maps "ABA Bank", "aba-bank" and "aba_bank" to the same key.
func normalizeKey(key string) string {
	return strings.ReplaceAll(slug.Make(key), "-", "_")
}
