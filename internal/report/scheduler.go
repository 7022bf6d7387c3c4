// Package report builds and delivers the daily per-group summaries on a cron
// schedule.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/smallbiznis/paysignal/internal/extraction"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type GroupLister interface {
	ListActiveGroups(ctx context.Context) ([]tenantdomain.Group, error)
}

type Summarizer interface {
	DailySummary(ctx context.Context, groupID, date string) (*txdomain.DailySummary, error)
}

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Clock     clock.Clock
	Groups    GroupLister
	Summaries Summarizer
	Notifier  Notifier
}

type Scheduler struct {
	schedule  string
	loc       *time.Location
	log       *zap.Logger
	clock     clock.Clock
	groups    GroupLister
	summaries Summarizer
	notifier  Notifier
	cron      *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	loc, err := p.Config.Location()
	if err != nil {
		return nil, fmt.Errorf("report timezone: %w", err)
	}
	if _, err := cron.ParseStandard(p.Config.Report.Cron); err != nil {
		return nil, fmt.Errorf("report cron %q: %w", p.Config.Report.Cron, err)
	}
	return &Scheduler{
		schedule:  p.Config.Report.Cron,
		loc:       loc,
		log:       p.Log.Named("report.scheduler"),
		clock:     p.Clock,
		groups:    p.Groups,
		summaries: p.Summaries,
		notifier:  p.Notifier,
	}, nil
}

// Start registers the daily job and starts the cron runner.
func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithLocation(s.loc))
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.RunDaily(ctx); err != nil {
			s.log.Error("daily report run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("daily reports scheduled", zap.String("cron", s.schedule), zap.String("timezone", s.loc.String()))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunDaily reports on the previous calendar day, in the configured
// timezone, for every active group. One group failing does not stop the
// others.
func (s *Scheduler) RunDaily(ctx context.Context) error {
	groups, err := s.groups.ListActiveGroups(ctx)
	if err != nil {
		return err
	}
	date := s.clock.Now().In(s.loc).AddDate(0, 0, -1).Format(extraction.DateLayout)

	var runErr error
	sent := 0
	for _, g := range groups {
		summary, err := s.summaries.DailySummary(ctx, g.GroupID, date)
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("group %s: %w", g.GroupID, err))
			continue
		}
		if err := s.notifier.Notify(ctx, g.GroupID, Render(summary)); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("group %s: %w", g.GroupID, err))
			continue
		}
		sent++
	}
	s.log.Info("daily reports sent", zap.String("date", date), zap.Int("groups", len(groups)), zap.Int("sent", sent))
	return runErr
}
