package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

const (
	FeatureBasicPaymentTracking = "basic_payment_tracking"
	FeatureDailyReports         = "daily_reports"
	FeatureWeeklyReports        = "weekly_reports"
	FeatureMultiPaymentSources  = "multi_payment_sources"
	FeatureAllPaymentSources    = "all_payment_sources"
	FeatureUserTracking         = "user_tracking"
	FeatureCustomPatterns       = "custom_patterns"
	FeatureAnalytics            = "analytics"
	FeaturePrioritySupport      = "priority_support"
	FeatureAPIAccess            = "api_access"
	FeatureUnlimitedEverything  = "unlimited_everything"
	FeatureCustomIntegrations   = "custom_integrations"
	FeatureDedicatedSupport     = "dedicated_support"
	FeatureWhiteLabel           = "white_label"
)

type Plan struct {
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	MaxTransactions int             `json:"monthly_transactions"`
	MaxGroups       int             `json:"groups_limit"`
	Features        []string        `json:"features"`
}

var plans = map[string]Plan{
	PlanFree: {
		Name:            PlanFree,
		Price:           decimal.Zero,
		MaxTransactions: 1000,
		MaxGroups:       1,
		Features:        []string{FeatureBasicPaymentTracking, FeatureDailyReports},
	},
	PlanBasic: {
		Name:            PlanBasic,
		Price:           decimal.RequireFromString("4.99"),
		MaxTransactions: 3000,
		MaxGroups:       1,
		Features:        []string{FeatureMultiPaymentSources, FeatureDailyReports, FeatureWeeklyReports, FeatureUserTracking},
	},
	PlanPremium: {
		Name:            PlanPremium,
		Price:           decimal.RequireFromString("9.99"),
		MaxTransactions: 10000,
		MaxGroups:       3,
		Features: []string{
			FeatureAllPaymentSources, FeatureCustomPatterns, FeatureAnalytics,
			FeaturePrioritySupport, FeatureAPIAccess,
		},
	},
	PlanEnterprise: {
		Name:            PlanEnterprise,
		Price:           decimal.RequireFromString("19.99"),
		MaxTransactions: 100000,
		MaxGroups:       10,
		Features: []string{
			FeatureUnlimitedEverything, FeatureCustomIntegrations,
			FeatureDedicatedSupport, FeatureWhiteLabel,
		},
	},
}

func LookupPlan(name string) (Plan, bool) {
	p, ok := plans[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Plans returns every plan ordered by price.
func Plans() []Plan {
	return []Plan{plans[PlanFree], plans[PlanBasic], plans[PlanPremium], plans[PlanEnterprise]}
}
