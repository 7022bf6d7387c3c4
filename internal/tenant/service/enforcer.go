package service

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/paysignal/internal/tenant/domain"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// NewEnforcer loads plan feature policies from the casbin_rule table and
// seeds the built-in plan features on top. Subjects are "plan:<name>"; the
// enterprise plan's unlimited_everything becomes a wildcard object. Rows added
// by operators survive restarts.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	for _, plan := range domain.Plans() {
		subject := planSubject(plan.Name)
		for _, feature := range plan.Features {
			obj := feature
			if feature == domain.FeatureUnlimitedEverything {
				obj = "*"
			}
			if _, err := enforcer.AddPolicy(subject, obj); err != nil {
				return err
			}
		}
	}
	return nil
}

func planSubject(plan string) string {
	return "plan:" + plan
}
