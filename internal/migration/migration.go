package migration

import (
	"errors"
	"fmt"

	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"gorm.io/gorm"
)

// Models lists every table paysignal owns, in creation order.
func Models() []any {
	return []any{
		&tenantdomain.Client{},
		&tenantdomain.Group{},
		&psdomain.Settings{},
		&txdomain.Transaction{},
	}
}

// RunMigrations creates or updates the schema on any supported dialect, so a
// fresh sqlite file or an empty postgres database is usable on first start.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}
