package transaction

import (
	"errors"

	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/smallbiznis/paysignal/internal/transaction/repository"
	"github.com/smallbiznis/paysignal/internal/transaction/service"
	"github.com/smallbiznis/paysignal/pkg/fieldcrypt"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("transaction.service",
	fx.Provide(NewCipher),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

// NewCipher builds the field cipher from ENCRYPTION_KEY. Outside production a
// missing key is replaced by a throwaway one, so stored rows do not survive a
// restart in readable form.
func NewCipher(cfg config.Config, log *zap.Logger) (*fieldcrypt.Cipher, error) {
	key := cfg.EncryptionKey
	if key == "" {
		if cfg.IsProduction() {
			return nil, errors.New("ENCRYPTION_KEY is required in production")
		}
		generated, err := fieldcrypt.GenerateKey()
		if err != nil {
			return nil, err
		}
		log.Warn("ENCRYPTION_KEY not set, using an ephemeral key")
		key = generated
	}
	return fieldcrypt.New(key)
}
