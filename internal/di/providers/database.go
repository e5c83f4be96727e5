package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfkeep/library-server/internal/config"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
	log *logger.Logger
}

// Shutdown implements do.ShutdownerWithError.
func (h *StoreHandle) Shutdown() error {
	h.log.Info("Closing database")
	return h.Close()
}

// ProvideStore opens the configured database and applies the schema.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.DSN, log.Logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == config.DriverSQLite {
		log.Info("Database initialized", "driver", cfg.Database.Driver, "path", cfg.Database.DSN)
	} else {
		log.Info("Database initialized", "driver", cfg.Database.Driver)
	}

	return &StoreHandle{Store: st, log: log}, nil
}
