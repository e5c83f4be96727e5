// Package di wires the library server together with samber/do.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfkeep/library-server/internal/config"
	"github.com/shelfkeep/library-server/internal/di/providers"
	"github.com/shelfkeep/library-server/internal/logger"
	"github.com/shelfkeep/library-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideCopyService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideLoanService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap resolves every provider so startup failures surface before the
// process starts waiting for signals.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.CopyService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.LoanService](injector)

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
