package router

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/container"
	cacheinfra "github.com/oksasatya/go-library-management/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/go-library-management/internal/infrastructure/postgres"
	"github.com/oksasatya/go-library-management/internal/infrastructure/search"
	"github.com/oksasatya/go-library-management/internal/infrastructure/storage"
	handlers "github.com/oksasatya/go-library-management/internal/interface/http"
	"github.com/oksasatya/go-library-management/internal/interface/middleware"
	"github.com/oksasatya/go-library-management/internal/router/modules"
	"github.com/oksasatya/go-library-management/pkg/helpers"
	mailtpl "github.com/oksasatya/go-library-management/pkg/mailer/templates"
)

// Deps is every service and handler the modules need, built once from the
// container.
type Deps struct {
	Auth    *application.AuthService
	Authors *application.AuthorService
	Books   *application.BookService
	Loans   *application.LoanService
	Users   *application.UserService

	AuthHandler   *handlers.AuthHandler
	AuthorHandler *handlers.AuthorHandler
	BookHandler   *handlers.BookHandler
	LoanHandler   *handlers.LoanHandler
	UserHandler   *handlers.UserHandler
	HealthHandler *handlers.HealthHandler
}

// optional adapters stay untyped nil when their client is missing so the
// services' nil checks see them as disabled
func bookCache() application.BookCache {
	rdb := container.GetRedis()
	if rdb == nil {
		return nil
	}
	return cacheinfra.NewBookCache(rdb, container.GetConfig().BookCacheTTL)
}

func bookIndex() application.BookIndex {
	es := container.GetES()
	if es == nil || !container.GetConfig().SearchEnabled {
		return nil
	}
	return search.NewBookIndex(es, container.GetConfig().ESBooksIndex)
}

func coverUploader() application.CoverUploader {
	gcs := container.GetGCS()
	if gcs == nil || container.GetConfig().GCSBucket == "" {
		return nil
	}
	return storage.NewCoverStore(gcs, container.GetConfig().GCSBucket)
}

func notifier() *application.Notifier {
	cfg := container.GetConfig()
	pub := container.GetRabbitPub()
	if pub == nil || !cfg.MailSendEnabled {
		return nil
	}
	return application.NewNotifier(pub, mailtpl.Branding{
		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}, container.GetLogger())
}

func healthChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return pginfra.Ping(ctx, pool) }
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	authorRepo := pginfra.NewAuthorRepository(pool)
	bookRepo := pginfra.NewBookRepository(pool)
	loanRepo := pginfra.NewLoanRepository(pool)
	tx := pginfra.NewTxManager(pool)

	hasher := helpers.BcryptHasher{}
	cache := bookCache()
	index := bookIndex()
	mail := notifier()

	auth := application.NewAuthService(userRepo, container.GetJWT(), hasher, container.GetRedis(), logger, cfg.SessionTTL)
	authors := application.NewAuthorService(authorRepo, bookRepo, loanRepo, tx, cache, index, logger)
	books := application.NewBookService(bookRepo, authorRepo, cache, index, coverUploader(), logger)
	loans := application.NewLoanService(loanRepo, bookRepo, userRepo, tx, cache, mail, logger)
	users := application.NewUserService(userRepo, loanRepo, tx, hasher, mail, auth, logger)

	return Deps{
		Auth:    auth,
		Authors: authors,
		Books:   books,
		Loans:   loans,
		Users:   users,

		AuthHandler:   handlers.NewAuthHandler(auth, logger, cfg.CookieDomain, cfg.CookieSecure),
		AuthorHandler: handlers.NewAuthorHandler(authors, logger),
		BookHandler:   handlers.NewBookHandler(books, logger),
		LoanHandler:   handlers.NewLoanHandler(loans, logger),
		UserHandler:   handlers.NewUserHandler(users, logger),
		HealthHandler: handlers.NewHealthHandler(healthChecks()),
	}
}

// InitModules builds the dependency graph from the container and registers
// every feature module together with the /api middlewares.
// Call once during startup, after the container is populated.
func InitModules(r *Registry) {
	deps := buildDeps()
	rdb := container.GetRedis()

	r.Use(
		middleware.RealIP(),
		middleware.Principal(rdb, container.GetJWT()),
		middleware.CSRF(),
	)
	if container.GetConfig().HTTPLogEnabled {
		r.Use(middleware.AccessLog(container.GetLogger()))
	}

	r.Add(
		modules.NewHealthModule(deps.HealthHandler),
		modules.NewAuthModule(deps.AuthHandler, rdb),
		modules.NewUserModule(deps.UserHandler, rdb),
		modules.NewCatalogModule(deps.AuthorHandler, deps.BookHandler, rdb),
		modules.NewLoanModule(deps.LoanHandler, rdb),
		modules.NewEmailModule(deps.LoanHandler, rdb),
	)
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
}
