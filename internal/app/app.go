package app

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"supplymarket_api/config"
	"supplymarket_api/internal/accounts"
	"supplymarket_api/internal/app/web"
	"supplymarket_api/internal/app/web/handlers"
	"supplymarket_api/internal/catalog"
	"supplymarket_api/internal/core"
	"supplymarket_api/internal/dashboard"
	"supplymarket_api/internal/directory"
	"supplymarket_api/internal/orders"
	"supplymarket_api/internal/pricing"
	"supplymarket_api/internal/search"
	"supplymarket_api/internal/storage"
	"supplymarket_api/internal/tins"
	"supplymarket_api/migrations/infrastructure"
	"supplymarket_api/pkg/dbconnect"
	"supplymarket_api/pkg/dbconnect/migration"
	"supplymarket_api/pkg/dbconnect/postgres"
	"supplymarket_api/pkg/logger"
)

// App is the assembled marketplace: storage, services and the HTTP router.
type App struct {
	Repository *storage.Repository
	Accounts   *accounts.Service
	Catalog    *catalog.Service
	Importer   *catalog.Importer
	Orders     *orders.Service
	Dashboard  *dashboard.Service
	TINs       *tins.Service
	Directory  *directory.Service
	Router     http.Handler

	db dbconnect.DbConnector
}

// Build wires the application from cfg. With the postgres driver it connects,
// applies migrations and puts the store behind a circuit breaker.
func Build(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{}

	kv, err := a.openKV(cfg)
	if err != nil {
		return nil, err
	}
	repo, err := storage.Open(ctx, kv)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open repository: %w", err)
	}
	a.Repository = repo

	if cfg.Storage.Seed {
		if err := core.SeedDemo(ctx, repo, bcrypt.DefaultCost); err != nil {
			a.Close()
			return nil, err
		}
	}

	engine := pricing.NewEngine(cfg.Pricing)
	ranker := search.NewRanker(engine)

	a.Accounts = accounts.NewService(repo, accounts.LockoutPolicy{
		MaxAttempts:  cfg.Auth.MaxLoginAttempts,
		LockDuration: cfg.Auth.LockDuration,
	}, logger.NewLogger(nil, "accounts"))
	a.Catalog = catalog.NewService(repo, ranker, logger.NewLogger(nil, "catalog"))
	a.Importer = catalog.NewImporter(a.Catalog, catalog.NewHTTPFetcher(), logger.NewLogger(nil, "importer"))
	a.Orders = orders.NewService(repo, engine, logger.NewLogger(nil, "orders"))
	a.Dashboard = dashboard.NewService(repo)
	a.TINs = tins.NewService(repo, logger.NewLogger(nil, "tins"))
	a.Directory = directory.NewService(repo, engine)

	repo.Subscribe(func(e storage.Event) {
		log.WithFields(log.Fields{
			"collection": e.Collection,
			"kind":       e.Kind,
			"id":         e.ID,
		}).Debug("Store updated")
	})

	a.Router = web.SetupRoutes(web.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Log:       logger.NewLogger(nil, "http"),
	}, web.Handlers{
		Users:     handlers.NewUserHandler(a.Accounts, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		Offers:    handlers.NewOfferHandler(a.Catalog, a.Importer),
		Orders:    handlers.NewOrderHandler(a.Orders),
		Dashboard: handlers.NewDashboardHandler(a.Dashboard),
		TINs:      handlers.NewTINHandler(a.TINs),
		Directory: handlers.NewDirectoryHandler(a.Directory),
	})
	return a, nil
}

func (a *App) openKV(cfg *config.AppConfig) (storage.KeyValue, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Info("Using in-memory storage")
		return storage.NewMemoryKV(), nil
	}

	connector := postgres.NewPgConnector(&cfg.Postgres)
	db, err := connector.Connect()
	if err != nil {
		return nil, err
	}
	a.db = connector

	if err := migration.Apply(db, infrastructure.All()...); err != nil {
		a.Close()
		return nil, err
	}
	log.Info("Marketplace migrations applied successfully")

	return storage.NewBreakerKV(storage.NewPostgresKV(db, cfg.Storage.Schema, cfg.Storage.Table), "postgres-kv"), nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
