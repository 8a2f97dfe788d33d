package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parkgate/internal/clock"
	"parkgate/internal/config"
	httpserver "parkgate/internal/http"
	"parkgate/internal/http/handlers"
	"parkgate/internal/mirror"
	"parkgate/internal/repository"
	"parkgate/internal/service"
	libdb "parkgate/libs/db"
	libredis "parkgate/libs/redis"
	"parkgate/migrations"
)

const migrateTimeout = 30 * time.Second

// App wires parkgate dependencies.
type App struct {
	server       *httpserver.Server
	sessions     *service.SessionService
	synchronizer *service.Synchronizer
	doors        *service.DoorService
	db           *sql.DB
	redisClient  *redis.Client
	logger       *zap.Logger
}

// New constructs the application graph and applies pending migrations.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := migrations.Apply(migrateCtx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		sqlDB.Close()
		redisClient.Close()
		return nil, fmt.Errorf("facility timezone: %w", err)
	}

	ledger := repository.NewLedger(sqlDB, cfg.Database.TxTimeout)
	mirrorAdapter := mirror.NewAdapter(redisClient)
	prices := service.NewPriceService(ledger, cfg.Pricing.DefaultRatePerHour)
	clk := clock.NewSystem()

	sessions := service.NewSessionService(ledger, mirrorAdapter, prices, clk, logger,
		service.WithPaymentMethod(cfg.Payments.DefaultMethod),
		service.WithMirrorWriteBudget(cfg.Mirror.WriteBudget),
	)
	synchronizer := service.NewSynchronizer(ledger, mirrorAdapter, clk, loc, logger)
	doors := service.NewDoorService(cfg.DoorNames(), mirrorAdapter, logger)

	scanHandler := handlers.NewScanHandler(sessions, logger)
	ledgerHandler := handlers.NewLedgerHandler(ledger, logger)
	mirrorHandler := handlers.NewMirrorHandler(synchronizer, logger)
	doorHandler := handlers.NewDoorHandler(doors, logger)

	routes := httpserver.Routes{
		Scan:         scanHandler.HandleScan,
		SessionClose: scanHandler.HandleClose,
		SessionsOpen: ledgerHandler.HandleOpenSessions,
		Transactions: ledgerHandler.HandleTransactions,
		MirrorResync: mirrorHandler.HandleResync,
		DoorToggle:   doorHandler.HandleToggle,
		DoorStatuses: doorHandler.HandleStatuses,
		Health:       handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:       server,
		sessions:     sessions,
		synchronizer: synchronizer,
		doors:        doors,
		db:           sqlDB,
		redisClient:  redisClient,
		logger:       logger,
	}, nil
}

// Run reconciles the mirror, initializes door projections, and serves HTTP.
// A failed startup resync is logged, not fatal: the mirror heals on the next
// resync while the ledger keeps serving.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.synchronizer.ResyncMirror(ctx); err != nil {
		a.logger.Warn("startup mirror resync failed", zap.Error(err))
	}
	a.doors.Init(ctx)
	return a.server.Run(ctx)
}

// Close drains queued mirror writes and releases resources.
func (a *App) Close() {
	a.sessions.Wait()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
