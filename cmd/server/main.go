package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/member-search-service/internal/config"
	"github.com/maxviazov/member-search-service/internal/handler"
	"github.com/maxviazov/member-search-service/internal/logger"
	"github.com/maxviazov/member-search-service/internal/query"
	"github.com/maxviazov/member-search-service/internal/repository"
	"github.com/maxviazov/member-search-service/internal/repository/postgres"
	"github.com/maxviazov/member-search-service/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load application config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(ctx, cfg, &appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Postgres connection failed")
	}
	defer repo.Close()

	if cfg.Postgres.AutoMigrate {
		if err := repo.Migrate(ctx, appLogger); err != nil {
			appLogger.Fatal().Err(err).Msg("❌ Migrations failed")
		}
	}

	policy, err := query.ParseCountPolicy(cfg.Query.CountPolicy)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Invalid query config")
	}
	opts := postgres.SearchOptions{
		CountPolicy: policy,
		Concurrent:  cfg.Query.ConcurrentCount,
		Snapshot:    cfg.Query.SnapshotReads,
	}
	limits := service.PageLimits{Default: cfg.Query.DefaultPageSize, Max: cfg.Query.MaxPageSize}

	pool := repo.Pool()
	teams := postgres.NewTeamRepository(pool)
	members := postgres.NewMemberRepository(pool, opts, appLogger)
	items := postgres.NewItemRepository(pool, opts, appLogger)
	orders := postgres.NewOrderRepository(pool, opts, appLogger)

	svcs := handler.Services{
		Teams:   service.NewTeamService(teams, appLogger),
		Members: service.NewMemberService(members, teams, limits, appLogger),
		Items:   service.NewItemService(items, limits, appLogger),
		Orders:  service.NewOrderService(postgres.NewTxManager(pool), orders, members, items, limits, appLogger),
	}

	if cfg.App.Env == "prod" || cfg.App.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		handler.RequestID(),
		handler.RequestLogger(appLogger),
		handler.Timeout(time.Duration(cfg.App.RequestTimeout)*time.Second),
	)
	if len(cfg.App.CORSOrigins) > 0 {
		r.Use(handler.CORS(cfg.App.CORSOrigins))
	}
	handler.Register(r, postgres.NewPinger(pool), svcs, handler.Paging{DefaultSize: cfg.Query.DefaultPageSize})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("count_policy", string(policy)).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		appLogger.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
	appLogger.Info().Msg("service stopped")
}
