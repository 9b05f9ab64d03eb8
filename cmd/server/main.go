package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	auditHandler "spendtrail/internal/audit/handler"
	auditService "spendtrail/internal/audit/service"
	auditStore "spendtrail/internal/audit/store"
	authHandler "spendtrail/internal/auth/handler"
	authService "spendtrail/internal/auth/service"
	"spendtrail/internal/auth/store/revocation"
	userStore "spendtrail/internal/auth/store/user"
	expenseHandler "spendtrail/internal/expense/handler"
	expenseService "spendtrail/internal/expense/service"
	expenseStore "spendtrail/internal/expense/store"
	"spendtrail/internal/jwttoken"
	"spendtrail/internal/platform/config"
	"spendtrail/internal/platform/database"
	"spendtrail/internal/platform/httpserver"
	"spendtrail/internal/platform/logger"
	"spendtrail/internal/platform/metrics"
	"spendtrail/internal/platform/middleware"
	platformRedis "spendtrail/internal/platform/redis"
	reportHandler "spendtrail/internal/report/handler"
	reportService "spendtrail/internal/report/service"
)

// main wires stores, services and handlers, then runs the HTTP server until a
// shutdown signal arrives. Business logic lives in the internal packages.
func main() {
	// Best effort: a missing .env is the normal case outside dev.
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Store selection: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		db       *sql.DB
		users    authService.UserStore
		expenses expenseService.Store
		trail    auditService.Store
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		users = userStore.NewPostgres(db)
		expenses = expenseStore.NewPostgres(db)
		trail = auditStore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		users = userStore.NewInMemory()
		expenses = expenseStore.NewInMemory()
		trail = auditStore.NewInMemory()
		log.Info("using in-memory stores; data will not survive restarts")
	}

	// Revocation list: redis when configured, process-local otherwise.
	var trl interface {
		authService.TokenRevocationList
		middleware.TokenRevocationChecker
	}
	redisClient, err := platformRedis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		trl = revocation.NewRedisTRL(redisClient.Client)
		log.Info("using redis token revocation list")
	} else {
		trl = revocation.NewInMemoryTRL()
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "spendtrail")
	validator := jwttoken.NewMiddlewareAdapter(tokens)

	audit := auditService.New(trail,
		auditService.WithLogger(log),
		auditService.WithMetrics(m),
	)
	expenseSvc := expenseService.New(expenses, audit,
		expenseService.WithLogger(log),
		expenseService.WithMetrics(m),
	)
	authSvc := authService.New(users, tokens, trl, audit, cfg.TokenTTL,
		authService.WithLogger(log),
		authService.WithMetrics(m),
	)
	reportSvc := reportService.New(expenseSvc, audit, reportService.WithLogger(log))

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.Latency(m))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authHandler.New(authSvc, log, validator, trl).Register(router)
	expenseHandler.New(expenseSvc, log, validator, trl).Register(router)
	auditHandler.New(audit, log, validator, trl).Register(router)
	reportHandler.New(reportSvc, log, validator, trl).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
