package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	accounthandler "atrium/internal/account/handler"
	"atrium/internal/account/service"
	"atrium/internal/account/store"
	"atrium/internal/audit"
	"atrium/internal/auth"
	"atrium/internal/platform/config"
	"atrium/internal/platform/httpserver"
	"atrium/internal/platform/logger"
	"atrium/internal/platform/metrics"
	"atrium/internal/platform/middleware"
	"atrium/internal/platform/postgres"
	"atrium/internal/platform/redis"
	"atrium/internal/platform/router"
)

const tokenIssuer = "atrium"

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in internal/account; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		accounts   service.Store
		auditStore audit.Store
		checks     []router.HealthCheck
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		accounts = store.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		checks = append(checks, router.HealthCheck{Name: "postgres", Check: db.PingContext})
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores; data will not survive restarts")
		accounts = store.NewInMemory()
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks = append(checks, router.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	g, ctx := errgroup.WithContext(ctx)

	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()

		inbox := make(chan audit.Event, 256)
		sinks = append(sinks, audit.NewChannelSink(inbox))
		worker := audit.NewWorker(kafkaSink, inbox, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("audit fan-out to kafka enabled", "topic", cfg.AuditTopic)
	}

	publisher := audit.NewPublisher(auditStore, log, sinks...)
	svc := service.New(accounts, publisher, log, service.WithMetrics(m))

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, tokenIssuer)
	handler := accounthandler.New(svc, log,
		middleware.RequireAuth(jwtService, redis.NewRevocationChecker(redisClient), log),
		middleware.RequireAdmin(service.AuthorizeAdmin, log),
	)

	srv := httpserver.New(cfg.Addr, router.New(log, m, handler, checks...))

	g.Go(func() error {
		log.Info("starting atrium", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
