package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nigmanand/portfolio-api/internal/audit"
	"github.com/nigmanand/portfolio-api/internal/cache"
	"github.com/nigmanand/portfolio-api/internal/config"
	"github.com/nigmanand/portfolio-api/internal/db"
	httpx "github.com/nigmanand/portfolio-api/internal/http"
	"github.com/nigmanand/portfolio-api/internal/observability"
	"github.com/nigmanand/portfolio-api/internal/repo/postgres"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	// tracing is opt-in via OTEL_EXPORTER_ENDPOINT

	if cfg.OTELEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, "portfolio-api", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()

				if err := shutdown(sctx); err != nil {
					log.Error("tracer shutdown failed", "err", err)
				}
			}()
		}
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database connection failed", "err", err)
		cancel()
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		cancel()
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		cancel()
		os.Exit(1)
	}

	// redis is optional; readiness reports it but the API works without it

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := redisClient.Ping(ctx); err != nil {
		log.Warn("redis unreachable", "err", err, "addr", cfg.RedisAddr)
	}

	defer redisClient.Close()

	cancel()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	recorder := audit.NewRecorder(postgres.NewAuditRepo(pool), log, prom)

	router := httpx.NewRouter(httpx.Deps{
		Cfg:      cfg,
		Log:      log,
		Pool:     pool,
		Redis:    redisClient,
		Prom:     prom,
		Recorder: recorder,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}

	// stop the audit writer only after in-flight handlers have finished
	recorder.Close()

	log.Info("shutdown complete")
}
