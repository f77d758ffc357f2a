package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	syncconsumer "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/sync-worker/internal/sync/consumer"
	syncrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/sync-worker/internal/sync/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/config"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New("sync-worker", cfg.Service.Environment)
	log.Info("service starting", map[string]any{
		"db_host":     cfg.Database.Host,
		"broker_host": cfg.Broker.Host,
	})

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect to database", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer func() { _ = redisClient.Close() }()

	projections := syncrepo.NewPostgres(pool)
	eventConsumer := syncconsumer.New(projections, redisClient, log, cfg.Broker.URL(), cfg.Broker.Exchange, "sync-worker")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	go func() {
		if err := eventConsumer.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Error("event consumer stopped unexpectedly", map[string]any{"err": err.Error()})
			cancel()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           http.HandlerFunc(healthCheck),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server starting", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped unexpectedly", map[string]any{"err": err.Error()})
			cancel()
		}
	}()

	<-runCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info("shutdown complete", nil)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
