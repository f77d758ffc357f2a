package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/backfill"
	searchconsumer "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/consumer"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-worker/internal/search/index"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/config"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New("search-worker", cfg.Service.Environment)
	log.Info("service starting", map[string]any{"redis_host": cfg.Redis.Host})

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer func() { _ = redisClient.Close() }()

	idx := index.NewRedis(redisClient)
	eventConsumer := searchconsumer.New(idx, redisClient, log, cfg.Broker.URL(), cfg.Broker.Exchange, "search-worker")

	userServiceURL := getEnv("USER_SERVICE_BASE_URL", "http://user-service:8080")
	refresh := backfill.New(idx, backfill.NewUserServiceClient(userServiceURL), log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	go func() {
		backfillCtx, backfillCancel := context.WithTimeout(runCtx, 2*time.Minute)
		defer backfillCancel()
		if err := refresh.Run(backfillCtx); err != nil {
			log.Warn("seller name backfill failed", map[string]any{"err": err.Error()})
		}
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
