package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	redis "github.com/redis/go-redis/v9"

	querycache "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/cache"
	querycontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/controller"
	queryrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/repo"
	queryservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/search-api/internal/query/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/config"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New("search-api", cfg.Service.Environment)
	log.Info("service starting", map[string]any{"redis_host": cfg.Redis.Host})

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer func() { _ = redisClient.Close() }()

	repo := queryrepo.NewRedis(redisClient)
	cacheStrategy := querycache.NewStrategy(redisClient)
	svc := queryservice.New(repo, cacheStrategy)
	limiter := ratelimit.New(redisClient, cfg.Marketplace.RateLimitPerMinute, cfg.Marketplace.RateLimitPerHour)
	ctrl := querycontroller.New(svc, limiter)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/books/available", ctrl.GetAvailableBooks).Methods(http.MethodGet)
	router.HandleFunc("/api/books/search", ctrl.SearchBooks).Methods(http.MethodGet)
	router.HandleFunc("/api/books/autocomplete", ctrl.Autocomplete).Methods(http.MethodGet)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
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
