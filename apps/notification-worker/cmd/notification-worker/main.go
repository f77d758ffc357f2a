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
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	customerrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/customer/repo"
	notificationcontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/controller"
	notificationconsumer "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/consumer"
	notificationrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/repo"
	notificationservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/transport"
	orderrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/order/repo"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/broker"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/config"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/logging"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/outbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New("notification-worker", cfg.Service.Environment)
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

	outboxRepo := outbox.NewPostgres(pool)
	notifications := notificationrepo.NewPostgres(pool)
	customers := customerrepo.NewPostgres(pool)
	orders := orderrepo.NewPostgres(pool)

	var emailTransport transport.Transport
	if cfg.Service.Environment == "production" {
		emailTransport = transport.NewSMTP(
			getEnv("SMTP_ADDR", "localhost:25"),
			getEnv("SMTP_FROM", "orders@marketplace.invalid"),
			getEnv("SMTP_USER", ""),
			getEnv("SMTP_PASSWORD", ""),
			getEnv("SMTP_HOST", "localhost"),
		)
	} else {
		emailTransport = transport.Mock{}
	}

	failurePublisher := notificationconsumer.NewFailurePublisher(pool, outboxRepo)
	notificationSvc := notificationservice.New(notifications, emailTransport, failurePublisher)
	notificationCtrl := notificationcontroller.New(notificationSvc)

	producer, err := broker.NewProducer(cfg.Broker.URL(), cfg.Broker.Exchange, cfg.Broker.Timeout)
	if err != nil {
		log.Error("failed to connect to event fabric", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	relay := outbox.NewRelay(outboxRepo, producer, log.Zerolog(), 2*time.Second, 50)
	eventConsumer := notificationconsumer.New(notificationSvc, customers, orders, redisClient, log, cfg.Broker.URL(), cfg.Broker.Exchange, "notification-worker")

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/notifications/{id}/retry", notificationCtrl.Retry).Methods(http.MethodPost)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	go relay.Start(runCtx)

	go func() {
		if err := eventConsumer.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Error("event consumer stopped unexpectedly", map[string]any{"err": err.Error()})
			cancel()
		}
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
