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
	"github.com/shopspring/decimal"

	orderconsumer "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/consumer"
	ordercontrollerhttp "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/controller"
	orderrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/repo"
	orderservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/service"
	settlementrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/settlement/repo"
	settlementservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/settlement/service"
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

	log := logging.New("order-worker", cfg.Service.Environment)
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

	platformFeePct, err := decimal.NewFromString(cfg.Marketplace.PlatformFeePercent)
	if err != nil {
		log.Error("invalid platform fee percent", map[string]any{"err": err.Error()})
		os.Exit(1)
	}

	orders := orderrepo.NewPostgres(pool)
	orderSvc := orderservice.New(orders)
	orderCtrl := ordercontrollerhttp.New(orderSvc)

	settlements := settlementrepo.NewPostgres(pool)
	settlementSvc := settlementservice.New(settlements, platformFeePct, log)

	producer, err := broker.NewProducer(cfg.Broker.URL(), cfg.Broker.Exchange, cfg.Broker.Timeout)
	if err != nil {
		log.Error("failed to connect to event fabric", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	relay := outbox.NewRelay(orders.Outbox(), producer, log.Zerolog(), 2*time.Second, 50)
	eventConsumer := orderconsumer.New(orders, redisClient, log, cfg.Broker.URL(), cfg.Broker.Exchange, "order-worker")

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id}", orderCtrl.GetOrder).Methods(http.MethodGet)
	router.HandleFunc("/orders/{id}/ship", orderCtrl.MarkAsShipped).Methods(http.MethodPost)
	router.HandleFunc("/orders/{id}/deliver", orderCtrl.MarkAsDelivered).Methods(http.MethodPost)
	router.HandleFunc("/orders/{id}/complete", orderCtrl.Complete).Methods(http.MethodPost)
	router.HandleFunc("/orders/{id}/refund", orderCtrl.ProcessRefund).Methods(http.MethodPost)

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

	go func() {
		if err := settlementSvc.RunLoop(runCtx, 1*time.Hour); err != nil && runCtx.Err() == nil {
			log.Error("settlement rollup loop stopped unexpectedly", map[string]any{"err": err.Error()})
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
