package main

import (
	"context"
	"encoding/json"
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

	cartcontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/controller"
	cartrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/repo"
	cartservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/service"
	checkoutcontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/checkout/controller"
	checkoutrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/checkout/repo"
	checkoutservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/checkout/service"
	identitycontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/controller"
	identityrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/repo"
	identityservice "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/platform/middleware"
	orderrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/order/repo"
	settlementcontroller "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/settlement/controller"
	settlementrepo "github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/settlement/repo"
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

	log := logging.New("checkout-api", cfg.Service.Environment)
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

	identityRepo := identityrepo.NewPostgres(pool)
	jwt := identityservice.NewJWT(cfg.JWT.Secret, cfg.JWT.Expiry)
	identitySvc := identityservice.New(identityRepo, jwt)
	identityCtrl := identitycontroller.New(identitySvc)

	cartRepo := cartrepo.NewRedis(redisClient, cfg.Marketplace.SessionTTL*4)
	cartSvc := cartservice.New(cartRepo)
	cartCtrl := cartcontroller.New(cartSvc)

	sessionRepo := checkoutrepo.NewRedis(redisClient)
	orderRepo := orderrepo.NewPostgres(pool)
	checkoutSvc := checkoutservice.New(cartRepo, sessionRepo, orderRepo, platformFeePct, cfg.Marketplace.SessionTTL)
	checkoutCtrl := checkoutcontroller.New(checkoutSvc)

	settlementRepo := settlementrepo.NewPostgres(pool)
	settlementCtrl := settlementcontroller.New(settlementRepo)

	producer, err := broker.NewProducer(cfg.Broker.URL(), cfg.Broker.Exchange, cfg.Broker.Timeout)
	if err != nil {
		log.Error("failed to connect to event fabric", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = producer.Close() }()

	relay := outbox.NewRelay(orderRepo.Outbox(), producer, log.Zerolog(), 2*time.Second, 50)
	sessionSweeper := checkoutrepo.NewSweeper(redisClient, log, time.Hour)

	authMiddleware := middleware.NewAuthMiddleware(jwt)

	router := mux.NewRouter()
	router.Use(middleware.Logging(log))
	router.Use(middleware.CORS())

	router.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", versionInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/register", identityCtrl.Register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", identityCtrl.Login).Methods(http.MethodPost)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware.Authenticate)
	protected.HandleFunc("/cart", cartCtrl.GetCart).Methods(http.MethodGet)
	protected.HandleFunc("/cart/items", cartCtrl.AddItem).Methods(http.MethodPost)
	protected.HandleFunc("/cart/items", cartCtrl.RemoveItem).Methods(http.MethodDelete)
	protected.HandleFunc("/cart", cartCtrl.Clear).Methods(http.MethodDelete)
	protected.HandleFunc("/checkout/sessions", checkoutCtrl.CreateSession).Methods(http.MethodPost)
	protected.HandleFunc("/checkout/sessions/{id}/confirm", checkoutCtrl.ConfirmSession).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{id}", checkoutCtrl.GetOrder).Methods(http.MethodGet)
	protected.HandleFunc("/sellers/{sellerId}/settlements", settlementCtrl.ListForSeller).Methods(http.MethodGet)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		<-stop
		cancel()
	}()

	go relay.Start(runCtx)
	go func() {
		if err := sessionSweeper.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Error("checkout session sweeper stopped unexpectedly", map[string]any{"err": err.Error()})
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

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"service": "checkout-api", "version": "dev"})
}
