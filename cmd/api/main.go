package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rahulraj2608/gadget-store/internal/cart"
	"github.com/rahulraj2608/gadget-store/internal/catalog"
	"github.com/rahulraj2608/gadget-store/internal/checkout"
	"github.com/rahulraj2608/gadget-store/internal/config"
	"github.com/rahulraj2608/gadget-store/internal/customers"
	"github.com/rahulraj2608/gadget-store/internal/discount"
	"github.com/rahulraj2608/gadget-store/internal/httpx"
	kafkax "github.com/rahulraj2608/gadget-store/internal/kafka"
	"github.com/rahulraj2608/gadget-store/internal/orders"
	"github.com/rahulraj2608/gadget-store/internal/postgres"
	"github.com/rahulraj2608/gadget-store/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placed.Start()
	statusChanged := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	statusChanged.Start()

	// Repos & handlers
	catalogRepo := &catalog.Repo{DB: db}
	customerRepo := &customers.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	discountRepo := &discount.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}

	router := httpx.NewRouter()
	store := &httpx.StoreHandler{
		Catalog:   catalogRepo,
		Customers: customerRepo,
		Cart:      cartRepo,
		Session:   &cart.Session{Redis: rdb},
		Discounts: discountRepo,
		Orders:    orderRepo,
		Processor: &checkout.Processor{Store: &checkout.PGStore{DB: db}},
		Producer:  placed,
		Redis:     rdb,
		Cfg:       cfg,
	}
	store.Register(router)

	admin := &httpx.AdminHandler{
		Catalog:   catalogRepo,
		Discounts: discountRepo,
		Orders:    orderRepo,
		Producer:  statusChanged,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Service:   cfg.ServiceName,
	}
	admin.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	statusChanged.Close()
	placed.WaitClosed()
	statusChanged.WaitClosed()
}
