package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antonminaichev/warehouse-orders/internal/admin"
	"github.com/antonminaichev/warehouse-orders/internal/events"
	"github.com/antonminaichev/warehouse-orders/internal/keepalive"
	"github.com/antonminaichev/warehouse-orders/internal/logger"
	"github.com/antonminaichev/warehouse-orders/internal/order"
	"github.com/antonminaichev/warehouse-orders/internal/router"
	"github.com/antonminaichev/warehouse-orders/internal/storage"
	"github.com/antonminaichev/warehouse-orders/internal/storage/memory"
	"github.com/antonminaichev/warehouse-orders/internal/storage/postgres"
	workertypes "github.com/antonminaichev/warehouse-orders/internal/types/worker"
	"github.com/antonminaichev/warehouse-orders/internal/worker"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func openStorage(cfg *Config) (storage.Storage, error) {
	if cfg.DatabaseConnection == "" {
		logger.Log.Warn("DATABASE_URI is empty, using in-memory storage")
		return memory.New(cfg.Location), nil
	}
	return postgres.NewPostgresStorage(cfg.DatabaseConnection, cfg.Location)
}

func openPublisher(cfg *Config) (events.Publisher, func() error, error) {
	if cfg.AMQPURL == "" {
		return events.Nop{}, func() error { return nil }, nil
	}
	p, err := events.DialRabbit(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

func run() error {
	cfg, err := NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := openStorage(cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := store.Ping(pingCtx); err != nil {
		logger.Log.Fatal("unable to ping database", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.Warn("failed to close storage", zap.Error(err))
		}
	}()

	pub, closePub, err := openPublisher(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := closePub(); err != nil {
			logger.Log.Warn("failed to close publisher", zap.Error(err))
		}
	}()

	adminSvc := admin.NewService(store, []byte(cfg.JWTSecret), cfg.JWTTTL)
	if err := adminSvc.Bootstrap(pingCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	orderSvc := order.NewService(store, store, pub, cfg.Location)

	r := router.NewRouter(router.Handlers{
		Admin:    admin.NewHandler(adminSvc),
		Orders:   order.NewHandler(orderSvc),
		Pickers:  worker.NewHandler(worker.NewService(store, workertypes.RolePicker)),
		Checkers: worker.NewHandler(worker.NewService(store, workertypes.RoleChecker)),
	}, adminSvc, cfg.Origins())

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if cfg.KeepAliveURL != "" {
		client := &keepalive.HTTPHealthClient{
			Client:  &http.Client{Timeout: 10 * time.Second},
			BaseURL: cfg.KeepAliveURL,
		}
		go keepalive.Loop(ctx, client, cfg.KeepAliveInterval)
	}

	go func() {
		logger.Log.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("timezone", cfg.Location.String()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("ListenAndServe()", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return err
	}

	logger.Log.Info("server stopped gracefully")
	return nil
}
