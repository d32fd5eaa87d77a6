package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/database"
	"storefront/database/dbHelper"
	"storefront/database/handler"
	"storefront/database/memstore"
	"storefront/database/mongostore"
	"storefront/events"
	"storefront/middleware"
	"storefront/server"
	"storefront/service"
	"storefront/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config with error: %+v", err)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		logrus.Fatalf("Failed to configure logger with error: %+v", err)
	}
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, health, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize %s store with error: %+v", cfg.Database.Driver, err)
	}
	defer closeStore()
	logger.Infof("%s store ready", cfg.Database.Driver)

	var pub publisher = events.NopPublisher{}
	if brokers := events.ParseBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		pub = events.NewKafkaPublisher(brokers, cfg.Kafka.Topic)
		logger.Infof("publishing order events to %s", cfg.Kafka.Topic)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Errorf("failed to close event publisher: %v", err)
		}
	}()

	images, err := storage.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		logger.Fatalf("Failed to prepare upload dir with error: %+v", err)
	}

	tokens := middleware.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := &handler.Handler{
		Users:   service.NewUserService(store.Users(), store.Products(), tokens),
		Catalog: service.NewCatalogService(store.Products()),
		Carts:   service.NewCartService(store.Carts(), store.Products()),
		Orders: service.NewOrderService(store.Orders(), store.Products(), pub, service.OrderOptions{
			StrictTransitions:   cfg.Orders.StrictTransitions,
			ClearCartOnCheckout: cfg.Orders.ClearCartOnCheckout,
		}),
		Images: images,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := server.SetupRoutes(h, tokens, server.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadsDir:     images.Dir(),
		Logger:         logger,
		Metrics:        middleware.NewMetrics(registry),
	})
	ops := &http.Server{
		Addr:              ":" + cfg.Server.OpsPort,
		Handler:           server.OpsRouter(registry, health),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Failed to run ops server with error %+v", err)
		}
	}()
	go func() {
		logger.Infof("Server started at :%s", cfg.Server.Port)
		if err := srv.Run(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to run server with error %+v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := srv.Stop(shutdownTimeout); err != nil {
		logger.Errorf("Failed to stop server gracefully: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to stop ops server gracefully: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (service.Store, server.HealthCheck, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memstore.New(), nil, func() {}, nil
	case config.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Name)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.Close(closeCtx); err != nil {
				logrus.Errorf("failed to disconnect mongo: %v", err)
			}
		}
		return s, s.Ping, closeFn, nil
	default:
		db, err := database.ConnectAndMigrate(ctx, database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Name:     cfg.Postgres.Name,
			SSLMode:  database.SSLMode(cfg.Postgres.SSLMode),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logrus.Errorf("failed to close postgres: %v", err)
			}
		}
		return dbHelper.New(db), db.PingContext, closeFn, nil
	}
}
