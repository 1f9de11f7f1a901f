package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/shopfront/gateway"
	"github.com/example/shopfront/pkg/catalog"
	"github.com/example/shopfront/pkg/config"
	"github.com/example/shopfront/pkg/discovery"
	"github.com/example/shopfront/pkg/rating"
	"github.com/example/shopfront/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting shopfront API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Storage
	orders, err := repository.NewOrderRepository(&cfg.MySQL, logger.Named("orders"))
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	ratings, err := repository.NewRatingRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	ctx := context.Background()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// Services
	catalogSvc := catalog.New(orders, redisRepo, cfg.Catalog.ProductTTL, logger.Named("catalog"))
	ratingSvc := rating.NewService(ratings, orders, catalogSvc, ratings, logger.Named("rating"))

	// Connect to etcd for service discovery
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
	} else {
		instance := &discovery.ServiceInstance{
			Name: cfg.Server.Name,
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		}
		if err := sd.Register(ctx, instance); err != nil {
			logger.Error("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", cfg.Server.Name),
				zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		}
		defer func() {
			if err := sd.Deregister(context.Background(), instance); err != nil {
				logger.Error("Failed to deregister service", zap.Error(err))
			}
			sd.Close()
		}()
	}

	// Gateway
	gw := gateway.NewGateway(cfg, logger.Named("gateway"), orders, catalogSvc, ratingSvc)
	gw.SetupRoutes()

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.LookupTimeout)
	defer cancel()
	if err := ratings.Close(shutdownCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Service stopped")
}
