package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog_service/config"
	"catalog_service/internal/delivery"
	grpcHandler "catalog_service/internal/delivery/grpc"
	"catalog_service/internal/flash"
	"catalog_service/internal/repository"
	"catalog_service/internal/storage"
	"catalog_service/internal/usecase"
	"catalog_service/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	logger := setupLogger("info")

	cfg := config.LoadConfig(logger)

	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s' in config, using default 'info'. Error: %v", cfg.LogLevel, err)
	} else {
		logger.SetLevel(logLevel)
	}
	logger.Info("Starting Catalog Service...")

	// --- Database ---
	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Database migrations applied.")
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Errorf("Error closing database connection: %v", err)
		} else {
			logger.Info("Database connection closed.")
		}
	}()
	logger.Info("Database connection established.")

	// --- Dependency Injection ---
	productRepo := repository.NewPostgresProductRepository(database, logger)
	lookupRepo := repository.NewPostgresLookupRepository(database, logger)
	fileStore := storage.NewLocalStore(cfg.WebRoot, logger)
	logger.Info("Repositories initialized.")

	productUseCase := usecase.NewProductUseCase(productRepo, lookupRepo, fileStore, usecase.ProductOptions{
		MaxPhotoSizeMB:   cfg.MaxPhotoSizeMB,
		SniffContent:     cfg.SniffUploadContent,
		PrimaryImageOnly: cfg.ListPrimaryImageOnly,
	}, logger)
	logger.Info("Use cases initialized.")

	flashStore, closeFlash := setupFlashStore(cfg, logger)
	defer closeFlash()

	productHandler := delivery.NewProductHandler(productUseCase, flashStore, logger)
	catalogGrpcHandler := grpcHandler.NewCatalogHandler(productUseCase, logger)
	logger.Info("Handlers initialized.")

	// --- HTTP ---
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(delivery.RequestLogger(logger))
	router.Static("/static", cfg.WebRoot)
	productHandler.RegisterRoutes(router)
	logger.Info("API Routes registered.")

	httpServer := &http.Server{
		Addr:    cfg.HttpPort,
		Handler: router,
	}
	go func() {
		logger.Infof("Starting HTTP server on port %s", cfg.HttpPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// --- gRPC ---
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}
	logger.Infof("gRPC server listening on %s", cfg.GrpcPort)

	grpcServer := grpc.NewServer()
	grpcHandler.RegisterCatalogServiceServer(grpcServer, catalogGrpcHandler)
	reflection.Register(grpcServer)
	logger.Info("gRPC reflection service registered")

	go func() {
		logger.Info("Starting gRPC server...")
		if err := grpcServer.Serve(lis); err != nil && err != grpc.ErrServerStopped {
			logger.Fatalf("Failed to serve gRPC: %v", err)
		}
		logger.Info("gRPC server stopped serving.")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Warn("Shutdown signal received...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP server shutdown error: %v", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Catalog Service shut down gracefully.")
}

func setupLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", level, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// setupFlashStore keeps flash messages in redis when an address is configured, in memory otherwise.
func setupFlashStore(cfg *config.Config, logger *logrus.Logger) (flash.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("Flash messages kept in memory.")
		return flash.NewMemoryStore(cfg.FlashTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	logger.Infof("Flash messages stored in redis at %s", cfg.RedisAddr)

	return flash.NewRedisStore(client, cfg.FlashTTL), func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing redis client: %v", err)
		}
	}
}
