package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse_service/config"
	"warehouse_service/internal/delivery"
	grpcHandler "warehouse_service/internal/delivery/grpc"
	"warehouse_service/internal/domain"
	"warehouse_service/internal/observability"
	"warehouse_service/internal/repository"
	"warehouse_service/internal/usecase"
	"warehouse_service/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

type backend struct {
	categories domain.CategoryRepository
	products   domain.ProductRepository
	pinger     delivery.Pinger
	close      func() error
}

func main() {
	bootLogger := config.NewLogger("info", "json")
	cfg, err := config.Load(bootLogger)
	if err != nil {
		bootLogger.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting Warehouse Service...")

	store, err := openBackend(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open %s backend: %v", cfg.StorageDriver, err)
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Errorf("Error closing storage backend: %v", err)
		} else {
			logger.Info("Storage backend closed.")
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	err = store.pinger.Ping(pingCtx)
	cancel()
	if err != nil {
		if cfg.BackendStrict {
			logger.Fatalf("Storage backend unreachable at startup: %v", err)
		}
		logger.Warnf("Storage backend unreachable at startup, continuing: %v", err)
	}

	metrics, err := observability.NewStockMetrics()
	if err != nil {
		logger.Warnf("Stock metrics disabled: %v", err)
	}

	// Use case layer
	categoryUseCase := usecase.NewCategoryUseCase(store.categories, store.products, logger)
	productUseCase := usecase.NewProductUseCase(store.products, store.categories, logger)
	stockUseCase := usecase.NewStockUseCase(store.products, metrics, cfg.ReceiptLocation(), logger)
	inventoryUseCase := usecase.NewInventoryUseCase(store.categories, store.products, logger)
	logger.Info("Use cases initialized.")

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := delivery.NewRouter(logger, cfg.ServerTiming,
		delivery.NewIndexHandler(),
		delivery.NewInventoryHandler(inventoryUseCase, store.pinger, logger),
		delivery.NewCategoryHandler(categoryUseCase, logger),
		delivery.NewProductHandler(productUseCase, logger),
		delivery.NewStockHandler(stockUseCase, logger),
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC
	grpcServer := grpc.NewServer()
	grpcHandler.RegisterInventoryServer(grpcServer,
		grpcHandler.NewInventoryHandler(categoryUseCase, productUseCase, stockUseCase, inventoryUseCase, logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	logger.Info("gRPC services registered.")

	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", cfg.GrpcPort)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		grpcHandler.WatchBackend(gctx, healthServer, store.pinger, healthInterval, cfg.BackendTimeout, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Warn("Shutdown signal received...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("HTTP server shutdown error: %v", err)
		}
		grpcServer.GracefulStop()
		logger.Info("Servers stopped.")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Warehouse Service exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Warehouse Service shut down gracefully.")
}

func openBackend(cfg *config.Config, logger *logrus.Logger) (*backend, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		database, err := db.Connect(cfg.DatabaseURL, cfg.BackendTimeout)
		if err != nil {
			if cfg.BackendStrict {
				return nil, err
			}
			logger.Warnf("Database not reachable yet, using a lazy pool: %v", err)
			if database, err = db.Open(cfg.DatabaseURL); err != nil {
				return nil, err
			}
		}
		if cfg.AutoMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
			err := repository.EnsureSchema(ctx, database, logger)
			cancel()
			if err != nil && cfg.BackendStrict {
				_ = database.Close()
				return nil, err
			}
		}
		categories := repository.NewPostgresCategoryRepository(database, logger)
		logger.Info("Postgres repositories initialized.")
		return &backend{
			categories: categories,
			products:   repository.NewPostgresProductRepository(database, logger),
			pinger:     categories,
			close:      database.Close,
		}, nil

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := repository.NewGormStore(gdb, logger)
		if cfg.AutoMigrate {
			if err := store.AutoMigrate(); err != nil {
				return nil, err
			}
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		logger.Infof("SQLite store initialized at %s.", cfg.SQLitePath)
		return &backend{categories: store, products: store, pinger: store, close: sqlDB.Close}, nil

	case config.DriverMemory:
		store := repository.NewMemoryStore()
		logger.Warn("Using the in-memory store; data is lost on exit.")
		return &backend{categories: store, products: store, pinger: store, close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
