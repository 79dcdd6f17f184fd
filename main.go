package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/sqlite"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize OpenTelemetry
	newTelemetry := telemetry.NewNoOpTelemetry
	if cfg.OTLP.ExportEnabled {
		newTelemetry = telemetry.NewTelemetry
	}
	telem, err := newTelemetry(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")
	logger := telem.Logger

	logger.Info("Starting Products API",
		slog.String("store", cfg.Store.Backend),
	)

	repo, closeRepo, err := newRepository(&cfg.Store, tracer, logger)
	if err != nil {
		logger.Error("Failed to initialize product store", slog.String("error", err.Error()))
		return
	}
	defer closeRepo()

	productService := service.NewProductService(domain.NewCatalog(nil), repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, logger, telem)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}

// newRepository picks the store adapter named by cfg.Backend. The returned
// func releases whatever the adapter holds.
func newRepository(cfg *config.StoreConfig, tracer trace.Tracer, logger *slog.Logger) (domain.ProductRepository, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewProductRepository(tracer, logger, memory.WithShardCount(cfg.Shards)), func() {}, nil
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLiteName, tracer, logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open sqlite store")
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("Failed to close sqlite store", slog.String("error", err.Error()))
			}
		}, nil
	}
	return nil, nil, errors.Errorf("unknown store backend %q", cfg.Backend)
}
