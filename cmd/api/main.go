package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docvault/docs"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/database/migration"
	"docvault/internal/delivery"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logger"
	"docvault/internal/otel"
	"docvault/internal/repository"
	"docvault/internal/repository/memory"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	"docvault/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title docvault API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(os.Stdout, logger.Location(cfg.AppTimezone), cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server_exit")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing_shutdown_failed")
		}
	}()

	db, repo, err := openMetadata(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	log.Info().Str("backend", cfg.Storage.Backend).Msg("storage_ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	svcMetrics, err := service.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register upload metrics: %w", err)
	}
	deliveryMetrics, err := delivery.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register stream metrics: %w", err)
	}

	docSvc := service.NewDocumentService(store, repo,
		service.WithLogger(log),
		service.WithMaxUploadSize(cfg.MaxUploadBytes),
		service.WithMetrics(svcMetrics),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log, cfg.MaxUploadBytes),
		// Room for multipart framing; the file size itself is enforced by the service.
		BodyLimit:             int(2 * cfg.MaxUploadBytes),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	deps := handlers.Deps{
		Documents: docSvc,
		Delivery:  delivery.NewEngine(store, log, deliveryMetrics),
		MaxUpload: cfg.MaxUploadBytes,
		Log:       log,
	}
	if db != nil {
		deps.DB = db
	}
	handlers.RegisterRoutes(app, deps)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("server_shutting_down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("server_shutdown_failed")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Int64("max_upload_bytes", cfg.MaxUploadBytes).Msg("server_listening")
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// openMetadata returns the repository for the configured driver. The *sql.DB
// is nil for the in-memory driver.
func openMetadata(ctx context.Context, c config.DatabaseConfig, log zerolog.Logger) (*sql.DB, repository.DocumentRepository, error) {
	switch c.Driver {
	case "memory":
		log.Warn().Msg("metadata_in_memory")
		return nil, memory.NewDocumentMemory(), nil
	case "postgres", "":
		db, err := database.NewPostgres(ctx, c, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, c.Host); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		return db, postgres.NewDocumentPostgres(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", c.Driver)
	}
}

func openStorage(c config.StorageConfig) (storage.Storage, error) {
	switch c.Backend {
	case "local", "":
		store, err := storage.NewLocal(c.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return store, nil
	case "minio":
		// Reusable S3-compatible object storage client (MinIO-supported)
		store, err := storage.NewMinIO(c.MinIO)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Backend)
	}
}
