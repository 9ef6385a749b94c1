package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/repoindex/internal/config"
	"github.com/totegamma/repoindex/internal/infra/database"
	"github.com/totegamma/repoindex/internal/logger"
	"github.com/totegamma/repoindex/internal/present/rest"
	"github.com/totegamma/repoindex/internal/service"
	"github.com/totegamma/repoindex/internal/usecase"
)

const serviceName = "repoindex"

var configPath string

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Index repository records into queryable tables",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the record index over HTTP",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the partition and every missing table",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("REPOINDEX_CONFIG"), "path to the yaml config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	log.Logger = logger.New(serviceName)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Stack().Err(err).Msg("repoindex failed")
	}
}

func openDatabase(ctx context.Context, cfg config.Config, publisher database.Publisher) (*database.Database, error) {
	return database.Open(ctx, database.Options{
		Driver:      database.Driver(cfg.Storage.Driver),
		SqlitePath:  cfg.Storage.SqlitePath,
		PostgresDSN: cfg.Storage.PostgresDsn,
		Partition:   cfg.Storage.Partition,
		BestEffort:  cfg.Storage.BestEffort,
		Publisher:   publisher,
		RootCache:   database.NewMemcached(cfg.Server.MemcachedAddr),
		Logger:      log.Logger,
	})
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Storage.Driver).Str("partition", cfg.Storage.Partition).Msg("tables ready")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, cfg.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	var signalService *service.SignalService
	var publisher database.Publisher
	if rdb := database.NewRedis(cfg.Server.RedisAddr, cfg.Server.RedisPassword, cfg.Server.RedisDB); rdb != nil {
		defer rdb.Close()
		signalService = service.NewSignalService(rdb, cfg.Storage.Partition)
		publisher = signalService
	}

	db, err := openDatabase(ctx, cfg, publisher)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		return err
	}

	var subscriber rest.NotificationSubscriber
	if signalService != nil {
		subscriber = signalService
	}

	handler := rest.NewHandler(
		usecase.NewRecordUsecase(db, db),
		usecase.NewFeedUsecase(db),
		usecase.NewNotificationUsecase(db),
		usecase.NewUserUsecase(db),
		subscriber,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Msg("request")
			return nil
		},
	}))
	if cfg.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	handler.RegisterRoutes(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.ListenAddr).Msg("listening")
	if err := e.Start(cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("trace provider shutdown failed")
		}
	}, nil
}

