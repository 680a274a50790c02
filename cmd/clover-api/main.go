package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/bulkload"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	bulkloadroutes "github.com/Ramsey-B/clover/pkg/routes/bulkload"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	reconcileroutes "github.com/Ramsey-B/clover/pkg/routes/reconcile"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/store"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

const version = "1.0.0"

func fatal(logger ectologger.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}

func main() {
	// Local development convenience; missing .env is fine
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Errorf("failed to bind config: %w", err))
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		fatal(logger, err, "Failed to initialize tracing")
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.WithError(err).Error("Failed to shut down tracing")
		}
	}()

	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		fatal(logger, err, "Failed to connect to database")
	}
	defer db.Close()

	if err := runMigrations(cfg, db, logger); err != nil {
		fatal(logger, err, "Failed to run migrations")
	}

	recordStore := store.NewPostgresStore(db, logger)
	opportunityReconciler := reconcile.NewOpportunityReconciler(recordStore, logger)
	contactReconciler := reconcile.NewContactAccountReconciler(recordStore, logger)
	loader := bulkload.NewLoader(recordStore, logger, cfg.BulkMaxRows)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()
	emitter := events.NewEmitter(producer, logger)
	contactReconciler.OnAccountCreated(func(ctx context.Context, account *models.Account) {
		if err := emitter.EmitAccountCreated(ctx, account); err != nil {
			logger.WithContext(ctx).WithError(err).Warn("Failed to emit account created event")
		}
	})

	if err := registerDependencies(logger, opportunityReconciler, contactReconciler, loader); err != nil {
		fatal(logger, err, "Failed to register dependencies")
	}

	e := newServer(cfg, logger)
	checker := health.NewChecker(db, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	reconcileroutes.Register(api.Group("/reconcile"))
	bulkloadroutes.Register(api.Group("/bulkload"))

	orchestrator := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	orchestrator.AddDependency(&httpServerDependency{server: e, port: cfg.Port, logger: logger})
	if cfg.KafkaConsumerEnabled {
		batchProcessor := processor.NewProcessor(logger, contactReconciler, emitter)
		consumer := kafka.NewConsumer(cfg, logger, batchProcessor.HandleMessage)
		orchestrator.AddDependency(&consumerDependency{consumer: consumer})
	}

	if err := orchestrator.Start(ctx); err != nil {
		fatal(logger, err, "Failed to start service")
	}
	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	checker.SetReady(false)
	logger.Info("Shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := orchestrator.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Failed to stop cleanly")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func initTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error
	if cfg.TracingEnabled {
		otlpConfig := exporters.DefaultOTLPConfig()
		otlpConfig.Endpoint = cfg.TracingOTLPEndpoint
		otlpConfig.Protocol = cfg.TracingOTLPProtocol
		exporter, err = exporters.NewOTLPExporter(ctx, otlpConfig)
	} else {
		exporter, err = exporters.NewConsoleExporter()
	}
	if err != nil {
		return nil, err
	}
	return tracing.Init(cfg.AppName, exporter), nil
}

func runMigrations(cfg config.Config, db database.DB, logger ectologger.Logger) error {
	driver, err := pgdriver.WithInstance(db.Unsafe().DB, &pgdriver.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return migrationService.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	opportunityReconciler *reconcile.OpportunityReconciler,
	contactReconciler *reconcile.ContactAccountReconciler,
	loader *bulkload.Loader,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*reconcile.OpportunityReconciler](container, opportunityReconciler); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*reconcile.ContactAccountReconciler](container, contactReconciler); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*bulkload.Loader](container, loader)
}

func newServer(cfg config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	return e
}

type httpServerDependency struct {
	server *echo.Echo
	port   int
	logger ectologger.Logger
}

func (d *httpServerDependency) GetName() string     { return "http-server" }
func (d *httpServerDependency) DependsOn() []string { return nil }

func (d *httpServerDependency) Start(ctx context.Context) error {
	go func() {
		if err := d.server.Start(fmt.Sprintf(":%d", d.port)); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("HTTP server stopped unexpectedly")
			os.Exit(1)
		}
	}()
	return nil
}

func (d *httpServerDependency) Stop(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

type consumerDependency struct {
	consumer *kafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "kafka-consumer" }
func (d *consumerDependency) DependsOn() []string { return nil }

func (d *consumerDependency) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}

func (d *consumerDependency) Stop(ctx context.Context) error {
	return d.consumer.Stop()
}
