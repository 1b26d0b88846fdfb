package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"hbbank/config"
	"hbbank/storage"
	"hbbank/store"
)

func NewLogger(cfg *config.Config) *slog.Logger {
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// NewStorage opens the configured backend. The returned cleanup closes it.
func NewStorage(cfg *config.Config) (storage.Storage, func(), error) {
	backend, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closer, ok := backend.(storage.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Error("failed to close storage", "driver", cfg.Storage.Driver, "error", err)
			}
		}
	}
	if cfg.Storage.Prefix != "" {
		return storage.Prefixed{Storage: backend, Prefix: cfg.Storage.Prefix}, cleanup, nil
	}
	return backend, cleanup, nil
}

// NewTracerProvider installs the process tracer provider. Spans are exported
// only when an exporter is configured. The cleanup flushes pending spans.
func NewTracerProvider(cfg *config.Config) (*sdktrace.TracerProvider, func(), error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "hbbank"))),
	}
	if cfg.Trace.Exporter == config.TraceExporterStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shut down tracer provider", "error", err)
		}
	}
	return tp, cleanup, nil
}

func NewStore(backend storage.Storage, logger *slog.Logger, tp *sdktrace.TracerProvider) *store.Store {
	return store.New(backend, store.WithLogger(logger), store.WithTracerProvider(tp))
}

func NewRouter(bank *store.Store, logger *slog.Logger) *gin.Engine {
	h := &handler{bank: bank, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// the web client is served from another origin
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", health)

	api := r.Group("/api")
	api.POST("/accounts", h.createAccount)
	api.GET("/accounts", h.getAccounts)
	api.GET("/accounts/:accountId", h.getAccount)
	api.POST("/accounts/:accountId/deposits", h.deposit)
	api.POST("/accounts/:accountId/withdrawals", h.withdraw)
	api.GET("/accounts/:accountId/transactions", h.getTransactions)
	api.POST("/transfers", h.transfer)
	api.POST("/save", h.saveAccounts)

	return r
}

type App struct {
	Run func() error
}

func NewApp(cfg *config.Config, router *gin.Engine, bank *store.Store, tp *sdktrace.TracerProvider, logger *slog.Logger) *App {
	return &App{
		Run: func() error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr: cfg.Addr,
				// h2c serves HTTP/2 without TLS
				Handler: otelhttp.NewHandler(
					h2c.NewHandler(router, &http2.Server{}),
					"hbbank",
					otelhttp.WithTracerProvider(tp),
				),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("starting hbbank server", "addr", cfg.Addr, "storage", cfg.Storage.Driver)
				serveErr <- srv.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return bank.SaveAccounts(shutdownCtx)
		},
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("HBBANK_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Log.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, cleanup, err := InitializeApp(cfg)
	if err != nil {
		log.Fatalf("initialize app: %v", err)
	}

	err = app.Run()
	cleanup()
	if err != nil {
		log.Fatalf("run: %v", err)
	}
}
