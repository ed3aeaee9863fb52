// Package app wires the POS server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-pos/internal/dispatch"
	"github.com/xenking/erp-pos/internal/domain/kitchen"
	"github.com/xenking/erp-pos/internal/domain/ledger"
	"github.com/xenking/erp-pos/internal/domain/menu"
	"github.com/xenking/erp-pos/internal/domain/order"
	"github.com/xenking/erp-pos/internal/domain/pos"
	"github.com/xenking/erp-pos/internal/erpnext"
	"github.com/xenking/erp-pos/internal/handler"
	"github.com/xenking/erp-pos/internal/storage/postgres"
	"github.com/xenking/erp-pos/pkg/health"
	"github.com/xenking/erp-pos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("tables", cfg.Tables),
		zap.String("tax_rate", cfg.Rate().String()),
	)

	healthSvc := health.New()
	healthSvc.Register(health.Liveness, health.Check{
		Name: "goroutines",
		Func: health.GoroutineCountCheck(10000),
	})

	// Kitchen: ticket files are the record, displays are notified best effort.
	tickets, err := dispatch.NewFileDispatcher(cfg.Kitchen.TicketDir)
	if err != nil {
		return errors.Wrap(err, "ticket dispatcher")
	}
	healthSvc.Register(health.Readiness, health.Check{
		Name: "tickets",
		Func: health.DirWritableCheck(tickets.Dir()),
	})

	var kitchenDispatcher kitchen.Dispatcher = tickets
	if cfg.Kitchen.AMQPURL != "" {
		pub, err := dispatch.DialPublisher(cfg.Kitchen.AMQPURL, cfg.Kitchen.Exchange)
		if err != nil {
			return errors.Wrap(err, "kitchen display publisher")
		}
		defer func() { _ = pub.Close() }()
		kitchenDispatcher = dispatch.WithNotifier(tickets, pub)
		lg.Info("Kitchen displays enabled", zap.String("exchange", cfg.Kitchen.Exchange))
	}

	biller := erpnext.New(erpnext.Config{
		URL:       cfg.ERP.URL,
		APIKey:    cfg.ERP.APIKey,
		APISecret: cfg.ERP.APISecret,
		Timeout:   cfg.ERP.Timeout,
		Simulate:  cfg.ERP.Simulate,
		Customer:  cfg.ERP.Customer,
		Currency:  cfg.ERP.Currency,
	},
		erpnext.WithTracerProvider(m.TracerProvider()),
		erpnext.WithMeterProvider(m.MeterProvider()),
	)
	if !biller.Configured() {
		lg.Warn("ERPNext is not configured", zap.Bool("simulate", cfg.ERP.Simulate))
	}

	posOpts := []pos.Option{
		pos.WithTracerProvider(m.TracerProvider()),
		pos.WithMeterProvider(m.MeterProvider()),
	}

	// Optional PostgreSQL sale archive.
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		archive := postgres.NewSaleArchive(pool)
		healthSvc.Register(health.Readiness, health.Check{
			Name:    "postgres",
			Timeout: 5 * time.Second,
			Func:    health.PingCheck(archive),
		})
		posOpts = append(posOpts, pos.WithArchive(archive))
		lg.Info("Sale archive enabled")
	}

	// Domain.
	catalog := menu.Default()
	sales := ledger.New()
	store := order.NewStore(sales)

	svc, err := pos.NewService(cfg.POSConfig(), catalog, store, sales, kitchenDispatcher, biller, posOpts...)
	if err != nil {
		return errors.Wrap(err, "create pos service")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", healthSvc.Handler(health.Liveness))
	mux.Handle("GET /readyz", healthSvc.Handler(health.Readiness))
	handler.NewHandler(handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL}, svc).Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Settlement waits for ERPNext.
		WriteTimeout:   cfg.ERP.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("pos-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
