// Package app wires configuration, storage, domain services, and the HTTP
// server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Pons070/studio-sub000/internal/domain/menu"
	"github.com/Pons070/studio-sub000/internal/domain/order"
	"github.com/Pons070/studio-sub000/internal/domain/promotion"
	"github.com/Pons070/studio-sub000/internal/handler"
	"github.com/Pons070/studio-sub000/internal/notify"
	"github.com/Pons070/studio-sub000/internal/storage/memory"
	"github.com/Pons070/studio-sub000/internal/storage/postgres"
	"github.com/Pons070/studio-sub000/pkg/health"
	"github.com/Pons070/studio-sub000/pkg/httpmiddleware"
)

// repos groups the storage interfaces the rest of the app consumes, so the
// backend choice stays in one switch.
type repos struct {
	menu       menu.Repository
	promotions promotion.Repository
	orders     order.Repository
	history    order.History
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, _ *sdkapp.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
	)

	healthSvc := health.New()
	healthSvc.Register(health.Check{
		Name:    "goroutines",
		Probe:   health.Liveness,
		Timeout: time.Second,
		Func:    health.GoroutineCountCheck(10000),
	})

	var r repos
	switch cfg.Store {
	case StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.Register(health.Check{
			Name:    "postgres",
			Probe:   health.Readiness,
			Timeout: 5 * time.Second,
			Func:    health.PingCheck(pool),
		})

		orderRepo := postgres.NewOrderRepository(pool)
		r = repos{
			menu:       postgres.NewMenuRepository(pool),
			promotions: postgres.NewPromotionRepository(pool),
			orders:     orderRepo,
			history:    orderRepo,
		}

	case StoreMemory:
		store := memory.NewStore()
		r = repos{
			menu:       store.Menu(),
			promotions: store.Promotions(),
			orders:     store.Orders(),
			history:    store.History(),
		}
	}

	healthSvc.Start(ctx, 10*time.Second)

	// Notification dispatcher. The log sender stands in for a real email
	// backend; swap it here once one exists.
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		QueueSize:      cfg.Notify.QueueSize,
		Workers:        cfg.Notify.Workers,
		MaxAttempts:    cfg.Notify.MaxAttempts,
		InitialBackoff: cfg.Notify.InitialBackoff,
	}, notify.NewLogSender(lg.Named("notify")), lg.Named("dispatch"))
	dispatcher.Start(ctx)

	orderService := order.NewService(r.orders, r.menu, r.promotions, r.history, dispatcher, cfg.AdminEmail)

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL},
		r.menu,
		r.promotions,
		orderService,
		r.history,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.Handler(health.Liveness))
	mux.HandleFunc("/readyz", healthSvc.Handler(health.Readiness))
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

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
		dispatcher.Stop()
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
