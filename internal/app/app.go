// Package app wires the admin server together: configuration, storage,
// domain services, HTTP routing, and graceful shutdown.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/snackbox/admin-api/internal/domain/catalog"
	"github.com/snackbox/admin-api/internal/domain/sales"
	"github.com/snackbox/admin-api/internal/domain/session"
	"github.com/snackbox/admin-api/internal/handler"
	"github.com/snackbox/admin-api/internal/storage/blob"
	"github.com/snackbox/admin-api/internal/storage/postgres"
	"github.com/snackbox/admin-api/internal/storage/redisstore"
	"github.com/snackbox/admin-api/pkg/health"
	"github.com/snackbox/admin-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis for persisted session flags.
	rdb, err := redisstore.NewClient(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "create redis client")
	}
	defer func() { _ = rdb.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Blob storage for product images.
	assets, err := blob.NewDiskStore(cfg.AssetDir, cfg.PublicBaseURL)
	if err != nil {
		return errors.Wrap(err, "create asset store")
	}

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)

	// Domain services.
	catalogSvc, err := catalog.NewService(productRepo, categoryRepo, assets)
	if err != nil {
		return errors.Wrap(err, "create catalog service")
	}
	salesSvc := sales.NewService(saleRepo)

	sessionMgr := session.NewManager(
		session.NewStaticAdmin(cfg.Admin.Email, cfg.Admin.PasswordHash),
		redisstore.NewSessionStore(rdb),
		session.Config{
			Secret: []byte(cfg.Session.Secret),
			TTL:    cfg.Session.TTL,
			Issuer: "snackbox-admin",
		},
	)

	// HTTP handlers.
	h := handler.New(catalogSvc, salesSvc, sessionMgr, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/assets/", http.StripPrefix("/assets/", assets.Handler()))
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second, // multipart image uploads
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			httpmiddleware.Instrument("snackbox-admin", mux,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
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
