// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kiranakart/kirana-backend/internal/auth"
	"github.com/kiranakart/kirana-backend/internal/cache"
	"github.com/kiranakart/kirana-backend/internal/domain/coupon"
	"github.com/kiranakart/kirana-backend/internal/domain/credit"
	"github.com/kiranakart/kirana-backend/internal/domain/order"
	"github.com/kiranakart/kirana-backend/internal/domain/product"
	"github.com/kiranakart/kirana-backend/internal/httpapi"
	"github.com/kiranakart/kirana-backend/internal/repository"
	"github.com/kiranakart/kirana-backend/pkg/health"
	"github.com/kiranakart/kirana-backend/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Repositories.
	var productRepo product.Repository = repository.NewProductRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	ledger := repository.NewCreditLedger(pool)

	// Optional Redis catalog cache.
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close() //nolint:errcheck

		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, "ping redis")
		}
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		productRepo = cache.NewCatalogCache(productRepo, rdb)
		lg.Info("Catalog cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	// Domain services.
	couponService := coupon.NewService(couponRepo)
	creditService := credit.NewService(ledger)
	orderService := order.NewService(productRepo, couponService, creditService, orderRepo)
	authenticator := auth.NewAuthenticator(staffRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	api := httpapi.NewServer(
		authenticator,
		productRepo,
		customerRepo,
		couponService,
		couponRepo,
		creditService,
		orderService,
	)

	healthSvc.SetReady(true)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", http.StripPrefix("/api", api.Routes()))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			func(next http.Handler) http.Handler {
				return otelhttp.NewHandler(next, "kirana-api",
					otelhttp.WithTracerProvider(m.TracerProvider()),
					otelhttp.WithMeterProvider(m.MeterProvider()),
				)
			},
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
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
