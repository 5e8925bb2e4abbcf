package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/carrier"
	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Repositories
	variantRepo := repository.NewVariantRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	quoteCache, closeCache, err := newQuoteCache(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// Upstream clients
	carrierClient, err := carrier.NewClient(carrier.Config{
		BaseURL:   cfg.Carrier.APIURL,
		Token:     cfg.Carrier.APIToken,
		UserAgent: cfg.Carrier.UserAgent,
		Timeout:   cfg.Carrier.Timeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize carrier client: %w", err)
	}

	gateway := payment.NewMercadoPago(payment.Config{
		BaseURL:     cfg.Payment.APIURL,
		AccessToken: cfg.Payment.AccessToken,
	}, logger)

	verifier := payment.NewSignatureVerifier(cfg.Payment.WebhookSecret)
	if verifier == nil {
		logger.Warn().Msg("payment webhook secret not set, notifications are accepted unsigned")
	}

	// Services
	validator := coupon.NewValidator(couponRepo, logger)
	shippingService := service.NewShippingService(variantRepo, quoteCache, carrierClient, service.ShippingRules{
		OriginPostalCode:  cfg.Shipping.OriginPostalCode,
		PickupPostalCodes: cfg.Shipping.PickupPostalCodes,
		FreeThreshold:     cfg.Shipping.FreeThreshold,
		CacheTTL:          cfg.Shipping.CacheTTL(),
	}, logger)
	orderService := service.NewOrderService(orderRepo, variantRepo, validator, logger)
	paymentService := service.NewPaymentService(orderRepo, gateway, service.StoreURLs{
		BaseURL:     cfg.Store.BaseURL,
		SuccessPath: cfg.Payment.SuccessPath,
		FailurePath: cfg.Payment.FailurePath,
		Currency:    cfg.Store.Currency,
	}, logger)
	webhookService := service.NewWebhookService(orderRepo, gateway, logger)

	mux := router.New(router.Handlers{
		Shipping: handler.NewShippingHandler(shippingService, logger),
		Coupon:   handler.NewCouponHandler(validator, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Payment:  handler.NewPaymentHandler(paymentService, webhookService, verifier, logger),
	}, cfg.Auth.JWTSecret, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newQuoteCache selects the shipping quote cache backend. The returned func releases it.
func newQuoteCache(
	ctx context.Context,
	cfg *config.Config,
	pool *pgxpool.Pool,
	logger zerolog.Logger,
) (repository.QuoteCache, func(), error) {
	switch cfg.Shipping.CacheBackend {
	case config.CacheBackendRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis quote cache: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis shipping quote cache")
		return cache.NewQuoteCache(client, cfg.Shipping.CacheTTL(), logger), func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close redis client")
			}
		}, nil
	default:
		return repository.NewQuoteCacheRepository(pool, logger), func() {}, nil
	}
}
