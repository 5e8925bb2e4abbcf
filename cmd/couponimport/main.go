// Command couponimport loads a gzipped JSON-lines coupon catalog into Postgres.
//
// The catalog is read from S3 when S3_ENABLED is set (the key is S3_PREFIX + path),
// falling back to the local file system.
//
//	couponimport -file data/coupons/catalog.jsonl.gz
//	couponimport -file data/coupons/catalog.jsonl.gz -only BEMVINDO10,FRETEGRATIS
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/coupon"
	"storefront/internal/database"
	"storefront/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "catalog path (local file, or key relative to S3_PREFIX)")
	dryRun := flag.Bool("dry-run", false, "parse the catalog without writing it")
	only := flag.String("only", "", "comma-separated coupon codes to import instead of the whole catalog")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger).With().Str("cmd", "couponimport").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s3Loader coupon.Loader
	if cfg.S3.Enabled {
		s3Loader, err = coupon.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 loader, using local file system only")
		}
	}
	loader := coupon.NewFallbackLoader(s3Loader, coupon.NewFileLoader(logger), cfg.S3.Prefix, cfg.S3.Enabled, logger)

	catalog, err := loader.Load(ctx, *file)
	if err != nil {
		return fmt.Errorf("failed to load coupon catalog: %w", err)
	}

	if *only != "" {
		var missing []string
		catalog, missing = catalog.Select(strings.Split(*only, ","))
		if len(missing) > 0 {
			return fmt.Errorf("coupons not in catalog: %s", strings.Join(missing, ", "))
		}
	}

	if *dryRun {
		logger.Info().Int("coupons", catalog.Size()).Msg("dry run, nothing written")
		return nil
	}

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

	written, err := repository.NewCouponRepository(pool, logger).Upsert(ctx, catalog.Coupons())
	if err != nil {
		return fmt.Errorf("failed to import coupons: %w", err)
	}

	logger.Info().Int("coupons", written).Str("file", *file).Msg("coupon catalog imported")
	return nil
}
