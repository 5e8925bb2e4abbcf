package coupon

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped coupon catalogs from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped JSON-lines coupon catalog from the local file system.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Catalog, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon catalog")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon catalog")
		return nil, fmt.Errorf("failed to open coupon catalog %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	catalog, err := readCatalog(ctx, gzipReader)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading coupon catalog")
		return nil, fmt.Errorf("error reading coupon catalog %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", catalog.Size()).
		Msg("coupon catalog loaded successfully")

	return catalog, nil
}
