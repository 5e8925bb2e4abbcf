package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

type sampleCoupon struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	MinSubtotal float64    `json:"min_subtotal"`
	MaxUses     int        `json:"max_uses"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// generateSampleCoupons writes a gzipped JSON-lines catalog for cmd/couponimport.
// It covers every validation outcome:
//
//	BEMVINDO10  percent 10, no minimum        valid
//	DESCONTO50  fixed 50, minimum 150         valid above 150
//	FRETEGRATIS free shipping                 valid
//	VERAO2024   percent 15, ended last year   expired
//	LIMITADO    fixed 20, max 1 use           valid until used once
//	PAUSADO     percent 5, inactive           inactive
func main() {
	out := flag.String("out", "data/coupons/catalog.jsonl.gz", "output file")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	ended := time.Date(time.Now().Year()-1, time.March, 20, 23, 59, 59, 0, time.UTC)
	coupons := []sampleCoupon{
		{Code: "BEMVINDO10", Type: "percent", Value: 10, IsActive: true},
		{Code: "DESCONTO50", Type: "fixed", Value: 50, MinSubtotal: 150, IsActive: true},
		{Code: "FRETEGRATIS", Type: "free_shipping", IsActive: true},
		{Code: "VERAO2024", Type: "percent", Value: 15, EndsAt: &ended, IsActive: true},
		{Code: "LIMITADO", Type: "fixed", Value: 20, MaxUses: 1, IsActive: true},
		{Code: "PAUSADO", Type: "percent", Value: 5, IsActive: false},
	}

	if err := writeCatalog(*out, coupons); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	fmt.Printf("Created %s with %d coupons\n", *out, len(coupons))
	for _, c := range coupons {
		fmt.Printf("  - %-12s %s\n", c.Code, c.Type)
	}
}

func writeCatalog(filePath string, coupons []sampleCoupon) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	enc := json.NewEncoder(gzipWriter)
	for _, c := range coupons {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to write coupon %s: %w", c.Code, err)
		}
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush catalog: %w", err)
	}
	return nil
}
