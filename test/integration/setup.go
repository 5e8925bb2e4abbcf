package integration

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a migrated test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container, opens a pool through database.NewPool
// and applies the embedded migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		t.Fatalf("invalid mapped port %q: %v", mapped.Port(), err)
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port,
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// Seeded catalog.
const (
	VariantDress  int64 = 101 // 89.90, 300 g
	VariantShirt  int64 = 102 // 49.90, no weight recorded
	VariantJacket int64 = 201 // 259.00, 900 g
)

// SeedCatalog inserts the test variants and coupons.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	variants := []struct {
		id        int64
		productID int64
		price     string
		weightG   *int
	}{
		{VariantDress, 10, "89.90", intPtr(300)},
		{VariantShirt, 10, "49.90", nil},
		{VariantJacket, 20, "259.00", intPtr(900)},
	}
	for _, v := range variants {
		_, err := pool.Exec(ctx,
			"INSERT INTO variants (id, product_id, price, weight_g) VALUES ($1, $2, $3, $4)",
			v.id, v.productID, decimal.RequireFromString(v.price), v.weightG,
		)
		if err != nil {
			t.Fatalf("failed to seed variant %d: %v", v.id, err)
		}
	}

	ended := time.Now().Add(-24 * time.Hour).UTC()
	coupons := []model.Coupon{
		newCoupon("BEMVINDO10", model.CouponTypePercent, "10", "0", nil, true),
		newCoupon("DESCONTO50", model.CouponTypeFixed, "50", "150", nil, true),
		newCoupon("FRETEGRATIS", model.CouponTypeFreeShipping, "0", "0", nil, true),
		newCoupon("VERAO", model.CouponTypePercent, "15", "0", &ended, true),
		newCoupon("PAUSADO", model.CouponTypePercent, "5", "0", nil, false),
	}
	if _, err := repository.NewCouponRepository(pool, zerolog.Nop()).Upsert(ctx, coupons); err != nil {
		t.Fatalf("failed to seed coupons: %v", err)
	}
}

func newCoupon(code string, typ model.CouponType, value, minSubtotal string, endsAt *time.Time, active bool) model.Coupon {
	return model.Coupon{
		ID:          uuid.New(),
		Code:        code,
		Type:        typ,
		Value:       decimal.RequireFromString(value),
		MinSubtotal: decimal.RequireFromString(minSubtotal),
		EndsAt:      endsAt,
		IsActive:    active,
		CreatedAt:   time.Now().UTC(),
	}
}

func intPtr(v int) *int { return &v }

// CleanupDB removes everything the tests write, keeping the schema.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "shipping_quotes", "coupons", "variants"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
