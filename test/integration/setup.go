package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"curbside/internal/config"
	"curbside/internal/database"
	"curbside/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container, applies the schema
// migrations, and returns a connection pool.
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
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
		MigrationsPath:  "../../migrations",
	}

	logger := zerolog.Nop()

	if err := database.Migrate(dbConfig, logger); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
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
		Config:    dbConfig,
	}
}

// SeedOrder inserts an order with a single item directly, bypassing the
// checkout path. Useful for lifecycle tests that need a known start state.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, partnerID, customerID int64, status model.OrderStatus) *model.Order {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	order := &model.Order{
		ID:              uuid.New(),
		PartnerID:       partnerID,
		CustomerID:      customerID,
		Status:          status,
		TotalAmount:     42.00,
		RedemptionToken: uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO orders (id, partner_id, customer_id, status, total_amount, redemption_token, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.PartnerID, order.CustomerID, order.Status,
		order.TotalAmount, order.RedemptionToken, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price)
		 VALUES ($1, $2, 0, 1, 1, 42.00)`,
		uuid.New(), order.ID,
	)
	if err != nil {
		t.Fatalf("failed to seed order item: %v", err)
	}

	return order
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
