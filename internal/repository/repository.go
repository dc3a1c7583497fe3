package repository

import (
	"context"

	"curbside/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines the interface for order data access operations.
// All status mutation goes through UpdateStatus so that the per-order
// compare-and-swap discipline is the single chokepoint for consistency.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	// Returns (nil, nil) when no such order exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByCustomer retrieves a customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error)

	// ListByPartner retrieves a partner's orders, newest first.
	ListByPartner(ctx context.Context, partnerID int64) ([]model.Order, error)

	// UpdateStatus moves the order from expected to next atomically.
	// Returns model.ErrConflict when the stored status no longer matches
	// expected, and model.ErrOrderNotFound when the order does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next model.OrderStatus) (*model.Order, error)

	// Delete removes a completed order permanently. Returns
	// model.ErrInvalidTransition when the order is not completed and
	// model.ErrOrderNotFound when it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
