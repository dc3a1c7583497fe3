package service

import (
	"context"

	"curbside/internal/auth"
	"curbside/internal/model"

	"github.com/google/uuid"
)

// CheckoutService turns a multi-partner cart into one order per partner.
type CheckoutService interface {
	// Checkout validates every line against the catalog and creates one
	// order per partner group. Groups succeed or fail independently; the
	// response reports each outcome. An optional idempotency key replays
	// a previous result instead of creating duplicates.
	Checkout(ctx context.Context, identity auth.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResponse, error)
}

// OrderService owns the per-order state machine and reads.
type OrderService interface {
	// Accept moves an in_queue order to in_process.
	Accept(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error)

	// MarkReady moves an in_process order to ready.
	MarkReady(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error)

	// Complete moves a ready order to completed.
	Complete(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error)

	// Cancel cancels an order that is still in_queue or in_process.
	Cancel(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error)

	// Delete permanently removes a completed order. Cleanup, not a
	// transition; irreversible.
	Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) error

	// GetOrder returns the order if the caller owns it (partner) or
	// placed it (customer).
	GetOrder(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error)

	// ListCustomerOrders returns the caller's orders, newest first.
	ListCustomerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error)

	// ListPartnerOrders returns the orders owned by the calling partner,
	// newest first.
	ListPartnerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error)
}

// Notifier is the hub surface the services need: best-effort fan-out to
// one user identity. Delivery failures are invisible to callers.
type Notifier interface {
	Publish(userID int64, event model.OrderEvent)
}
