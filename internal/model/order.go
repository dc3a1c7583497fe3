package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusInQueue   OrderStatus = "in_queue"
	StatusInProcess OrderStatus = "in_process"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// transitions is the set of allowed moves. Strictly forward, except that
// cancellation is possible until the order is ready.
var transitions = map[OrderStatus][]OrderStatus{
	StatusInQueue:   {StatusInProcess, StatusCancelled},
	StatusInProcess: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
}

// Valid reports whether s is one of the five known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusInQueue, StatusInProcess, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a customer order owned by a single partner.
type Order struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	PartnerID       int64       `json:"partnerId" db:"partner_id"`
	CustomerID      int64       `json:"customerId" db:"customer_id"`
	Status          OrderStatus `json:"status" db:"status"`
	TotalAmount     float64     `json:"totalAmount" db:"total_amount"`
	RedemptionToken string      `json:"redemptionToken" db:"redemption_token"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem is a line item in an order. UnitPrice is a snapshot of the
// catalog price at checkout time and never changes afterwards.
type OrderItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	OrderID   uuid.UUID `json:"-" db:"order_id"`
	Position  int       `json:"-" db:"position"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
}

// CartLine is a single client-held cart entry. The client-supplied
// UnitPrice is informational only; checkout always re-reads the catalog.
type CartLine struct {
	ProductID int64   `json:"productId"`
	PartnerID int64   `json:"partnerId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// CheckoutRequest is the request payload for a checkout.
type CheckoutRequest struct {
	Lines []CartLine `json:"lines"`
}

// GroupResult is the outcome of one partner group of a checkout: either a
// created order or a typed failure, never both.
type GroupResult struct {
	PartnerID int64  `json:"partnerId"`
	Order     *Order `json:"order,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Failed reports whether this group's order creation was rejected.
func (g GroupResult) Failed() bool {
	return g.ErrorCode != ""
}

// CheckoutResponse reports the per-partner outcomes of a checkout. The
// client clears only the cart lines whose group succeeded.
type CheckoutResponse struct {
	Results []GroupResult `json:"results"`
}
