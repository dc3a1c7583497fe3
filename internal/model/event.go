package model

import "github.com/google/uuid"

// EventOrderUpdate is the only event type the notification hub carries.
const EventOrderUpdate = "order_update"

// OrderEvent is a hint to refetch an order, not a state transfer.
// Receivers re-read authoritative state through the order API; Status is
// display-only.
type OrderEvent struct {
	Type    string      `json:"type"`
	OrderID uuid.UUID   `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// NewOrderEvent builds an order_update event for the given order.
func NewOrderEvent(orderID uuid.UUID, status OrderStatus) OrderEvent {
	return OrderEvent{
		Type:    EventOrderUpdate,
		OrderID: orderID,
		Status:  status,
	}
}
