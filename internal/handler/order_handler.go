package handler

import (
	"net/http"

	"curbside/internal/auth"
	"curbside/internal/middleware"
	"curbside/internal/model"
	"curbside/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests for both roles.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// ListCustomerOrders handles GET /api/customer/orders requests.
func (h *OrderHandler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListCustomerOrders(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// ListPartnerOrders handles GET /api/partner/orders requests.
func (h *OrderHandler) ListPartnerOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListPartnerOrders(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/customer/orders/{id} and
// GET /api/partner/orders/{id} requests.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), identity, id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Transition handles POST /api/partner/orders/{id}/{action} requests.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var (
		order *model.Order
		err   error
	)

	switch action := r.PathValue("action"); action {
	case "accept":
		order, err = h.service.Accept(r.Context(), identity, id)
	case "ready":
		order, err = h.service.MarkReady(r.Context(), identity, id)
	case "complete":
		order, err = h.service.Complete(r.Context(), identity, id)
	case "cancel":
		order, err = h.service.Cancel(r.Context(), identity, id)
	default:
		writeError(w, http.StatusNotFound, model.ErrCodeInvalidTransition, "unknown action: "+action, h.logger)
		return
	}

	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/partner/orders/{id} requests. Only completed
// orders can be removed.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// identity pulls the authenticated caller from the request context.
func (h *OrderHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing credential", h.logger)
		return auth.Identity{}, false
	}
	return identity, true
}

// orderID parses the {id} path segment.
func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}
	return id, true
}
