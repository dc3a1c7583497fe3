package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"curbside/internal/middleware"
	"curbside/internal/model"
	"curbside/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout HTTP requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /api/customer/checkout requests. The response is
// always 200 with per-partner outcomes; only request-level problems
// (bad payload, wrong role) produce error statuses.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing credential", h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	resp, err := h.service.Checkout(r.Context(), identity, &req, idempotencyKey)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "must contain") {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, err.Error(), h.logger)
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
