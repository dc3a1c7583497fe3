package service

import (
	"context"
	"fmt"

	"curbside/internal/auth"
	"curbside/internal/model"
	"curbside/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusAny tells transition to take the observed status as the swap's
// expected value.
const statusAny model.OrderStatus = ""

// orderService implements OrderService. It is the sole writer of order
// status: every transition goes through the repository's compare-and-swap
// so concurrent requests on the same order serialize safely.
type orderService struct {
	orderRepo repository.OrderRepository
	notifier  Notifier
	logger    zerolog.Logger
}

// NewOrderService creates a new order lifecycle service.
func NewOrderService(orderRepo repository.OrderRepository, notifier Notifier, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		notifier:  notifier,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// Accept moves an in_queue order to in_process.
func (s *orderService) Accept(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, identity, id, model.StatusInQueue, model.StatusInProcess)
}

// MarkReady moves an in_process order to ready.
func (s *orderService) MarkReady(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, identity, id, model.StatusInProcess, model.StatusReady)
}

// Complete moves a ready order to completed.
func (s *orderService) Complete(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, identity, id, model.StatusReady, model.StatusCompleted)
}

// Cancel cancels an order that has not yet been made ready. Unlike the
// forward verbs it has no single source state; the observed status is
// used as the swap's expected value.
func (s *orderService) Cancel(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return s.transition(ctx, identity, id, statusAny, model.StatusCancelled)
}

// Delete permanently removes a completed order.
func (s *orderService) Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	if _, err := s.ownedOrder(ctx, identity, id); err != nil {
		return err
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Int64("partner_id", identity.UserID).
		Msg("order deleted")
	return nil
}

// GetOrder returns the order if the caller placed it or owns it.
func (s *orderService) GetOrder(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	switch identity.Role {
	case auth.RolePartner:
		if order.PartnerID != identity.UserID {
			return nil, model.ErrUnauthorised
		}
	default:
		if order.CustomerID != identity.UserID {
			return nil, model.ErrUnauthorised
		}
	}

	return order, nil
}

// ListCustomerOrders returns the caller's orders, newest first.
func (s *orderService) ListCustomerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error) {
	if identity.IsPartner() {
		return nil, model.ErrUnauthorised
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListPartnerOrders returns the orders owned by the calling partner.
func (s *orderService) ListPartnerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error) {
	if !identity.IsPartner() {
		return nil, model.ErrUnauthorised
	}
	orders, err := s.orderRepo.ListByPartner(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// transition performs one state-machine move. Ownership is checked first,
// then the table against the observed status, then the store's
// compare-and-swap; a success emits an event to both sides of the order,
// best effort. A mismatched source state is the caller's bug
// (InvalidTransition); losing the swap after observing the right state is
// a race (Conflict), safe to retry once.
func (s *orderService) transition(ctx context.Context, identity auth.Identity, id uuid.UUID, expected, next model.OrderStatus) (*model.Order, error) {
	current, err := s.ownedOrder(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if expected == statusAny {
		expected = current.Status
	}

	if current.Status != expected || !expected.CanTransitionTo(next) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(expected)).
			Str("to", string(next)).
			Msg("transition not permitted")
		return nil, model.ErrInvalidTransition
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, expected, next)
	if err != nil {
		return nil, err
	}

	// Notification is best effort and never fails the transition.
	event := model.NewOrderEvent(order.ID, order.Status)
	s.notifier.Publish(order.PartnerID, event)
	s.notifier.Publish(order.CustomerID, event)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(expected)).
		Str("to", string(order.Status)).
		Msg("order transitioned")

	return order, nil
}

// ownedOrder loads the order and enforces that the caller is the partner
// that owns it. Lifecycle verbs belong to the owning partner only.
func (s *orderService) ownedOrder(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	if !identity.IsPartner() {
		return nil, model.ErrUnauthorised
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.PartnerID != identity.UserID {
		s.logger.Warn().
			Str("order_id", id.String()).
			Int64("owner", order.PartnerID).
			Int64("caller", identity.UserID).
			Msg("ownership violation")
		return nil, model.ErrUnauthorised
	}

	return order, nil
}
