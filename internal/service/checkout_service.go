package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"curbside/internal/auth"
	"curbside/internal/catalog"
	"curbside/internal/idempotency"
	"curbside/internal/model"
	"curbside/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo      repository.OrderRepository
	gateway        catalog.Gateway
	notifier       Notifier
	idemStore      idempotency.Store // nil disables replay
	maxConcurrency int
	logger         zerolog.Logger
}

// NewCheckoutService creates a new checkout service. idemStore may be nil.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	gateway catalog.Gateway,
	notifier Notifier,
	idemStore idempotency.Store,
	maxConcurrency int,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:      orderRepo,
		gateway:        gateway,
		notifier:       notifier,
		idemStore:      idemStore,
		maxConcurrency: maxConcurrency,
		logger:         logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout validates every line against the catalog and creates one order
// per partner group. Groups run concurrently and independently: one
// partner's stale or unavailable item never blocks orders to the others.
func (s *checkoutService) Checkout(ctx context.Context, identity auth.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	if identity.IsPartner() {
		s.logger.Warn().Int64("user_id", identity.UserID).Msg("partner account attempted checkout")
		return nil, model.ErrUnauthorised
	}

	if idempotencyKey != "" && s.idemStore != nil {
		if resp, ok := s.recall(ctx, identity, idempotencyKey); ok {
			return resp, nil
		}
		// A lock failure only disables replay for this request; checkout
		// must not depend on the store being reachable.
		if ok, err := s.idemStore.TryLock(ctx, scope(identity), idempotencyKey); err != nil {
			s.logger.Warn().Err(err).Msg("idempotency lock failed, proceeding without replay")
		} else if !ok {
			// Lost the race with an in-flight duplicate; report conflict
			// rather than double-charging the cart.
			return nil, model.ErrConflict
		}
	}

	groups := groupByPartner(req.Lines)

	results := make([]model.GroupResult, len(groups))
	g := &errgroup.Group{}
	g.SetLimit(s.maxConcurrency)

	for i, group := range groups {
		g.Go(func() error {
			results[i] = s.processGroup(ctx, identity, group)
			return nil
		})
	}
	// Goroutines never return errors; failures are scoped per group.
	_ = g.Wait()

	resp := &model.CheckoutResponse{Results: results}

	if idempotencyKey != "" && s.idemStore != nil {
		s.remember(ctx, identity, idempotencyKey, resp)
	}

	return resp, nil
}

// partnerGroup is one partner's slice of the cart, line order preserved.
type partnerGroup struct {
	partnerID int64
	lines     []model.CartLine
}

// groupByPartner partitions cart lines by partner identity. Group order is
// deterministic for stable responses; line order within a group is kept.
func groupByPartner(lines []model.CartLine) []partnerGroup {
	byPartner := make(map[int64][]model.CartLine)
	for _, line := range lines {
		byPartner[line.PartnerID] = append(byPartner[line.PartnerID], line)
	}

	groups := make([]partnerGroup, 0, len(byPartner))
	for partnerID, partnerLines := range byPartner {
		groups = append(groups, partnerGroup{partnerID: partnerID, lines: partnerLines})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].partnerID < groups[j].partnerID
	})
	return groups
}

// processGroup validates and persists one partner group. It re-fetches
// every product from the catalog; the client-held price is never trusted.
func (s *checkoutService) processGroup(ctx context.Context, identity auth.Identity, group partnerGroup) model.GroupResult {
	var (
		total float64
		items = make([]model.OrderItem, 0, len(group.lines))
	)

	for i, line := range group.lines {
		product, err := s.gateway.GetProduct(ctx, line.ProductID)
		if err != nil {
			return s.groupFailure(group.partnerID, line.ProductID, err)
		}

		// A product listed under another partner does not exist from this
		// group's point of view.
		if product.PartnerID != group.partnerID {
			s.logger.Warn().
				Int64("product_id", line.ProductID).
				Int64("expected_partner", group.partnerID).
				Int64("actual_partner", product.PartnerID).
				Msg("cart line references another partner's product")
			return s.groupFailure(group.partnerID, line.ProductID, model.ErrProductNotFound)
		}

		if !product.IsAvailable {
			return s.groupFailure(group.partnerID, line.ProductID, model.ErrProductUnavailable)
		}

		// Subtotal from the freshly fetched price, never the client's.
		total += product.Price * float64(line.Quantity)
		items = append(items, model.OrderItem{
			ID:        uuid.New(),
			Position:  i,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	order, err := s.createOrder(ctx, identity, group.partnerID, total, items)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("partner_id", group.partnerID).
			Msg("failed to persist order")
		return model.GroupResult{
			PartnerID: group.partnerID,
			ErrorCode: model.ErrCodeInternalError,
			Message:   "failed to create order",
		}
	}

	// Creation event is best effort; the order exists regardless.
	event := model.NewOrderEvent(order.ID, order.Status)
	s.notifier.Publish(order.PartnerID, event)
	s.notifier.Publish(order.CustomerID, event)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int64("partner_id", order.PartnerID).
		Int64("customer_id", order.CustomerID).
		Float64("total_amount", order.TotalAmount).
		Int("item_count", len(order.Items)).
		Msg("order created")

	return model.GroupResult{PartnerID: group.partnerID, Order: order}
}

// createOrder persists the order and its items in one transaction. The
// redemption token is generated here, once, and never reissued.
func (s *checkoutService) createOrder(ctx context.Context, identity auth.Identity, partnerID int64, total float64, items []model.OrderItem) (order *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	order = &model.Order{
		ID:              uuid.New(),
		PartnerID:       partnerID,
		CustomerID:      identity.UserID,
		Status:          model.StatusInQueue,
		TotalAmount:     total,
		RedemptionToken: uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.Items = items
	return order, nil
}

// groupFailure maps a line-level error to a typed per-group failure.
func (s *checkoutService) groupFailure(partnerID, productID int64, err error) model.GroupResult {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		domainErr = model.NewDomainError(model.ErrCodeInternalError, "checkout failed")
	}

	s.logger.Warn().
		Int64("partner_id", partnerID).
		Int64("product_id", productID).
		Str("code", domainErr.Code).
		Msg("partner group rejected")

	return model.GroupResult{
		PartnerID: partnerID,
		ErrorCode: domainErr.Code,
		Message:   fmt.Sprintf("product %d: %s", productID, domainErr.Message),
	}
}

// validateRequest validates the checkout request.
func (s *checkoutService) validateRequest(req *model.CheckoutRequest) error {
	if req == nil {
		return fmt.Errorf("checkout request is nil")
	}

	if len(req.Lines) == 0 {
		return fmt.Errorf("checkout must contain at least one cart line")
	}

	for i, line := range req.Lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("line %d: product ID is required", i)
		}
		if line.PartnerID <= 0 {
			return fmt.Errorf("line %d: partner ID is required", i)
		}
		if line.Quantity <= 0 {
			s.logger.Warn().
				Int("line_index", i).
				Int64("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

// recall replays a previously stored checkout response for the key.
func (s *checkoutService) recall(ctx context.Context, identity auth.Identity, key string) (*model.CheckoutResponse, bool) {
	stored, ok, err := s.idemStore.Recall(ctx, scope(identity), key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency recall failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var resp model.CheckoutResponse
	if err := json.Unmarshal([]byte(stored), &resp); err != nil {
		s.logger.Warn().Err(err).Msg("stored idempotency payload unreadable")
		return nil, false
	}

	s.logger.Info().Int64("user_id", identity.UserID).Msg("checkout replayed from idempotency store")
	return &resp, true
}

// remember stores the response under the key for replay on retry.
func (s *checkoutService) remember(ctx context.Context, identity auth.Identity, key string, resp *model.CheckoutResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.idemStore.Remember(ctx, scope(identity), key, string(payload)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to remember checkout result")
	}
}

// scope namespaces idempotency keys per customer.
func scope(identity auth.Identity) string {
	return fmt.Sprintf("customer:%d", identity.UserID)
}
