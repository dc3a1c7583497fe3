package handler

import (
	"context"

	"curbside/internal/auth"
	"curbside/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCheckoutService is a mock implementation of service.CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, identity auth.Identity, req *model.CheckoutRequest, idempotencyKey string) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, identity, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Accept(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) MarkReady(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) Complete(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) Cancel(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	args := m.Called(ctx, identity, id)
	return args.Error(0)
}

func (m *MockOrderService) GetOrder(ctx context.Context, identity auth.Identity, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) ListCustomerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ListPartnerOrders(ctx context.Context, identity auth.Identity) ([]model.Order, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}
