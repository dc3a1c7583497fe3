package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"curbside/internal/auth"
	"curbside/internal/catalog"
	"curbside/internal/handler"
	"curbside/internal/hub"
	"curbside/internal/model"
	"curbside/internal/repository"
	"curbside/internal/router"
	"curbside/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves a fixed product set over the catalog gateway's wire
// format.
func fakeCatalog(t *testing.T, products map[int64]model.Product) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := strings.TrimPrefix(r.URL.Path, "/api/products/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		product, ok := products[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(product)
	}))
	t.Cleanup(server.Close)

	return server
}

type testServer struct {
	handler http.Handler
	tokens  *auth.Tokens
	hub     *hub.Hub
}

func setupTestServer(t *testing.T, testDB *TestDB, catalogURL string) *testServer {
	t.Helper()

	logger := zerolog.Nop()

	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	gateway := catalog.NewHTTPGateway(catalogURL, time.Second, logger)
	tokens := auth.NewTokens("integration-secret", "curbside-test", time.Hour)

	eventHub := hub.New(16, logger)
	t.Cleanup(eventHub.Close)

	checkoutService := service.NewCheckoutService(orderRepo, gateway, eventHub, nil, 4, logger)
	orderService := service.NewOrderService(orderRepo, eventHub, logger)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	wsHandler := hub.NewWebSocketHandler(eventHub, tokens, logger)

	return &testServer{
		handler: router.New(checkoutHandler, orderHandler, wsHandler, tokens, logger),
		tokens:  tokens,
		hub:     eventHub,
	}
}

func (ts *testServer) token(t *testing.T, identity auth.Identity) string {
	t.Helper()
	token, err := ts.tokens.Issue(identity)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func TestCheckoutAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	catalogServer := fakeCatalog(t, map[int64]model.Product{
		7: {ID: 7, PartnerID: 1, Name: "Flat White", Price: 4.50, IsAvailable: true},
		8: {ID: 8, PartnerID: 1, Name: "Croissant", Price: 3.25, IsAvailable: true},
		9: {ID: 9, PartnerID: 2, Name: "Bento Box", Price: 12.00, IsAvailable: false},
	})
	ts := setupTestServer(t, testDB, catalogServer.URL)

	customerToken := ts.token(t, auth.Identity{UserID: 10, Role: auth.RoleCustomer})
	partnerToken := ts.token(t, auth.Identity{UserID: 1, Role: auth.RolePartner})

	t.Run("checkout splits the cart per partner", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := ts.do(t, http.MethodPost, "/api/customer/checkout", customerToken, model.CheckoutRequest{
			Lines: []model.CartLine{
				{ProductID: 7, PartnerID: 1, Quantity: 2, UnitPrice: 0.01}, // stale client price, ignored
				{ProductID: 8, PartnerID: 1, Quantity: 1},
				{ProductID: 9, PartnerID: 2, Quantity: 1},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Results, 2)

		// Partner 1's group succeeds with fresh catalog prices.
		first := resp.Results[0]
		require.NotNil(t, first.Order)
		assert.Equal(t, int64(1), first.Order.PartnerID)
		assert.Equal(t, model.StatusInQueue, first.Order.Status)
		assert.InDelta(t, 2*4.50+3.25, first.Order.TotalAmount, 0.001)
		assert.NotEmpty(t, first.Order.RedemptionToken)

		// Partner 2's group fails because the product is unavailable.
		second := resp.Results[1]
		assert.Nil(t, second.Order)
		assert.Equal(t, model.ErrCodeProductUnavailable, second.ErrorCode)

		// Only the successful group is persisted.
		partnerOrders := ts.do(t, http.MethodGet, "/api/partner/orders", partnerToken, nil)
		require.Equal(t, http.StatusOK, partnerOrders.Code)

		var orders []model.Order
		require.NoError(t, json.NewDecoder(partnerOrders.Body).Decode(&orders))
		assert.Len(t, orders, 1)
	})

	t.Run("checkout rejects an unknown product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := ts.do(t, http.MethodPost, "/api/customer/checkout", customerToken, model.CheckoutRequest{
			Lines: []model.CartLine{{ProductID: 999, PartnerID: 1, Quantity: 1}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, model.ErrCodeProductNotFound, resp.Results[0].ErrorCode)
	})

	t.Run("checkout rejects a partner account", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/customer/checkout", partnerToken, model.CheckoutRequest{
			Lines: []model.CartLine{{ProductID: 7, PartnerID: 1, Quantity: 1}},
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("checkout without a credential", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/api/customer/checkout", "", model.CheckoutRequest{
			Lines: []model.CartLine{{ProductID: 7, PartnerID: 1, Quantity: 1}},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOrderLifecycleAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	catalogServer := fakeCatalog(t, map[int64]model.Product{
		7: {ID: 7, PartnerID: 1, Name: "Flat White", Price: 4.50, IsAvailable: true},
	})
	ts := setupTestServer(t, testDB, catalogServer.URL)

	customerToken := ts.token(t, auth.Identity{UserID: 10, Role: auth.RoleCustomer})
	partnerToken := ts.token(t, auth.Identity{UserID: 1, Role: auth.RolePartner})
	otherPartnerToken := ts.token(t, auth.Identity{UserID: 2, Role: auth.RolePartner})

	checkout := func(t *testing.T) model.Order {
		w := ts.do(t, http.MethodPost, "/api/customer/checkout", customerToken, model.CheckoutRequest{
			Lines: []model.CartLine{{ProductID: 7, PartnerID: 1, Quantity: 1}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Len(t, resp.Results, 1)
		require.NotNil(t, resp.Results[0].Order)
		return *resp.Results[0].Order
	}

	t.Run("full lifecycle through the API", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := checkout(t)
		base := "/api/partner/orders/" + order.ID.String()

		for _, step := range []struct {
			action string
			want   model.OrderStatus
		}{
			{"accept", model.StatusInProcess},
			{"ready", model.StatusReady},
			{"complete", model.StatusCompleted},
		} {
			w := ts.do(t, http.MethodPost, base+"/"+step.action, partnerToken, nil)
			require.Equal(t, http.StatusOK, w.Code, step.action)

			var got model.Order
			require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
			assert.Equal(t, step.want, got.Status)
			assert.Equal(t, order.RedemptionToken, got.RedemptionToken)
		}

		// Completed orders can be cleaned up.
		w := ts.do(t, http.MethodDelete, base, partnerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, http.MethodGet, "/api/partner/orders/"+order.ID.String(), partnerToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("skipping a state is rejected", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := checkout(t)

		w := ts.do(t, http.MethodPost, "/api/partner/orders/"+order.ID.String()+"/complete", partnerToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("cancel before ready, not after", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := checkout(t)
		base := "/api/partner/orders/" + order.ID.String()

		w := ts.do(t, http.MethodPost, base+"/accept", partnerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, http.MethodPost, base+"/ready", partnerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = ts.do(t, http.MethodPost, base+"/cancel", partnerToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("another partner cannot touch the order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := checkout(t)

		w := ts.do(t, http.MethodPost, "/api/partner/orders/"+order.ID.String()+"/accept", otherPartnerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = ts.do(t, http.MethodGet, "/api/partner/orders/"+order.ID.String(), otherPartnerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("customer sees their order but cannot transition it", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		order := checkout(t)

		w := ts.do(t, http.MethodGet, "/api/customer/orders/"+order.ID.String(), customerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, order.ID, got.ID)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 4.50, got.Items[0].UnitPrice)

		w = ts.do(t, http.MethodPost, "/api/partner/orders/"+order.ID.String()+"/accept", customerToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("health endpoint needs no credential", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestWebSocketNotifications_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	catalogServer := fakeCatalog(t, map[int64]model.Product{
		7: {ID: 7, PartnerID: 1, Name: "Flat White", Price: 4.50, IsAvailable: true},
	})
	ts := setupTestServer(t, testDB, catalogServer.URL)

	httpServer := httptest.NewServer(ts.handler)
	defer httpServer.Close()

	customerToken := ts.token(t, auth.Identity{UserID: 10, Role: auth.RoleCustomer})
	partnerToken := ts.token(t, auth.Identity{UserID: 1, Role: auth.RolePartner})

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/api/ws/orders"

	t.Run("both sides receive order updates", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		customerConn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+customerToken, nil)
		require.NoError(t, err)
		defer customerConn.Close()

		partnerConn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+partnerToken, nil)
		require.NoError(t, err)
		defer partnerConn.Close()

		// Checkout produces the first event on both connections.
		w := ts.do(t, http.MethodPost, "/api/customer/checkout", customerToken, model.CheckoutRequest{
			Lines: []model.CartLine{{ProductID: 7, PartnerID: 1, Quantity: 1}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.CheckoutResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		orderID := resp.Results[0].Order.ID

		readEvent := func(conn *websocket.Conn) model.OrderEvent {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			var event model.OrderEvent
			require.NoError(t, conn.ReadJSON(&event))
			return event
		}

		event := readEvent(customerConn)
		assert.Equal(t, model.EventOrderUpdate, event.Type)
		assert.Equal(t, orderID, event.OrderID)
		assert.Equal(t, model.StatusInQueue, event.Status)

		event = readEvent(partnerConn)
		assert.Equal(t, orderID, event.OrderID)
		assert.Equal(t, model.StatusInQueue, event.Status)

		// A transition produces the next one.
		w = ts.do(t, http.MethodPost, "/api/partner/orders/"+orderID.String()+"/accept", partnerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		event = readEvent(customerConn)
		assert.Equal(t, model.StatusInProcess, event.Status)

		event = readEvent(partnerConn)
		assert.Equal(t, model.StatusInProcess, event.Status)
	})

	t.Run("invalid token is rejected before the upgrade", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
