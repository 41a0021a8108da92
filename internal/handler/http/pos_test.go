package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
	"github.com/Mtaasisi/POS-sub013/pkg/httputil"
	pkgkafka "github.com/Mtaasisi/POS-sub013/pkg/kafka"
	"github.com/Mtaasisi/POS-sub013/pkg/middleware"

	"github.com/Mtaasisi/POS-sub013/internal/client"
	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/internal/event"
	"github.com/Mtaasisi/POS-sub013/internal/pricing"
	"github.com/Mtaasisi/POS-sub013/internal/service"
)

// ============================================================================
// Mocks
// ============================================================================

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *mockSessionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetVariant(ctx context.Context, productID, variantID string) (*client.Variant, error) {
	args := m.Called(ctx, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Variant), args.Error(1)
}

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) CreateOrder(ctx context.Context, rec domain.OrderRecord) (*domain.OrderRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderRecord), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

type testEnv struct {
	repo      *mockSessionRepository
	catalog   *mockCatalog
	customers *mockCustomers
	orders    *mockOrders
	router    http.Handler
}

// allowAll is a token validator that accepts any token as cashier-1.
func allowAll(string) (*middleware.Claims, error) {
	return &middleware.Claims{CashierID: "cashier-1", Name: "Asha", Role: "cashier"}, nil
}

// setupEnv wires the full production route layout over mocked collaborators
// so that middleware behavior is tested end-to-end.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:      new(mockSessionRepository),
		catalog:   new(mockCatalog),
		customers: new(mockCustomers),
		orders:    new(mockOrders),
	}

	logger := testLogger()
	producer := testEventProducer()
	cartSvc := service.NewCartService(env.repo, pricing.NewResolver(env.catalog), producer, logger)
	checkoutSvc := service.NewCheckoutService(env.repo, env.customers, env.orders, producer, logger)

	r := chi.NewRouter()
	posHandler := NewPOSHandler(cartSvc, checkoutSvc, logger)
	r.Route("/api/v1/pos/transactions", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(allowAll))

		r.Post("/", posHandler.OpenTransaction)
		r.Get("/{id}", posHandler.GetTransaction)
		r.Post("/{id}/lines", posHandler.AddLine)
		r.Post("/{id}/lines/external", posHandler.AddExternalLine)
		r.Put("/{id}/lines/{lineId}", posHandler.SetQuantity)
		r.Delete("/{id}/lines/{lineId}", posHandler.RemoveLine)
		r.Delete("/{id}/lines", posHandler.ClearCart)
		r.Put("/{id}/customer", posHandler.SelectCustomer)
		r.Put("/{id}/delivery", posHandler.SetDelivery)
		r.Put("/{id}/payment", posHandler.SetPayment)
		r.Put("/{id}/charges", posHandler.SetCharges)
		r.Post("/{id}/advance", posHandler.Advance)
		r.Post("/{id}/back", posHandler.Back)
		r.Post("/{id}/submit", posHandler.Submit)
		r.Post("/{id}/cancel", posHandler.Cancel)
	})
	env.router = r

	return env
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func reviewTransaction() *domain.Transaction {
	txn := domain.NewTransaction("txn-1", time.Now().UTC())
	txn.Cart.AddLine(domain.LineItem{
		ID: "line-1", ProductID: "prod-1", VariantID: "var-1",
		Name: "iPhone 14", UnitPrice: 250000, Quantity: 1,
	})
	txn.Customer = &domain.Customer{ID: "cust-1", Name: "Asha", Tier: domain.TierRetail}
	txn.DeliveryMethod = domain.DeliveryPickup
	txn.PaymentMethod = domain.PaymentCash
	txn.AmountPaid = 250000
	txn.Stage = domain.StageReview
	return txn
}

// ============================================================================
// Open / Get
// ============================================================================

func TestOpenTransaction_Returns201(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestGetTransaction_IncludesTotals(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	txn.Discount = 50000
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/pos/transactions/txn-1", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TransactionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "txn-1", resp.Data.Transaction.ID)
	assert.Equal(t, int64(250000), resp.Data.Totals.Subtotal)
	assert.Equal(t, int64(200000), resp.Data.Totals.GrandTotal)
}

func TestGetTransaction_NotFound(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Get", mock.Anything, "missing").Return(nil, apperrors.NotFound("transaction", "missing"))

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/pos/transactions/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

// ============================================================================
// Cart endpoints
// ============================================================================

func TestAddLine_Success(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Get", mock.Anything, "txn-1").Return(domain.NewTransaction("txn-1", time.Now().UTC()), nil)
	env.catalog.On("GetVariant", mock.Anything, "prod-1", "var-1").Return(&client.Variant{
		ProductID: "prod-1", VariantID: "var-1", ProductName: "iPhone 14",
		SKU: "IP14", SellingPrice: 250000, CostPrice: 200000,
	}, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/lines", AddLineRequest{
		ProductID: "prod-1", VariantID: "var-1", Quantity: 2,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TransactionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data.Transaction.Cart.Lines, 1)
	assert.Equal(t, int64(500000), resp.Data.Totals.Subtotal)
}

func TestAddLine_ValidationError(t *testing.T) {
	env := setupEnv(t)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/lines", AddLineRequest{
		ProductID: "prod-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "variant_id")
}

func TestAddLine_PriceNotFound(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Get", mock.Anything, "txn-1").Return(domain.NewTransaction("txn-1", time.Now().UTC()), nil)
	env.catalog.On("GetVariant", mock.Anything, "prod-1", "var-missing").
		Return(nil, apperrors.NotFound("variant", "var-missing"))

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/lines", AddLineRequest{
		ProductID: "prod-1", VariantID: "var-missing", Quantity: 1,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PRICE_NOT_FOUND", resp.Error.Code)
}

func TestAddExternalLine_Success(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Get", mock.Anything, "txn-1").Return(domain.NewTransaction("txn-1", time.Now().UTC()), nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/lines/external", AddExternalLineRequest{
		Name: "Screen repair", UnitPrice: 15000, Quantity: 1,
	})

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSetQuantity_RemovesLineAtZero(t *testing.T) {
	env := setupEnv(t)
	txn := domain.NewTransaction("txn-1", time.Now().UTC())
	txn.Cart.AddLine(domain.LineItem{ID: "line-1", ProductID: "prod-1", VariantID: "var-1", UnitPrice: 1000, Quantity: 2})
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPut, "/api/v1/pos/transactions/txn-1/lines/line-1", SetQuantityRequest{Quantity: 0})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TransactionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Data.Transaction.Cart.Lines)
}

func TestClearCart_Success(t *testing.T) {
	env := setupEnv(t)
	txn := domain.NewTransaction("txn-1", time.Now().UTC())
	txn.Cart.AddLine(domain.LineItem{ID: "line-1", ProductID: "prod-1", VariantID: "var-1", UnitPrice: 1000, Quantity: 2})
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodDelete, "/api/v1/pos/transactions/txn-1/lines", nil)

	require.Equal(t, http.StatusOK, rec.Code)
}

// ============================================================================
// Checkout endpoints
// ============================================================================

func TestSelectCustomer_Success(t *testing.T) {
	env := setupEnv(t)
	txn := domain.NewTransaction("txn-1", time.Now().UTC())
	txn.Stage = domain.StageCustomerSelection
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.customers.On("GetCustomer", mock.Anything, "cust-1").
		Return(&domain.Customer{ID: "cust-1", Name: "Asha", Tier: domain.TierWholesale}, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPut, "/api/v1/pos/transactions/txn-1/customer", SelectCustomerRequest{CustomerID: "cust-1"})

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSetDelivery_MissingAddressRejected(t *testing.T) {
	env := setupEnv(t)

	rec := doRequest(t, env.router, http.MethodPut, "/api/v1/pos/transactions/txn-1/delivery", SetDeliveryRequest{
		Method: "air_cargo",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DELIVERY_ADDRESS_REQUIRED", resp.Error.Code)
}

func TestAdvance_GuardFailureReturnsTypedCode(t *testing.T) {
	env := setupEnv(t)
	env.repo.On("Get", mock.Anything, "txn-1").Return(domain.NewTransaction("txn-1", time.Now().UTC()), nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/advance", StageRequest{Stage: "customer_selection"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CART_EMPTY", resp.Error.Code)
}

func TestSubmit_ReturnsReceipt(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	receipt := domain.BuildOrderRecord(txn, "cashier-1", time.Now().UTC())
	receipt.OrderID = "ord-1"
	receipt.Number = "SALE-004213"
	env.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("domain.OrderRecord")).Return(&receipt, nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/submit", nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.OrderRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SALE-004213", resp.Data.Number)
	assert.Equal(t, "cashier-1", resp.Data.CashierID)
}

func TestSubmit_OrderFailureReturns409(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("domain.OrderRecord")).
		Return(nil, apperrors.Conflict("insufficient stock"))

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/submit", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestSubmit_NetworkFailureReturns502(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("domain.OrderRecord")).
		Return(nil, errors.New("dial tcp 10.0.0.5:8003: connect: connection refused"))

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/submit", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SUBMISSION_FAILED", resp.Error.Code)
	assert.Equal(t, "order service rejected the sale", resp.Error.Message)
}

func TestSubmit_PersistFailureStillReturnsReceipt(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).
		Return(errors.New("redis: connection pool timeout"))

	receipt := domain.BuildOrderRecord(txn, "cashier-1", time.Now().UTC())
	receipt.OrderID = "ord-1"
	receipt.Number = "SALE-004213"
	env.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("domain.OrderRecord")).Return(&receipt, nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/submit", nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.OrderRecord `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SALE-004213", resp.Data.Number)
	env.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestCancel_Success(t *testing.T) {
	env := setupEnv(t)
	txn := reviewTransaction()
	env.repo.On("Get", mock.Anything, "txn-1").Return(txn, nil)
	env.repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/pos/transactions/txn-1/cancel", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TransactionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.StageBuilding, resp.Data.Transaction.Stage)
	assert.Empty(t, resp.Data.Transaction.Cart.Lines)
}

// ============================================================================
// Middleware
// ============================================================================

func TestAuth_MissingTokenRejected(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/transactions/txn-1", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContentTypeJSON_RejectsNonJSON(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/transactions/", bytes.NewBufferString("plain"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}
