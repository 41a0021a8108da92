package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
	"github.com/Mtaasisi/POS-sub013/pkg/httputil"
	"github.com/Mtaasisi/POS-sub013/pkg/middleware"
	"github.com/Mtaasisi/POS-sub013/pkg/validator"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/internal/service"
)

// POSHandler handles HTTP requests for the POS transaction endpoints.
type POSHandler struct {
	cart     *service.CartService
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewPOSHandler creates a new POS HTTP handler.
func NewPOSHandler(cart *service.CartService, checkout *service.CheckoutService, logger *slog.Logger) *POSHandler {
	return &POSHandler{
		cart:     cart,
		checkout: checkout,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddLineRequest is the JSON request body for adding a catalog item.
type AddLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// AddExternalLineRequest is the JSON request body for adding an off-catalog item.
type AddExternalLineRequest struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// SetQuantityRequest is the JSON request body for updating a line quantity.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// SelectCustomerRequest is the JSON request body for selecting the customer.
type SelectCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

// SetDeliveryRequest is the JSON request body for the delivery step.
type SetDeliveryRequest struct {
	Method  string `json:"method" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Notes   string `json:"notes"`
}

// SetPaymentRequest is the JSON request body for the payment step.
type SetPaymentRequest struct {
	Method     string `json:"method" validate:"required"`
	AmountPaid int64  `json:"amount_paid" validate:"gte=0"`
}

// SetChargesRequest is the JSON request body for the charges adjustment.
type SetChargesRequest struct {
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
}

// StageRequest is the JSON request body for stage transitions.
type StageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// TransactionResponse is the snapshot plus its live derived totals.
type TransactionResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	Totals      domain.Totals       `json:"totals"`
}

func transactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{Transaction: txn, Totals: txn.Totals()}
}

// --- Handlers ---

// OpenTransaction handles POST /api/v1/pos/transactions.
func (h *POSHandler) OpenTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.checkout.Open(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: transactionResponse(txn)})
}

// GetTransaction handles GET /api/v1/pos/transactions/{id}.
func (h *POSHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.checkout.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// AddLine handles POST /api/v1/pos/transactions/{id}/lines.
func (h *POSHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.cart.AddCatalogItem(r.Context(), chi.URLParam(r, "id"), service.AddCatalogItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// AddExternalLine handles POST /api/v1/pos/transactions/{id}/lines/external.
func (h *POSHandler) AddExternalLine(w http.ResponseWriter, r *http.Request) {
	var req AddExternalLineRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.cart.AddExternalItem(r.Context(), chi.URLParam(r, "id"), service.AddExternalItemInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// SetQuantity handles PUT /api/v1/pos/transactions/{id}/lines/{lineId}.
func (h *POSHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"),
		service.UpdateQuantityInput{Quantity: req.Quantity})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// RemoveLine handles DELETE /api/v1/pos/transactions/{id}/lines/{lineId}.
func (h *POSHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	txn, err := h.cart.RemoveLine(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "lineId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// ClearCart handles DELETE /api/v1/pos/transactions/{id}/lines.
func (h *POSHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	txn, err := h.cart.ClearCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// SelectCustomer handles PUT /api/v1/pos/transactions/{id}/customer.
func (h *POSHandler) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	var req SelectCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.SelectCustomer(r.Context(), chi.URLParam(r, "id"),
		service.SelectCustomerInput{CustomerID: req.CustomerID})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// SetDelivery handles PUT /api/v1/pos/transactions/{id}/delivery.
func (h *POSHandler) SetDelivery(w http.ResponseWriter, r *http.Request) {
	var req SetDeliveryRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.SetDelivery(r.Context(), chi.URLParam(r, "id"), service.SetDeliveryInput{
		Method:  domain.DeliveryMethod(req.Method),
		Address: req.Address,
		City:    req.City,
		Notes:   req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// SetPayment handles PUT /api/v1/pos/transactions/{id}/payment.
func (h *POSHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req SetPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.SetPayment(r.Context(), chi.URLParam(r, "id"), service.SetPaymentInput{
		Method:     domain.PaymentMethod(req.Method),
		AmountPaid: req.AmountPaid,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// SetCharges handles PUT /api/v1/pos/transactions/{id}/charges.
func (h *POSHandler) SetCharges(w http.ResponseWriter, r *http.Request) {
	var req SetChargesRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.SetCharges(r.Context(), chi.URLParam(r, "id"), service.SetChargesInput{
		Discount: req.Discount,
		Tax:      req.Tax,
		Shipping: req.Shipping,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// Advance handles POST /api/v1/pos/transactions/{id}/advance.
func (h *POSHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req StageRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.Advance(r.Context(), chi.URLParam(r, "id"), domain.Stage(req.Stage))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// Back handles POST /api/v1/pos/transactions/{id}/back.
func (h *POSHandler) Back(w http.ResponseWriter, r *http.Request) {
	var req StageRequest
	if !h.decode(w, r, &req) {
		return
	}

	txn, err := h.checkout.Back(r.Context(), chi.URLParam(r, "id"), domain.Stage(req.Stage))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// Submit handles POST /api/v1/pos/transactions/{id}/submit.
func (h *POSHandler) Submit(w http.ResponseWriter, r *http.Request) {
	cashierID := middleware.CashierIDFromContext(r.Context())

	rec, err := h.checkout.Submit(r.Context(), chi.URLParam(r, "id"), cashierID)
	if err != nil {
		// A submission failure with no structured cause (a network error,
		// for example) would otherwise fall through to a generic 500.
		var subErr *domain.SubmissionError
		var appErr *apperrors.AppError
		if errors.As(err, &subErr) && !errors.As(err, &appErr) {
			err = domain.SubmissionFailedError(subErr.Reason, subErr.Err)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: rec})
}

// Cancel handles POST /api/v1/pos/transactions/{id}/cancel.
func (h *POSHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	txn, err := h.checkout.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: transactionResponse(txn)})
}

// decode reads and validates a JSON request body, writing the error response
// itself when the body is malformed or invalid.
func (h *POSHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}

	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}

	return true
}
