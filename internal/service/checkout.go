package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/internal/event"
	"github.com/Mtaasisi/POS-sub013/internal/repository"
)

// CustomerGetter fetches a customer from the directory.
// *client.CustomerClient satisfies this.
type CustomerGetter interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
}

// OrderCreator persists a completed sale. *client.OrderClient satisfies this.
type OrderCreator interface {
	CreateOrder(ctx context.Context, rec domain.OrderRecord) (*domain.OrderRecord, error)
}

// SelectCustomerInput holds the parameters for selecting a customer.
type SelectCustomerInput struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

// SetDeliveryInput holds the parameters for the delivery step.
type SetDeliveryInput struct {
	Method  domain.DeliveryMethod `json:"method" validate:"required"`
	Address string                `json:"address"`
	City    string                `json:"city"`
	Notes   string                `json:"notes"`
}

// SetPaymentInput holds the parameters for the payment step.
type SetPaymentInput struct {
	Method     domain.PaymentMethod `json:"method" validate:"required"`
	AmountPaid int64                `json:"amount_paid" validate:"gte=0"`
}

// SetChargesInput holds the discount, tax, and shipping adjustments.
// Negative values are coerced to zero.
type SetChargesInput struct {
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
}

// CheckoutService owns the checkout flow: stage transitions, per-stage
// selections, cancellation, and final submission to the order service.
type CheckoutService struct {
	repo      repository.SessionRepository
	customers CustomerGetter
	orders    OrderCreator
	producer  *event.Producer
	logger    *slog.Logger

	// inFlight tracks transactions with a submission in progress so rapid
	// repeated submits collapse to one order call.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	repo repository.SessionRepository,
	customers CustomerGetter,
	orders OrderCreator,
	producer *event.Producer,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		repo:      repo,
		customers: customers,
		orders:    orders,
		producer:  producer,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// Open creates a new transaction in the building stage.
func (s *CheckoutService) Open(ctx context.Context) (*domain.Transaction, error) {
	txn := domain.NewTransaction(uuid.New().String(), time.Now().UTC())

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction opened", slog.String("transaction_id", txn.ID))

	return txn, nil
}

// Get retrieves a transaction snapshot by ID.
func (s *CheckoutService) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// SelectCustomer resolves the customer from the directory and attaches it to
// the transaction. The customer's tier becomes the transaction's pricing tier.
func (s *CheckoutService) SelectCustomer(ctx context.Context, transactionID string, input SelectCustomerInput) (*domain.Transaction, error) {
	if input.CustomerID == "" {
		return nil, apperrors.InvalidInput("customer id is required")
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	txn.Customer = customer

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "customer selected",
		slog.String("transaction_id", txn.ID),
		slog.String("customer_id", customer.ID),
		slog.String("tier", string(customer.Tier)),
	)

	return txn, nil
}

// SetDelivery records the delivery method and, for non-pickup methods, the
// destination address.
func (s *CheckoutService) SetDelivery(ctx context.Context, transactionID string, input SetDeliveryInput) (*domain.Transaction, error) {
	if !input.Method.Valid() {
		return nil, apperrors.InvalidInput("unknown delivery method")
	}
	if input.Method.RequiresAddress() && (input.Address == "" || input.City == "") {
		return nil, domain.DeliveryAddressRequiredError()
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.DeliveryMethod = input.Method
	txn.DeliveryAddress = input.Address
	txn.DeliveryCity = input.City
	txn.DeliveryNotes = input.Notes

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// SetPayment records the payment method and the amount tendered.
func (s *CheckoutService) SetPayment(ctx context.Context, transactionID string, input SetPaymentInput) (*domain.Transaction, error) {
	if !input.Method.Valid() {
		return nil, apperrors.InvalidInput("unknown payment method")
	}
	if input.AmountPaid < 0 {
		return nil, domain.NegativeAmountError()
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.PaymentMethod = input.Method
	txn.AmountPaid = input.AmountPaid

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// SetCharges records the discount, tax, and shipping adjustments. Negative
// inputs are clamped to zero rather than rejected.
func (s *CheckoutService) SetCharges(ctx context.Context, transactionID string, input SetChargesInput) (*domain.Transaction, error) {
	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.Discount = max(int64(0), input.Discount)
	txn.Tax = max(int64(0), input.Tax)
	txn.Shipping = max(int64(0), input.Shipping)

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// Advance moves the transaction forward one stage. The guard runs on a clone
// so a rejected transition leaves the stored snapshot untouched.
func (s *CheckoutService) Advance(ctx context.Context, transactionID string, target domain.Stage) (*domain.Transaction, error) {
	if !target.Valid() {
		return nil, apperrors.InvalidInput("unknown stage")
	}

	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if err := txn.Clone().AdvanceGuard(target); err != nil {
		return nil, err
	}

	txn.Stage = target

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stage advanced",
		slog.String("transaction_id", txn.ID),
		slog.String("stage", string(target)),
	)

	return txn, nil
}

// Back moves the transaction to an earlier stage. Backward navigation is
// always allowed before submission and never clears collected fields.
func (s *CheckoutService) Back(ctx context.Context, transactionID string, target domain.Stage) (*domain.Transaction, error) {
	if !target.Valid() {
		return nil, apperrors.InvalidInput("unknown stage")
	}

	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if txn.Stage == domain.StageSubmitted {
		return nil, domain.CheckoutCompleteError()
	}
	if !target.Before(txn.Stage) {
		return nil, domain.StageOrderError(txn.Stage, target)
	}

	txn.Stage = target

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// Cancel abandons the checkout: any non-submitted stage returns to building
// with a cleared cart and a reset snapshot.
func (s *CheckoutService) Cancel(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if txn.Stage == domain.StageSubmitted {
		return nil, domain.CheckoutCompleteError()
	}

	cancelledFrom := txn.Stage

	txn.Stage = domain.StageBuilding
	txn.Cart.Clear()
	txn.Customer = nil
	txn.PaymentMethod = ""
	txn.AmountPaid = 0
	txn.DeliveryMethod = ""
	txn.DeliveryAddress = ""
	txn.DeliveryCity = ""
	txn.DeliveryNotes = ""
	txn.Discount = 0
	txn.Tax = 0
	txn.Shipping = 0

	if err := s.update(ctx, txn); err != nil {
		return nil, err
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCheckoutCancelled(ctx, txn.ID, cancelledFrom); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.cancelled event",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout cancelled",
		slog.String("transaction_id", txn.ID),
		slog.String("cancelled_from", string(cancelledFrom)),
	)

	return txn, nil
}

// Submit finalizes the sale: it validates the snapshot, persists the order
// through the order service exactly once, clears the cart, and marks the
// transaction submitted. A submission already in flight for the same
// transaction is rejected without a second order call. On an order service
// failure the transaction stays in review with the cart intact and a
// SubmissionError is returned so the cashier can retry.
func (s *CheckoutService) Submit(ctx context.Context, transactionID, cashierID string) (*domain.OrderRecord, error) {
	if transactionID == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	s.mu.Lock()
	if _, busy := s.inFlight[transactionID]; busy {
		s.mu.Unlock()
		return nil, apperrors.Conflict("submission already in progress")
	}
	s.inFlight[transactionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, transactionID)
		s.mu.Unlock()
	}()

	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if txn.Stage == domain.StageSubmitted {
		return nil, domain.CheckoutCompleteError()
	}
	if txn.Stage != domain.StageReview {
		return nil, domain.StageOrderError(txn.Stage, domain.StageSubmitted)
	}
	if err := txn.SubmitGuard(); err != nil {
		return nil, err
	}

	rec := domain.BuildOrderRecord(txn, cashierID, time.Now().UTC())

	created, err := s.orders.CreateOrder(ctx, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "order submission failed",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
		return nil, &domain.SubmissionError{Reason: "order service rejected the sale", Err: err}
	}

	txn.Stage = domain.StageSubmitted
	txn.Cart.Clear()

	if err := s.update(ctx, txn); err != nil {
		// The order already exists downstream. Failing here would prompt a
		// retry that creates a duplicate, so the sale counts as completed
		// and the stale snapshot is left to expire with the session TTL.
		s.logger.ErrorContext(ctx, "failed to persist submitted transaction",
			slog.String("transaction_id", txn.ID),
			slog.String("order_id", created.OrderID),
			slog.String("error", err.Error()),
		)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishSaleCompleted(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.completed event",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "sale completed",
		slog.String("transaction_id", txn.ID),
		slog.String("order_id", created.OrderID),
		slog.String("number", created.Number),
		slog.Int64("grand_total", created.Totals.GrandTotal),
	)

	return created, nil
}

// mutableTransaction loads the snapshot and rejects mutations after submission.
func (s *CheckoutService) mutableTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if transactionID == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	txn, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if txn.Stage == domain.StageSubmitted {
		return nil, domain.CheckoutCompleteError()
	}

	return txn, nil
}

func (s *CheckoutService) update(ctx context.Context, txn *domain.Transaction) error {
	txn.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, txn); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}
