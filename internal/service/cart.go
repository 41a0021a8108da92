package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	"github.com/Mtaasisi/POS-sub013/internal/event"
	"github.com/Mtaasisi/POS-sub013/internal/pricing"
	"github.com/Mtaasisi/POS-sub013/internal/repository"
)

// Cart operation upper-bound limits to prevent register mistakes.
const (
	// MaxQuantityPerLine is the maximum quantity allowed for a single line.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct lines in a cart.
	MaxLinesPerCart = 50
	// MaxPriceMinor is the maximum unit price in minor units allowed per line.
	MaxPriceMinor = 100_000_00
)

// AddCatalogItemInput holds the parameters for adding a catalog item.
type AddCatalogItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// AddExternalItemInput holds the parameters for adding an off-catalog item.
type AddExternalItemInput struct {
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"required,gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityInput holds the parameters for updating a line quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// CartService implements the cart mutations of an in-progress transaction.
// Every mutation loads the snapshot, applies the change, persists it, and
// publishes a cart event.
type CartService struct {
	repo     repository.SessionRepository
	resolver *pricing.Resolver
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.SessionRepository, resolver *pricing.Resolver, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		resolver: resolver,
		producer: producer,
		logger:   logger,
	}
}

// AddCatalogItem resolves the price for the variant at the transaction's tier
// and adds it to the cart. A same product+variant catalog line merges by
// increasing quantity.
func (s *CartService) AddCatalogItem(ctx context.Context, transactionID string, input AddCatalogItemInput) (*domain.Transaction, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.VariantID == "" {
		return nil, apperrors.InvalidInput("variant id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.resolver.Resolve(ctx, input.ProductID, input.VariantID, txn.Tier())
	if err != nil {
		return nil, err
	}

	if existing := countQuantity(txn.Cart, input.ProductID, input.VariantID); existing+input.Quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerLine))
	}
	if len(txn.Cart.Lines) >= MaxLinesPerCart && countQuantity(txn.Cart, input.ProductID, input.VariantID) == 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d lines", MaxLinesPerCart))
	}

	line := domain.NewCatalogLine(
		input.ProductID, input.VariantID,
		resolved.ProductName, resolved.VariantName, resolved.SKU,
		resolved.UnitPrice, resolved.UnitCost,
		input.Quantity,
	)
	txn.Cart.AddLine(line)

	if err := s.saveAndNotify(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "catalog item added",
		slog.String("transaction_id", txn.ID),
		slog.String("product_id", input.ProductID),
		slog.String("variant_id", input.VariantID),
		slog.Int64("unit_price", resolved.UnitPrice),
		slog.Int("quantity", input.Quantity),
	)

	return txn, nil
}

// AddExternalItem adds an off-catalog line entered at the register. External
// lines never merge.
func (s *CartService) AddExternalItem(ctx context.Context, transactionID string, input AddExternalItemInput) (*domain.Transaction, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.UnitPrice < 0 {
		return nil, apperrors.InvalidInput("unit price must not be negative")
	}
	if input.UnitPrice > MaxPriceMinor {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unit price must not exceed %d", MaxPriceMinor))
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if len(txn.Cart.Lines) >= MaxLinesPerCart {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d lines", MaxLinesPerCart))
	}

	txn.Cart.AddLine(domain.NewExternalLine(input.Name, input.UnitPrice, input.Quantity))

	if err := s.saveAndNotify(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "external item added",
		slog.String("transaction_id", txn.ID),
		slog.String("name", input.Name),
		slog.Int64("unit_price", input.UnitPrice),
	)

	return txn, nil
}

// UpdateQuantity sets the quantity of a line. Zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, transactionID, lineID string, input UpdateQuantityInput) (*domain.Transaction, error) {
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}
	if input.Quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if input.Quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.Cart.SetQuantity(lineID, input.Quantity)

	if err := s.saveAndNotify(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// RemoveLine removes a line from the cart. Removing an absent line succeeds.
func (s *CartService) RemoveLine(ctx context.Context, transactionID, lineID string) (*domain.Transaction, error) {
	if lineID == "" {
		return nil, apperrors.InvalidInput("line id is required")
	}

	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.Cart.RemoveLine(lineID)

	if err := s.saveAndNotify(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// ClearCart removes all lines and publishes cart.cleared.
func (s *CartService) ClearCart(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.mutableTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	txn.Cart.Clear()
	txn.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCartCleared(ctx, txn.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
	}

	return txn, nil
}

// mutableTransaction loads the snapshot and rejects cart mutations on a
// submitted transaction.
func (s *CartService) mutableTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
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

func (s *CartService) saveAndNotify(ctx context.Context, txn *domain.Transaction) error {
	txn.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, txn); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishCartUpdated(ctx, txn); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("transaction_id", txn.ID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// countQuantity returns the current quantity of the catalog line matching the
// product and variant, or 0 when absent.
func countQuantity(cart domain.Cart, productID, variantID string) int {
	for _, line := range cart.Lines {
		if !line.External && line.ProductID == productID && line.VariantID == variantID {
			return line.Quantity
		}
	}
	return 0
}
