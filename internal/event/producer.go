package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mtaasisi/POS-sub013/internal/domain"
	pkgkafka "github.com/Mtaasisi/POS-sub013/pkg/kafka"
)

// Kafka topic constants for POS domain events.
const (
	TopicCartUpdated       = "pos.cart.updated"
	TopicCartCleared       = "pos.cart.cleared"
	TopicSaleCompleted     = "pos.sale.completed"
	TopicCheckoutCancelled = "pos.checkout.cancelled"
)

// Aggregate type constant.
const AggregateTypeTransaction = "transaction"

// Source identifier for events originating from the POS service.
const SourcePOSService = "pos-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	TransactionID string         `json:"transaction_id"`
	Lines         []CartLineData `json:"lines"`
	ItemCount     int            `json:"item_count"`
	Subtotal      int64          `json:"subtotal"`
}

// CartLineData is the line payload within cart events.
type CartLineData struct {
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id,omitempty"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	External  bool   `json:"external,omitempty"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	TransactionID string `json:"transaction_id"`
}

// SaleCompletedData is the payload for a sale.completed event.
type SaleCompletedData struct {
	TransactionID string               `json:"transaction_id"`
	OrderID       string               `json:"order_id"`
	Number        string               `json:"number"`
	CashierID     string               `json:"cashier_id"`
	CustomerID    string               `json:"customer_id"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	ItemCount     int                  `json:"item_count"`
	GrandTotal    int64                `json:"grand_total"`
	AmountPaid    int64                `json:"amount_paid"`
}

// CheckoutCancelledData is the payload for a checkout.cancelled event.
type CheckoutCancelledData struct {
	TransactionID string       `json:"transaction_id"`
	Stage         domain.Stage `json:"stage"`
}

// Producer publishes POS domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the POS service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event for the transaction.
func (p *Producer) PublishCartUpdated(ctx context.Context, txn *domain.Transaction) error {
	lines := make([]CartLineData, len(txn.Cart.Lines))
	for i, line := range txn.Cart.Lines {
		lines[i] = CartLineData{
			LineID:    line.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      line.Name,
			SKU:       line.SKU,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			External:  line.External,
		}
	}

	data := CartUpdatedData{
		TransactionID: txn.ID,
		Lines:         lines,
		ItemCount:     txn.Cart.ItemCount(),
		Subtotal:      txn.Cart.Subtotal(),
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, txn.ID, AggregateTypeTransaction, SourcePOSService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("transaction_id", txn.ID),
		slog.Int("item_count", txn.Cart.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, transactionID string) error {
	data := CartClearedData{TransactionID: transactionID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, transactionID, AggregateTypeTransaction, SourcePOSService, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("transaction_id", transactionID),
	)

	return nil
}

// PublishSaleCompleted publishes a sale.completed event from the receipt.
func (p *Producer) PublishSaleCompleted(ctx context.Context, rec *domain.OrderRecord) error {
	var itemCount int
	for _, line := range rec.Lines {
		itemCount += line.Quantity
	}

	data := SaleCompletedData{
		TransactionID: rec.TransactionID,
		OrderID:       rec.OrderID,
		Number:        rec.Number,
		CashierID:     rec.CashierID,
		CustomerID:    rec.CustomerID,
		PaymentMethod: rec.PaymentMethod,
		ItemCount:     itemCount,
		GrandTotal:    rec.Totals.GrandTotal,
		AmountPaid:    rec.Totals.AmountPaid,
	}

	event, err := pkgkafka.NewEvent(TopicSaleCompleted, rec.TransactionID, AggregateTypeTransaction, SourcePOSService, data)
	if err != nil {
		return fmt.Errorf("create sale.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleCompleted, event); err != nil {
		return fmt.Errorf("publish sale.completed event: %w", err)
	}

	p.logger.InfoContext(ctx, "published sale.completed event",
		slog.String("transaction_id", rec.TransactionID),
		slog.String("order_id", rec.OrderID),
		slog.Int64("grand_total", rec.Totals.GrandTotal),
	)

	return nil
}

// PublishCheckoutCancelled publishes a checkout.cancelled event noting the
// stage the transaction was abandoned from.
func (p *Producer) PublishCheckoutCancelled(ctx context.Context, transactionID string, stage domain.Stage) error {
	data := CheckoutCancelledData{TransactionID: transactionID, Stage: stage}

	event, err := pkgkafka.NewEvent(TopicCheckoutCancelled, transactionID, AggregateTypeTransaction, SourcePOSService, data)
	if err != nil {
		return fmt.Errorf("create checkout.cancelled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCheckoutCancelled, event); err != nil {
		return fmt.Errorf("publish checkout.cancelled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published checkout.cancelled event",
		slog.String("transaction_id", transactionID),
		slog.String("stage", string(stage)),
	)

	return nil
}
