package domain

import "time"

// Tier is a customer pricing category affecting the resolved unit price.
type Tier string

// Customer pricing tiers.
const (
	TierRetail    Tier = "retail"
	TierWholesale Tier = "wholesale"
)

// Valid reports whether the tier is a known pricing tier.
func (t Tier) Valid() bool {
	return t == TierRetail || t == TierWholesale
}

// PaymentMethod is the closed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentTransfer    PaymentMethod = "transfer"
	PaymentInstallment PaymentMethod = "installment"
	PaymentOnDelivery  PaymentMethod = "payment_on_delivery"
)

// Valid reports whether the payment method is one of the accepted set.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentInstallment, PaymentOnDelivery:
		return true
	}
	return false
}

// DeliveryMethod describes how the sale leaves the shop.
type DeliveryMethod string

const (
	DeliveryPickup         DeliveryMethod = "pickup"
	DeliveryLocalTransport DeliveryMethod = "local_transport"
	DeliveryIntercityBus   DeliveryMethod = "intercity_bus"
	DeliveryAirCargo       DeliveryMethod = "air_cargo"
)

// Valid reports whether the delivery method is known.
func (d DeliveryMethod) Valid() bool {
	switch d {
	case DeliveryPickup, DeliveryLocalTransport, DeliveryIntercityBus, DeliveryAirCargo:
		return true
	}
	return false
}

// RequiresAddress reports whether the delivery method needs an address and city.
func (d DeliveryMethod) RequiresAddress() bool {
	return d != "" && d != DeliveryPickup
}

// Stage names one step of the checkout flow, in order.
type Stage string

const (
	StageBuilding          Stage = "building"
	StageCustomerSelection Stage = "customer_selection"
	StageDeliverySelection Stage = "delivery_selection"
	StagePaymentSelection  Stage = "payment_selection"
	StageReview            Stage = "review"
	StageSubmitted         Stage = "submitted"
)

// stageOrder maps each stage to its position in the forward sequence.
var stageOrder = map[Stage]int{
	StageBuilding:          0,
	StageCustomerSelection: 1,
	StageDeliverySelection: 2,
	StagePaymentSelection:  3,
	StageReview:            4,
	StageSubmitted:         5,
}

// Valid reports whether the stage is a known checkout stage.
func (s Stage) Valid() bool {
	_, ok := stageOrder[s]
	return ok
}

// Before reports whether s comes strictly earlier than other in the flow.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// Next returns the stage that follows s, or s itself for the terminal stage.
func (s Stage) Next() Stage {
	switch s {
	case StageBuilding:
		return StageCustomerSelection
	case StageCustomerSelection:
		return StageDeliverySelection
	case StageDeliverySelection:
		return StagePaymentSelection
	case StagePaymentSelection:
		return StageReview
	case StageReview:
		return StageSubmitted
	}
	return s
}

// Customer is the selected buyer for the transaction.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Tier  Tier   `json:"tier"`
}

// Transaction is the aggregate in-flight state threaded through the checkout
// stages: the cart plus every selection collected so far. Stage transitions
// operate on a clone so a rejected transition never corrupts the snapshot.
type Transaction struct {
	ID       string    `json:"id"`
	Stage    Stage     `json:"stage"`
	Cart     Cart      `json:"cart"`
	Customer *Customer `json:"customer,omitempty"`

	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	AmountPaid    int64         `json:"amount_paid"`

	DeliveryMethod  DeliveryMethod `json:"delivery_method,omitempty"`
	DeliveryAddress string         `json:"delivery_address,omitempty"`
	DeliveryCity    string         `json:"delivery_city,omitempty"`
	DeliveryNotes   string         `json:"delivery_notes,omitempty"`

	// Discount, Tax, and Shipping are independently settable adjustments in
	// minor currency units, each clamped at zero. They are never derived.
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTransaction creates an empty transaction in the building stage.
func NewTransaction(id string, now time.Time) *Transaction {
	return &Transaction{
		ID:        id,
		Stage:     StageBuilding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Tier returns the effective pricing tier: the selected customer's tier, or
// retail while no customer is chosen.
func (t *Transaction) Tier() Tier {
	if t.Customer != nil && t.Customer.Tier.Valid() {
		return t.Customer.Tier
	}
	return TierRetail
}

// Clone returns a deep copy of the transaction snapshot.
func (t *Transaction) Clone() *Transaction {
	cpy := *t
	cpy.Cart = t.Cart.Clone()
	if t.Customer != nil {
		customer := *t.Customer
		cpy.Customer = &customer
	}
	return &cpy
}

// Totals computes the derived totals for the current snapshot.
func (t *Transaction) Totals() Totals {
	return CalculateTotals(t.Cart.Lines, t.Discount, t.Tax, t.Shipping, t.AmountPaid)
}

// AdvanceGuard checks the precondition for moving forward from the current
// stage into target. It returns nil when the transition is allowed, or the
// typed guard error naming the missing precondition. The snapshot itself is
// never modified.
func (t *Transaction) AdvanceGuard(target Stage) error {
	switch {
	case t.Stage == StageSubmitted:
		return CheckoutCompleteError()
	case target != t.Stage.Next():
		return StageOrderError(t.Stage, target)
	}

	switch target {
	case StageCustomerSelection:
		if t.Cart.IsEmpty() {
			return CartEmptyError()
		}
	case StageDeliverySelection:
		if t.Customer == nil {
			return CustomerRequiredError()
		}
	case StagePaymentSelection:
		if t.DeliveryMethod.RequiresAddress() && (t.DeliveryAddress == "" || t.DeliveryCity == "") {
			return DeliveryAddressRequiredError()
		}
	case StageReview:
		if t.PaymentMethod == "" {
			return PaymentMethodRequiredError()
		}
	}
	return nil
}

// SubmitGuard checks that the snapshot is submittable: at least one line,
// a selected customer, and a non-negative amount paid.
func (t *Transaction) SubmitGuard() error {
	if t.Cart.IsEmpty() {
		return CartEmptyError()
	}
	if t.Customer == nil {
		return CustomerRequiredError()
	}
	if t.PaymentMethod == "" {
		return PaymentMethodRequiredError()
	}
	if t.AmountPaid < 0 {
		return NegativeAmountError()
	}
	return nil
}
