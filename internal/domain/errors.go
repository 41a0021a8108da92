package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/Mtaasisi/POS-sub013/pkg/errors"
)

// Guard errors returned by stage transitions and submission preconditions.
// Each carries a stable code so API clients can branch without parsing text.

// CartEmptyError signals an operation that requires at least one line item.
func CartEmptyError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "CART_EMPTY",
		Message: "cart has no items",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// CustomerRequiredError signals an operation that requires a selected customer.
func CustomerRequiredError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "CUSTOMER_REQUIRED",
		Message: "no customer selected",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// DeliveryAddressRequiredError signals a non-pickup delivery missing its
// address or city.
func DeliveryAddressRequiredError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "DELIVERY_ADDRESS_REQUIRED",
		Message: "delivery address and city are required for this delivery method",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// PaymentMethodRequiredError signals review or submission without a payment
// method selected.
func PaymentMethodRequiredError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "PAYMENT_METHOD_REQUIRED",
		Message: "no payment method selected",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// NegativeAmountError signals a negative amount paid.
func NegativeAmountError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "NEGATIVE_AMOUNT",
		Message: "amount paid cannot be negative",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// CheckoutCompleteError signals any mutation attempted after submission.
func CheckoutCompleteError() *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "CHECKOUT_COMPLETE",
		Message: "transaction has already been submitted",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
}

// StageOrderError signals a forward jump that skips an intermediate stage.
func StageOrderError(from, to Stage) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "STAGE_ORDER",
		Message: fmt.Sprintf("cannot move from stage %s to %s", from, to),
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// PriceNotFoundError signals a catalog variant with no usable price for the
// requested tier and no base price to fall back on.
func PriceNotFoundError(variantID string, tier Tier) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "PRICE_NOT_FOUND",
		Message: fmt.Sprintf("no price available for variant %s at tier %s", variantID, tier),
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrInvalidInput,
	}
}

// SubmissionError wraps a failure from the order collaborator during submit.
// The transaction stays in review and the caller may retry.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order submission failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("order submission failed: %s", e.Reason)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// SubmissionFailedError surfaces a submit failure whose cause carries no
// structured status of its own, such as a network error reaching the order
// service.
func SubmissionFailedError(reason string, err error) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "SUBMISSION_FAILED",
		Message: reason,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}
