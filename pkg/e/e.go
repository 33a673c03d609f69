package e

import (
	"errors"
	"fmt"
)

// Классы ошибок. Конкретные ошибки ниже оборачивают один из них,
// поэтому errors.Is работает на обоих уровнях.
var (
	ErrValidation   = errors.New("validation error")
	ErrPersistence  = errors.New("persistence error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBounds       = errors.New("bounds exceeded")
	ErrUnavailable  = errors.New("configuration unavailable")
	// ErrNotPersisted — бэкенд доступен только на чтение, снимок не сохранён.
	ErrNotPersisted = errors.New("not persisted")
)

var (
	// 400 Bad Request
	ErrInvalidSnapshot        = fmt.Errorf("%w: invalid configuration format", ErrValidation)
	ErrMalformedSnapshot      = fmt.Errorf("%w: malformed snapshot", ErrValidation)
	ErrProductNameRequired    = fmt.Errorf("%w: product name is required", ErrValidation)
	ErrPriceMustBePositive    = fmt.Errorf("%w: price must be positive", ErrValidation)
	ErrInvalidPrice           = fmt.Errorf("%w: invalid price", ErrValidation)
	ErrInvalidQuantity        = fmt.Errorf("%w: quantity must be a positive finite number", ErrValidation)
	ErrQuantityTooLarge       = fmt.Errorf("%w: quantity is too large", ErrValidation)
	ErrInvalidProductID       = fmt.Errorf("%w: product id must be positive", ErrValidation)
	ErrDuplicateProductID     = fmt.Errorf("%w: duplicate product id", ErrValidation)
	ErrDuplicatePriceTier     = fmt.Errorf("%w: duplicate price tier after key normalization", ErrValidation)
	ErrDanglingCategory       = fmt.Errorf("%w: product refers to a missing category", ErrValidation)
	ErrCategoryMismatch       = fmt.Errorf("%w: product filed under a different category", ErrValidation)
	ErrCategoryIDRequired     = fmt.Errorf("%w: category id is required", ErrValidation)
	ErrCategoryNameRequired   = fmt.Errorf("%w: category name is required", ErrValidation)
	ErrNewAndPromo            = fmt.Errorf("%w: product cannot be both new and promo", ErrValidation)
	ErrInvalidFulfillmentMode = fmt.Errorf("%w: unknown fulfillment mode", ErrValidation)
	ErrHandleRequired         = fmt.Errorf("%w: telegram handle is required", ErrValidation)
	ErrIdentityRequired       = fmt.Errorf("%w: identity is required", ErrValidation)
	ErrDuplicateAdmin         = fmt.Errorf("%w: duplicate admin identity in whitelist", ErrValidation)
	ErrInvalidAddress         = fmt.Errorf("%w: address must be between 10 and 200 characters", ErrValidation)
	ErrInvalidArrivalTime     = fmt.Errorf("%w: arrival time is required", ErrValidation)
	ErrInvalidTransition      = fmt.Errorf("%w: operation not allowed in current order state", ErrValidation)
	ErrEmptyCart              = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrConfirmationRequired   = fmt.Errorf("%w: destructive operation requires confirmation", ErrValidation)
	ErrStatusBadRequest       = fmt.Errorf("%w: bad request", ErrValidation)
	ErrSessionRequired        = fmt.Errorf("%w: session id is required", ErrValidation)
	ErrIncorrectEnvVariable   = errors.New("incorrect environment variable")
	ErrInternalServerError    = errors.New("internal server error")
	ErrForbidden              = errors.New("forbidden")
	ErrSnapshotNotLoaded      = fmt.Errorf("%w: snapshot not loaded", ErrUnavailable)
	ErrRemoteStatus           = fmt.Errorf("%w: remote returned non-success status", ErrPersistence)
	ErrOrderNotSent           = fmt.Errorf("%w: order was not delivered to the operator", ErrPersistence)
	ErrCacheMiss              = fmt.Errorf("%w: cache is empty", ErrNotFound)
	ErrProductNotFound        = fmt.Errorf("%w: product", ErrNotFound)
	ErrCategoryNotFound       = fmt.Errorf("%w: category", ErrNotFound)
	ErrCartLineNotFound       = fmt.Errorf("%w: cart line", ErrNotFound)
	ErrAdminNotFound          = fmt.Errorf("%w: admin identity", ErrNotFound)
	ErrSnapshotNotFound       = fmt.Errorf("%w: snapshot", ErrNotFound)
	ErrCategoryExists         = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrAdminExists            = fmt.Errorf("%w: admin identity already in whitelist", ErrConflict)
	ErrTooManyLines           = fmt.Errorf("%w: too many cart lines", ErrBounds)
	ErrTotalTooLarge          = fmt.Errorf("%w: cart total exceeds maximum", ErrBounds)
	ErrItemQuantityTooLarge   = fmt.Errorf("%w: item quantity exceeds maximum", ErrBounds)
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
