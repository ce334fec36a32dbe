package models

import (
	"errors"
)

// Kind classifies an application error so the HTTP layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindInvalidInput
	KindConflict
	KindInsufficientFunds
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a user-facing failure. Message is returned to the client verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Storage level sentinels. Repositories return these (possibly wrapped).
var (
	ErrNoRecord  = errors.New("models: no matching record found")
	ErrDuplicate = errors.New("models: duplicate record")
)

var (
	ErrNotFound           = newError(KindNotFound, "Not found")
	ErrRentalNotFound     = newError(KindNotFound, "Rental not found")
	ErrProductNotFound    = newError(KindNotFound, "Product not found")
	ErrUserNotFound       = newError(KindNotFound, "User not found")
	ErrCategoryNotFound   = newError(KindNotFound, "Category not found")
	ErrRentalForbidden    = newError(KindForbidden, "Yuo are not allowed to do this")
	ErrProductForbidden   = newError(KindForbidden, "Yuo are not allowed to do this")
	ErrForbidden          = newError(KindForbidden, "You are not allowed to do this")
	ErrNoToken            = newError(KindUnauthenticated, "No token provided.")
	ErrInvalidToken       = newError(KindForbidden, "Failed to authenticate token.")
	ErrAuthUserNotFound   = newError(KindUnauthenticated, "Authentication failed. User not found.")
	ErrAuthWrongPassword  = newError(KindUnauthenticated, "Authentication failed. Wrong password.")
	ErrUnavailable        = newError(KindUnavailable, "Service temporarily unavailable")
	ErrInternal           = newError(KindInternal, "Something did not work")
	ErrInvalidRequestBody = newError(KindInvalidInput, "Invalid request body")
)

// Rental lifecycle failures.
var (
	ErrIncorrectProductID  = newError(KindInvalidInput, "Incorrect product ID")
	ErrOwnProduct          = newError(KindInvalidInput, "This product is yours!")
	ErrInvalidPeriod       = newError(KindInvalidInput, "Invalid renting period")
	ErrProductAlreadyTaken = newError(KindConflict, "Product already rented in the selected period")
	ErrNotEnoughMoney      = newError(KindInsufficientFunds, "Not enough money in wallet")
	ErrProductNotAvailable = newError(KindInvalidInput, "Product is not available")
	ErrInvalidTransition   = newError(KindInvalidInput, "Invalid status transition")
	ErrInvalidStatus       = newError(KindInvalidInput, "Invalid rental status")
	ErrRentalClosed        = newError(KindInvalidInput, "Rental is no longer active")
	ErrRentalStarted       = newError(KindInvalidInput, "Rental already started")
)

// User, product, category and wallet failures.
var (
	ErrInvalidEmail         = newError(KindInvalidInput, "Invalid email format")
	ErrUserNameRequired     = newError(KindInvalidInput, "Username required")
	ErrPasswordRequired     = newError(KindInvalidInput, "Password required")
	ErrDuplicateUserName    = newError(KindConflict, "Username already existing")
	ErrDuplicateEmail       = newError(KindConflict, "An account with this email address already exists")
	ErrInvalidRole          = newError(KindInvalidInput, "Invalid role")
	ErrProductNameRequired  = newError(KindInvalidInput, "Product name required")
	ErrProductPriceRequired = newError(KindInvalidInput, "Product price required")
	ErrInvalidPrice         = newError(KindInvalidInput, "Invalid product price")
	ErrInvalidCategory      = newError(KindInvalidInput, "Invalid category")
	ErrInvalidProductStatus = newError(KindInvalidInput, "Invalid product status")
	ErrProductHasRentals    = newError(KindConflict, "Product has active rentals")
	ErrCategoryNameRequired = newError(KindInvalidInput, "Category name required")
	ErrDuplicateCategory    = newError(KindConflict, "This category already exists")
	ErrInvalidAmount        = newError(KindInvalidInput, "Invalid amount")
	ErrImageRequired        = newError(KindInvalidInput, "Image required")
	ErrImageStoreDisabled   = newError(KindUnavailable, "Image storage is not configured")
)
