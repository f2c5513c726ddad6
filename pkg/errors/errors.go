package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrStructureNotFound     = errors.New("fee structure not found")
	ErrStructureItemNotFound = errors.New("fee structure item not found")
	ErrStatementNotFound     = errors.New("fee statement not found")
	ErrPaymentNotFound       = errors.New("fee payment not found")
	ErrStatementExists       = errors.New("fee statement already exists")
	ErrPaymentExists         = errors.New("payment reference already exists")
	ErrStructureLocked       = errors.New("fee structure already has issued statements")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidPaymentAmount  = errors.New("invalid payment amount")
	ErrInvalidTransition     = errors.New("invalid payment status transition")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeStructureNotFound     = "FEE_STRUCTURE_NOT_FOUND"
	ErrCodeStructureItemNotFound = "FEE_STRUCTURE_ITEM_NOT_FOUND"
	ErrCodeStatementNotFound     = "FEE_STATEMENT_NOT_FOUND"
	ErrCodePaymentNotFound       = "FEE_PAYMENT_NOT_FOUND"
	ErrCodeStatementExists       = "FEE_STATEMENT_ALREADY_EXISTS"
	ErrCodePaymentExists         = "PAYMENT_REFERENCE_ALREADY_EXISTS"
	ErrCodeConflict              = "CONFLICT"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeInvalidPaymentAmount  = "INVALID_PAYMENT_AMOUNT"
	ErrCodeInvalidTransition     = "INVALID_PAYMENT_TRANSITION"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapStructureNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeStructureNotFound,
		fmt.Sprintf("Fee structure with ID %s not found", id),
		ErrStructureNotFound,
	)
}

func WrapStructureItemNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeStructureItemNotFound,
		fmt.Sprintf("Fee structure item with ID %s not found", id),
		ErrStructureItemNotFound,
	)
}

func WrapStatementNotFound(number string) *BusinessError {
	return NewBusinessError(
		ErrCodeStatementNotFound,
		fmt.Sprintf("Fee statement %s not found", number),
		ErrStatementNotFound,
	)
}

func WrapPaymentNotFound(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment %s not found", reference),
		ErrPaymentNotFound,
	)
}

func WrapStatementExists(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeStatementExists,
		message,
		ErrStatementExists,
	)
}

func WrapPaymentExists(reference string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentExists,
		fmt.Sprintf("Payment reference %s already exists", reference),
		ErrPaymentExists,
	)
}

func WrapStructureLocked(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeConflict,
		fmt.Sprintf("Fee structure %s already has issued statements; items can only be deactivated", id),
		ErrStructureLocked,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapInvalidPaymentAmount(amount, limit string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount %s: must be greater than 0 and at most %s", amount, limit),
		ErrInvalidPaymentAmount,
	)
}

func WrapInvalidTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Payment cannot move from %s to %s", from, to),
		ErrInvalidTransition,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// HTTPStatus maps an error to the status code it should surface as.
func HTTPStatus(err error) int {
	var be *BusinessError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}

	switch be.Code {
	case ErrCodeStructureNotFound, ErrCodeStructureItemNotFound, ErrCodeStatementNotFound, ErrCodePaymentNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeInvalidPaymentAmount, ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case ErrCodeStatementExists, ErrCodePaymentExists, ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of a business error.
func Message(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return "internal server error"
}
