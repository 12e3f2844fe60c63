package domain

import (
	"context"
	"errors"
	"fmt"
)

// DomainError represents a gateway adapter failure with a stable code.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Configuration errors. These never reach the bank.
const (
	ErrCodeUnsupportedTransaction = "UNSUPPORTED_TRANSACTION_TYPE"
	ErrCodeUnsupportedModel       = "UNSUPPORTED_SECURITY_MODEL"
	ErrCodeUnsupportedCurrency    = "UNSUPPORTED_CURRENCY"
	ErrCodeUnsupportedCardBrand   = "UNSUPPORTED_CARD_BRAND"
	ErrCodeUnsupportedRecurring   = "UNSUPPORTED_RECURRING_UNIT"
	ErrCodeMissingRequiredField   = "MISSING_REQUIRED_FIELD"
	ErrCodeUnknownBank            = "UNKNOWN_BANK"
	ErrCodeInvalidAmount          = "INVALID_AMOUNT"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
)

// Authentication/integrity errors on inbound data.
const (
	ErrCodeHashMismatch     = "HASH_MISMATCH"
	ErrCodeCRCMismatch      = "CRC_MISMATCH"
	ErrCodeDecryptionFailed = "DECRYPTION_FAILED"
	ErrCodeCallbackMismatch = "CALLBACK_MISMATCH"
)

// Transport errors.
const (
	ErrCodeTransportFailure  = "TRANSPORT_FAILURE"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeIndeterminate     = "INDETERMINATE"
)

func NewUnsupportedTransactionError(bank string, tx TransactionType) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedTransaction,
		Message: fmt.Sprintf("%s does not support transaction type %q", bank, tx),
	}
}

func NewUnsupportedModelError(bank string, model SecurityModel) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedModel,
		Message: fmt.Sprintf("%s does not support security model %q", bank, model),
	}
}

func NewUnsupportedCurrencyError(bank string, currency Currency) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCurrency,
		Message: fmt.Sprintf("%s does not support currency %q", bank, currency),
	}
}

func NewUnsupportedCardBrandError(bank string, brand CardBrand) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedCardBrand,
		Message: fmt.Sprintf("%s does not support card brand %q", bank, brand),
	}
}

func NewUnsupportedRecurringError(bank string, unit RecurringUnit) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnsupportedRecurring,
		Message: fmt.Sprintf("%s does not support recurring unit %q", bank, unit),
	}
}

func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewUnknownBankError(bank string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnknownBank,
		Message: fmt.Sprintf("unknown bank %q", bank),
	}
}

func NewInvalidAmountError(amount string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %s", amount),
	}
}

func NewHashMismatchError(formula string) *DomainError {
	return &DomainError{
		Code:    ErrCodeHashMismatch,
		Message: fmt.Sprintf("%s hash verification failed", formula),
	}
}

func NewCRCMismatchError() *DomainError {
	return &DomainError{
		Code:    ErrCodeCRCMismatch,
		Message: "encrypted payload CRC mismatch",
	}
}

func NewDecryptionError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeDecryptionFailed,
		Message: "could not decrypt payload",
		Err:     err,
	}
}

func NewCallbackMismatchError(field, expected, actual string) *DomainError {
	return &DomainError{
		Code:    ErrCodeCallbackMismatch,
		Message: fmt.Sprintf("callback %s mismatch: expected %q, got %q", field, expected, actual),
	}
}

func NewTransportError(op string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeTransportFailure,
		Message: fmt.Sprintf("%s failed", op),
		Err:     err,
	}
}

func NewMalformedResponseError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeMalformedResponse,
		Message: "malformed gateway response",
		Err:     err,
	}
}

func NewIndeterminateError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeIndeterminate,
		Message: "gateway call interrupted, outcome unknown; resolve with a status inquiry",
		Err:     err,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ErrorCategory groups error codes by who has to act on them.
type ErrorCategory string

const (
	CategoryConfiguration  ErrorCategory = "CONFIGURATION"
	CategoryAuthentication ErrorCategory = "AUTHENTICATION"
	CategoryTransport      ErrorCategory = "TRANSPORT"
	CategoryInternal       ErrorCategory = "INTERNAL"
)

// Categorize determines the error category for logging and API mapping.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransport
	}

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return CategoryInternal
	}

	switch domainErr.Code {
	case ErrCodeUnsupportedTransaction,
		ErrCodeUnsupportedModel,
		ErrCodeUnsupportedCurrency,
		ErrCodeUnsupportedCardBrand,
		ErrCodeUnsupportedRecurring,
		ErrCodeMissingRequiredField,
		ErrCodeUnknownBank,
		ErrCodeInvalidAmount:
		return CategoryConfiguration
	case ErrCodeHashMismatch,
		ErrCodeCRCMismatch,
		ErrCodeDecryptionFailed,
		ErrCodeCallbackMismatch:
		return CategoryAuthentication
	case ErrCodeTransportFailure,
		ErrCodeMalformedResponse,
		ErrCodeIndeterminate:
		return CategoryTransport
	}
	return CategoryInternal
}
