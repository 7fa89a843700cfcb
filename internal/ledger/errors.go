package ledger

import (
	"errors"
	"fmt"
)

// Code identifies the kind of a ledger failure.
type Code string

// Failure codes. Each one maps to a distinct, user-facing message.
const (
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeProductNotFound       Code = "PRODUCT_NOT_FOUND"
	CodeQuantityLimit         Code = "QUANTITY_LIMIT_EXCEEDED"
	CodeLotNumberFailed       Code = "LOT_NUMBER_GENERATION_FAILED"
	CodeOrganizationNotFound  Code = "ORGANIZATION_NOT_FOUND"
	CodeInsufficientInventory Code = "INSUFFICIENT_INVENTORY"
	CodeShipmentCreateFailed  Code = "SHIPMENT_CREATE_FAILED"
	CodeBatchNotFound         Code = "BATCH_NOT_FOUND"
	CodeTreatmentNotFound     Code = "TREATMENT_NOT_FOUND"
	CodeNotSender             Code = "NOT_SENDER"
	CodeNotRecipient          Code = "NOT_RECIPIENT"
	CodeAlreadyRecalled       Code = "ALREADY_RECALLED"
	CodeWindowExpired         Code = "WINDOW_EXPIRED"
	CodeCodeNotFound          Code = "CODE_NOT_FOUND"
	CodeTransactionFailed     Code = "TRANSACTION_FAILED"
)

// Error is a ledger failure. Business rule violations carry only a Code and
// Message; infrastructure failures also wrap the underlying error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a ledger error with the same code, so that
// errors.Is(err, ErrWindowExpired) works for any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidInput          = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrProductNotFound       = &Error{Code: CodeProductNotFound, Message: "product not found or inactive"}
	ErrQuantityLimit         = &Error{Code: CodeQuantityLimit, Message: "lot quantity limit exceeded"}
	ErrLotNumberFailed       = &Error{Code: CodeLotNumberFailed, Message: "cannot generate lot number"}
	ErrOrganizationNotFound  = &Error{Code: CodeOrganizationNotFound, Message: "organization not found or inactive"}
	ErrInsufficientInventory = &Error{Code: CodeInsufficientInventory, Message: "insufficient inventory"}
	ErrShipmentCreateFailed  = &Error{Code: CodeShipmentCreateFailed, Message: "shipment could not be created"}
	ErrBatchNotFound         = &Error{Code: CodeBatchNotFound, Message: "shipment batch not found"}
	ErrTreatmentNotFound     = &Error{Code: CodeTreatmentNotFound, Message: "treatment record not found"}
	ErrNotSender             = &Error{Code: CodeNotSender, Message: "only the sending organization can recall this shipment"}
	ErrNotRecipient          = &Error{Code: CodeNotRecipient, Message: "only the receiving organization can return this shipment"}
	ErrAlreadyRecalled       = &Error{Code: CodeAlreadyRecalled, Message: "this transfer was already recalled"}
	ErrWindowExpired         = &Error{Code: CodeWindowExpired, Message: "the 24 hour recall window has expired"}
	ErrCodeNotFound          = &Error{Code: CodeCodeNotFound, Message: "virtual code not found"}
	ErrTransactionFailed     = &Error{Code: CodeTransactionFailed, Message: "transaction failed"}
)

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return newError(CodeInvalidInput, format, args...)
}

// wrapInfra turns an unexpected storage error into a retryable ledger error.
// Ledger errors pass through unchanged.
func wrapInfra(code Code, err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	msg := "transaction failed"
	if code == CodeShipmentCreateFailed {
		msg = "shipment could not be created"
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the ledger code carried by err, or "" if there is none.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Retryable reports whether err is an infrastructure failure that may
// succeed if the whole operation is retried.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeShipmentCreateFailed, CodeTransactionFailed:
		return true
	}
	return false
}
