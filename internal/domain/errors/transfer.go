package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a transfer was rejected or failed.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindUnknownChain        Kind = "UnknownChain"
	KindUnsupportedRoute    Kind = "UnsupportedRoute"
	KindSignerUnavailable   Kind = "SignerUnavailable"
	KindInvalidReceiver     Kind = "InvalidReceiver"
	KindFeeQuoteFailed      Kind = "FeeQuoteFailed"
	KindSubmissionFailed    Kind = "SubmissionFailed"
	KindConfirmationTimeout Kind = "ConfirmationTimeout"
)

// TransferError is the typed error surfaced by the relay. Its message is
// "<Kind>: <detail>", which is also what lands in a failed record.
type TransferError struct {
	Kind Kind
	Err  error
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewTransferError wraps err under kind.
func NewTransferError(kind Kind, err error) *TransferError {
	return &TransferError{Kind: kind, Err: err}
}

// Transferf formats a new TransferError.
func Transferf(kind Kind, format string, args ...interface{}) *TransferError {
	return &TransferError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err. Untyped errors report SubmissionFailed so
// an unexpected collaborator error still lands in a failed record.
func KindOf(err error) Kind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindSubmissionFailed
}

// IsKind reports whether err is a TransferError of kind.
func IsKind(err error, kind Kind) bool {
	var te *TransferError
	return errors.As(err, &te) && te.Kind == kind
}

// ToAppError maps the pre-record kinds onto HTTP errors.
func ToAppError(err error) *AppError {
	var te *TransferError
	if !errors.As(err, &te) {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return InternalError(err)
	}
	switch te.Kind {
	case KindValidation:
		return NewAppError(http.StatusBadRequest, string(te.Kind), te.Error(), te)
	case KindUnknownChain:
		return NewAppError(http.StatusNotFound, string(te.Kind), te.Error(), te)
	default:
		return NewAppError(http.StatusUnprocessableEntity, string(te.Kind), te.Error(), te)
	}
}
