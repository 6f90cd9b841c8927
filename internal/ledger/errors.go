package ledger

import "errors"

// Code is a machine-readable ledger error code.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInvalidName         Code = "INVALID_NAME"
	CodeAccountNotFound     Code = "ACCOUNT_NOT_FOUND"
	CodeSenderNotFound      Code = "SENDER_NOT_FOUND"
	CodeReceiverNotFound    Code = "RECEIVER_NOT_FOUND"
	CodeSameParty           Code = "SAME_PARTY"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
)

// ErrNotFound is returned by stores when a record is absent.
var ErrNotFound = errors.New("record not found")

// Error is the domain error type carrying a code and optional metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ledger error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata creates a domain error annotated with metadata such as the
// account name involved.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrInvalidAmount       = New(CodeInvalidAmount, "amount must be greater than 0")
	ErrInvalidName         = New(CodeInvalidName, "name is required")
	ErrAccountNotFound     = New(CodeAccountNotFound, "account not found")
	ErrSenderNotFound      = New(CodeSenderNotFound, "sender account not found")
	ErrReceiverNotFound    = New(CodeReceiverNotFound, "receiver account not found")
	ErrSameParty           = New(CodeSameParty, "sender and receiver cannot be the same")
	ErrInsufficientBalance = New(CodeInsufficientBalance, "insufficient balance")
)

// CodeOf returns the ledger code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	return CodeUnknown
}

func accountError(base *Error, name string) *Error {
	return WithMetadata(base.Code, base.Message, map[string]string{"account": name})
}

// AccountNotFound returns ErrAccountNotFound annotated with the account name.
func AccountNotFound(name string) *Error { return accountError(ErrAccountNotFound, name) }

// SenderNotFound returns ErrSenderNotFound annotated with the account name.
func SenderNotFound(name string) *Error { return accountError(ErrSenderNotFound, name) }

// ReceiverNotFound returns ErrReceiverNotFound annotated with the account name.
func ReceiverNotFound(name string) *Error { return accountError(ErrReceiverNotFound, name) }
