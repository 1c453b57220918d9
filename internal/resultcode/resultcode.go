package resultcode

import "log/slog"

// Code is a machine-readable result code shared with API clients. The
// numbering follows the internal convention: 1000 success, 11xx parameter
// and request-shape errors, 2xxx remote user service, 4xxx remote item
// service, 8xxx domain entities, 9xxx infrastructure.
type Code int

const (
	Success Code = 1000

	ErrorNotExistsURI         Code = 1100
	ErrorNotSupportedMethod   Code = 1101
	ErrorParameterNotExists   Code = 1102
	ErrorParameterType        Code = 1103
	ErrorParameterJSONParsing Code = 1104
	ErrorAccessDenied         Code = 1107
	ErrorNothingToModify      Code = 1108

	ErrorUserNotExists  Code = 2000
	ErrorUserConnection Code = 2003
	ErrorUserResponse   Code = 2004

	ErrorItemNotExists  Code = 4000
	ErrorItemConnection Code = 4003
	ErrorItemResponse   Code = 4004

	ErrorPGCodeNotExists     Code = 8001
	ErrorPGCodeAlreadyExists Code = 8002

	ErrorPGNotExists     Code = 8101
	ErrorPGAlreadyExists Code = 8102

	ErrorPaymentNotExists     Code = 8201
	ErrorPaymentAlreadyExists Code = 8202

	ErrorPackageNotExists     Code = 8301
	ErrorPackageAlreadyExists Code = 8302

	ErrorBundleNotExists      Code = 8401
	ErrorBundleAlreadyExists  Code = 8402
	ErrorBundleNotPaid        Code = 8403
	ErrorBundleAlreadyPaid    Code = 8404
	ErrorBundleCanceled       Code = 8405
	ErrorBundleAmountMismatch Code = 8406

	ErrorTransactionLimitExceeded Code = 8501
	ErrorDailyLimitExceeded       Code = 8502
	ErrorMonthlyLimitExceeded     Code = 8503

	ErrorGatewayNotRegistered  Code = 8601
	ErrorGatewayDeclined       Code = 8602
	ErrorGatewayConnection     Code = 8603
	ErrorGatewayUnknownOutcome Code = 8604

	ErrorReconciliationRequired Code = 8700

	ErrorDB  Code = 9002
	ErrorEtc Code = 9999
)

var messages = map[Code]string{
	Success: "success",

	ErrorNotExistsURI:         "no such API",
	ErrorNotSupportedMethod:   "http method not supported",
	ErrorParameterNotExists:   "required parameter is missing",
	ErrorParameterType:        "parameter has an invalid type",
	ErrorParameterJSONParsing: "request body is not valid json",
	ErrorAccessDenied:         "access denied",
	ErrorNothingToModify:      "nothing to modify",

	ErrorUserNotExists:  "user does not exist",
	ErrorUserConnection: "user service connection failed",
	ErrorUserResponse:   "user service returned an error response",

	ErrorItemNotExists:  "item does not exist",
	ErrorItemConnection: "item service connection failed",
	ErrorItemResponse:   "item service returned an error response",

	ErrorPGCodeNotExists:     "pg code does not exist",
	ErrorPGCodeAlreadyExists: "pg code already exists",

	ErrorPGNotExists:     "pg does not exist",
	ErrorPGAlreadyExists: "pg already exists",

	ErrorPaymentNotExists:     "payment does not exist",
	ErrorPaymentAlreadyExists: "payment already exists",

	ErrorPackageNotExists:     "package does not exist",
	ErrorPackageAlreadyExists: "package already exists",

	ErrorBundleNotExists:      "bundle does not exist",
	ErrorBundleAlreadyExists:  "bundle already exists",
	ErrorBundleNotPaid:        "bundle has not been paid",
	ErrorBundleAlreadyPaid:    "bundle has already been paid",
	ErrorBundleCanceled:       "bundle has already been canceled",
	ErrorBundleAmountMismatch: "bundle amount does not match its packages",

	ErrorTransactionLimitExceeded: "per-transaction payment limit exceeded",
	ErrorDailyLimitExceeded:       "daily payment limit exceeded",
	ErrorMonthlyLimitExceeded:     "monthly payment limit exceeded",

	ErrorGatewayNotRegistered:  "no adapter registered for gateway",
	ErrorGatewayDeclined:       "gateway declined the request",
	ErrorGatewayConnection:     "gateway connection failed",
	ErrorGatewayUnknownOutcome: "gateway call outcome unknown",

	ErrorReconciliationRequired: "manual reconciliation required",

	ErrorDB:  "database operation failed",
	ErrorEtc: "unclassified error",
}

// Message returns the canonical message for c.
func (c Code) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return messages[ErrorEtc]
}

// Error is the one error type public operations fail with. Severity is
// consumed only when logging the error, never for control flow.
type Error struct {
	Code     Code
	Message  string
	Severity slog.Level
	cause    error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with the canonical message for code.
func New(code Code, severity slog.Level) *Error {
	return &Error{Code: code, Message: code.Message(), Severity: severity}
}

// Newf builds a coded error with a context-specific message.
func Newf(code Code, severity slog.Level, message string) *Error {
	return &Error{Code: code, Message: message, Severity: severity}
}

// Wrap builds a coded error that keeps cause reachable via errors.Unwrap.
func Wrap(code Code, severity slog.Level, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Severity: severity, cause: cause}
}
