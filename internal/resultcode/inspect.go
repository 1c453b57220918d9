package resultcode

import (
	"errors"
	"log/slog"
)

// CodeOf extracts the result code from err, or ErrorEtc when err carries
// no coded error anywhere in its chain.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ErrorEtc
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// SeverityOf returns the log level attached to err, defaulting to ERROR
// for errors that did not come from this package.
func SeverityOf(err error) slog.Level {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Severity
	}
	return slog.LevelError
}
