package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tobipay/bundlepay/internal/resultcode"
)

// A received decline is final; a connection failure never reached the
// gateway and may be retried; a timeout after the request went out has an
// unknown outcome and must be neither retried nor blindly compensated.
func declineError(gatewayName, detail string) error {
	return resultcode.Newf(
		resultcode.ErrorGatewayDeclined,
		slog.LevelWarn,
		fmt.Sprintf("%s declined the request: %s", gatewayName, detail),
	)
}

func connectionError(gatewayName string, cause error) error {
	return resultcode.Wrap(
		resultcode.ErrorGatewayConnection,
		slog.LevelError,
		fmt.Sprintf("%s connection failed: %v", gatewayName, cause),
		cause,
	)
}

func unknownOutcomeError(gatewayName string, cause error) error {
	return resultcode.Wrap(
		resultcode.ErrorGatewayUnknownOutcome,
		slog.LevelError,
		fmt.Sprintf("%s call timed out, outcome unknown: %v", gatewayName, cause),
		cause,
	)
}

// IsRetryable reports whether err is a transport failure that never reached
// the gateway. Declines and unknown-outcome timeouts are never retryable.
func IsRetryable(err error) bool {
	return resultcode.Is(err, resultcode.ErrorGatewayConnection)
}

// classifyTransportError separates never-sent connection failures from
// sent-but-unanswered timeouts.
func classifyTransportError(gatewayName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return unknownOutcomeError(gatewayName, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return unknownOutcomeError(gatewayName, err)
	}
	return connectionError(gatewayName, err)
}
