package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spherical/vision-extractor/internal/domain"
)

// failureKind wraps a failure that is neither an auth problem nor a timeout.
type failureKind func(message string, err error) *domain.DomainError

// isAuthStatus reports whether the status means the credential was rejected.
func isAuthStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusUnauthorized: // 401
		return true
	case http.StatusForbidden: // 403
		return true
	default:
		return false
	}
}

// isTimeoutStatus reports whether the server gave up waiting.
func isTimeoutStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout: // 408
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	default:
		return false
	}
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify maps a failed call onto the error taxonomy. statusCode is 0 when
// no HTTP response was received.
func classify(op string, statusCode int, err error, fallback failureKind) error {
	switch {
	case isAuthStatus(statusCode):
		return domain.AuthError(fmt.Sprintf("%s rejected the credential (HTTP %d)", op, statusCode), err)
	case isTimeoutStatus(statusCode), statusCode == 0 && isTimeout(err):
		return domain.TimeoutError(fmt.Sprintf("%s timed out", op), err)
	case statusCode != 0:
		return fallback(fmt.Sprintf("%s failed with HTTP %d", op, statusCode), err)
	default:
		return fallback(fmt.Sprintf("%s failed", op), err)
	}
}
