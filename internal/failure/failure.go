// Package failure classifies errors returned by remote collaborators into
// transient (worth retrying) and fatal (propagated immediately) classes.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrTransient marks a failure that may succeed when retried.
	ErrTransient = errors.New("transient failure")
	// ErrFatal marks a failure that will not go away on retry.
	ErrFatal = errors.New("fatal failure")
)

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	if err == nil || errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Fatal wraps err so that errors.Is(err, ErrFatal) holds.
func Fatal(err error) error {
	if err == nil || errors.Is(err, ErrFatal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsTransient reports whether err is worth retrying. Explicitly marked
// errors win; otherwise timeouts and temporary network errors count as
// transient. Context cancellation never does.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFatal) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// FromHTTPStatus classifies an unsuccessful HTTP response.
// 408, 425, 429 and every 5xx are transient; the rest is fatal.
func FromHTTPStatus(status int, err error) error {
	if err == nil {
		err = fmt.Errorf("unexpected status %d", status)
	}
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return Transient(err)
	default:
		return Fatal(err)
	}
}
