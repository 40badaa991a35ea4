package adapterhub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Transport error codes reported by the hub clients. The range is reserved
// for failures that happen before a well-formed business reply is obtained;
// business failures are carried inside a Result instead.
const (
	// CodeHTTPError marks recognizable HTTP-layer faults such as non-2xx
	// status codes or malformed responses.
	CodeHTTPError = -1000
	// CodeConnection marks failures to reach the hub at all.
	CodeConnection = -1001
	// CodeTimeout marks timed-out or cancelled calls.
	CodeTimeout = -1002
	// CodeParse marks replies that are not valid JSON or lack the minimum
	// required fields.
	CodeParse = -1003
	// CodeUnknown is the catch-all for unclassifiable failures.
	CodeUnknown = -1999
)

// Error is the failure reported when a hub call cannot be completed as a
// valid Result. Code is drawn from the fixed taxonomy above (the API client
// additionally uses positive HTTP status codes and business codes). Data
// carries optional diagnostic context such as the raw response text.
type Error struct {
	Code    int
	Message string
	Data    any
}

func (e *Error) Error() string {
	return fmt.Sprintf("[code %d] %s", e.Code, e.Message)
}

// classifyTransport maps a failed HTTP round trip onto the transport
// taxonomy. Timeouts are checked before connection errors because Go
// surfaces dial timeouts as both net.Error timeouts and OpErrors, and a
// timed-out call must never be reported as a connection failure.
func classifyTransport(err error, serverURL string) *Error {
	detail := map[string]any{"url": serverURL, "error": err.Error()}

	switch {
	case isTimeout(err):
		return &Error{
			Code:    CodeTimeout,
			Message: fmt.Sprintf("request timed out: %s", serverURL),
			Data:    detail,
		}
	case isConnection(err):
		return &Error{
			Code:    CodeConnection,
			Message: fmt.Sprintf("connection failed: unable to reach %s: %v", serverURL, err),
			Data:    detail,
		}
	case isHTTPLayer(err):
		return &Error{
			Code:    CodeHTTPError,
			Message: fmt.Sprintf("http protocol error: %v", err),
			Data:    detail,
		}
	default:
		return &Error{
			Code:    CodeUnknown,
			Message: fmt.Sprintf("unknown error: %v", err),
			Data:    detail,
		}
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isConnection(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// isHTTPLayer reports whether the failure came from the HTTP client itself
// rather than the network. http.Client wraps everything in *url.Error, so
// this check only runs after timeouts and connection faults are ruled out.
func isHTTPLayer(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
