package adapterhub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o deadline reached" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyTransportPriority(t *testing.T) {
	const serverURL = "http://localhost:9/rpc"

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"deadline exceeded", context.DeadlineExceeded, CodeTimeout},
		{"cancelled", context.Canceled, CodeTimeout},
		{"wrapped cancel", &url.Error{Op: "Post", URL: serverURL, Err: context.Canceled}, CodeTimeout},
		{"net timeout", timeoutNetError{}, CodeTimeout},
		{"timeout string", errors.New("read tcp: i/o timeout"), CodeTimeout},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, CodeConnection},
		{"wrapped refused", &url.Error{Op: "Post", URL: serverURL, Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}, CodeConnection},
		{"connection reset", fmt.Errorf("write: %w", syscall.ECONNRESET), CodeConnection},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "hub.invalid"}, CodeConnection},
		{"http layer", &url.Error{Op: "Post", URL: serverURL, Err: errors.New("malformed HTTP response")}, CodeHTTPError},
		{"unclassified", errors.New("boom"), CodeUnknown},
	}

	for _, tc := range cases {
		got := classifyTransport(tc.err, serverURL)
		if got.Code != tc.want {
			t.Fatalf("%s: expected code %d, got %d (%v)", tc.name, tc.want, got.Code, got)
		}
		detail, ok := got.Data.(map[string]any)
		if !ok || detail["url"] != serverURL {
			t.Fatalf("%s: expected url in error data, got %#v", tc.name, got.Data)
		}
	}
}

func TestClassifyTimeoutBeforeConnection(t *testing.T) {
	// A dial that times out matches both the net.Error and OpError probes;
	// it must classify as a timeout, never as a connection failure.
	err := &url.Error{
		Op:  "Post",
		URL: "http://localhost:9/rpc",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutSyscall{}},
	}
	if got := classifyTransport(err, "http://localhost:9/rpc"); got.Code != CodeTimeout {
		t.Fatalf("expected timeout classification, got %d", got.Code)
	}
}

type timeoutSyscall struct{}

func (*timeoutSyscall) Error() string   { return "connect: operation timed out" }
func (*timeoutSyscall) Timeout() bool   { return true }
func (*timeoutSyscall) Temporary() bool { return true }

func TestErrorFormatting(t *testing.T) {
	err := &Error{Code: CodeConnection, Message: "connection failed: unable to reach http://localhost:9/rpc"}
	want := "[code -1001] connection failed: unable to reach http://localhost:9/rpc"
	if err.Error() != want {
		t.Fatalf("unexpected error text: %q", err.Error())
	}
}

func TestTaxonomyValues(t *testing.T) {
	// The wire taxonomy is fixed; these values are part of the contract.
	fixed := map[string]int{
		"http":       CodeHTTPError,
		"connection": CodeConnection,
		"timeout":    CodeTimeout,
		"parse":      CodeParse,
		"unknown":    CodeUnknown,
	}
	want := map[string]int{
		"http":       -1000,
		"connection": -1001,
		"timeout":    -1002,
		"parse":      -1003,
		"unknown":    -1999,
	}
	for name, code := range want {
		if fixed[name] != code {
			t.Fatalf("%s code changed: %d", name, fixed[name])
		}
	}
}

var _ net.Error = timeoutNetError{}

func TestIsTimeoutIgnoresNil(t *testing.T) {
	if isTimeout(nil) || isConnection(nil) {
		t.Fatalf("nil error must not classify")
	}
}
