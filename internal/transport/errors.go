package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"

	"github.com/gorilla/websocket"
)

// Sentinel errors for errors.Is matching
var (
	ErrNotConnected = errors.New("not connected")
	ErrTransport    = errors.New("transport error")
)

// NotConnectedError reports a send attempted while the connection is not open.
// The frame is dropped; retrying is the caller's decision.
type NotConnectedError struct {
	State State // State at the time of the attempt
}

// Error implements the error interface
func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("not connected (state: %s)", e.State)
}

// Is lets errors.Is(err, ErrNotConnected) match any NotConnectedError
func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// ErrorKind classifies a transport failure
type ErrorKind int

const (
	// KindOther is an unclassified failure
	KindOther ErrorKind = iota
	// KindTimeout means a dial or I/O deadline expired
	KindTimeout
	// KindRefused means the peer refused the TCP connection
	KindRefused
	// KindDNS means the endpoint host could not be resolved
	KindDNS
	// KindUnreachable means the host or network is unreachable
	KindUnreachable
	// KindHandshake means the WebSocket upgrade was rejected
	KindHandshake
	// KindClosed means the peer closed or reset the connection
	KindClosed
	// KindEndpoint means the endpoint URI is malformed
	KindEndpoint
)

// String returns a human-readable name for the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindTimeout:
		return "timeout"
	case KindRefused:
		return "connection refused"
	case KindDNS:
		return "dns"
	case KindUnreachable:
		return "unreachable"
	case KindHandshake:
		return "handshake"
	case KindClosed:
		return "closed"
	case KindEndpoint:
		return "bad endpoint"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// TransportError represents a failure of the underlying channel
type TransportError struct {
	Op   string    // Operation that failed: "dial", "read", "send", "close"
	Kind ErrorKind // Classified cause
	Err  error     // Underlying error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport %s: %s (caused by: %v)", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("transport %s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTransport) match any TransportError
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ClassifyError wraps err in a TransportError with a classified kind
func ClassifyError(op string, err error) *TransportError {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	if errors.Is(err, websocket.ErrBadHandshake) {
		return KindHandshake
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return KindClosed
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindRefused
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindUnreachable
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) || errors.Is(err, net.ErrClosed) {
		return KindClosed
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return classify(urlErr.Err)
	}

	return KindOther
}

// IsNotConnected checks if an error is a NotConnectedError
func IsNotConnected(err error) bool {
	var nc *NotConnectedError
	return errors.As(err, &nc)
}

// IsTransportError checks if an error is a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
