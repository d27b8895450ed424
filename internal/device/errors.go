package device

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotFoundError represents an error when a BLE resource is not found
type NotFoundError struct {
	Resource string   // "service", "characteristic", "endpoint"
	UUIDs    []string // One or more UUIDs (e.g., [serviceUUID] or [serviceUUID, charUUID])
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	ChannelClosed    ConnectionState = "connection_closed"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}

	// ErrChannelClosed is returned for sends attempted without a link and for
	// requests pending when the link goes away.
	ErrChannelClosed = &ConnectionError{State: ChannelClosed}
)

// Connect-time structural errors
var (
	// ErrNoGattProfile indicates the device exposes no attribute profile.
	ErrNoGattProfile = errors.New("device has no GATT profile")

	// ErrNoSuitableEndpoint indicates no characteristic supports both notify and write-without-response.
	ErrNoSuitableEndpoint = errors.New("no suitable characteristic found")

	// ErrNegotiation indicates the post-connect handshake failed. It never reaches Connect callers.
	ErrNegotiation = errors.New("negotiation failed")

	// ErrBluetoothOff indicates the local adapter is powered off.
	ErrBluetoothOff = errors.New("bluetooth is turned off")
)

// Operation errors
var (
	ErrTimeout     = errors.New("timeout")
	ErrUnsupported = errors.New("unsupported")
)

// ResponseTimeoutError is returned when no matching packet arrives before the deadline
type ResponseTimeoutError struct {
	Command  string
	Expected []string
	Timeout  time.Duration
}

func (e *ResponseTimeoutError) Error() string {
	expected := "any"
	if len(e.Expected) > 0 {
		expected = strings.Join(e.Expected, ", ")
	}
	return fmt.Sprintf("timeout waiting for response to %s after %v (expected: %s)", e.Command, e.Timeout, expected)
}

// Is lets errors.Is(err, ErrTimeout) match response timeouts
func (e *ResponseTimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}
