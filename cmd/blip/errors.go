package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/blip/internal/device"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the printer went away while a command was running.
	ErrConnectionLost = errors.New("connection lost")
)

// FormatUserError turns internal errors into short actionable messages
func FormatUserError(err error) string {
	var (
		notFound *device.NotFoundError
		timeout  *device.ResponseTimeoutError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off; enable it and retry"
	case errors.As(err, &notFound) && notFound.Resource == "printer":
		return "no printer found nearby; make sure it is powered on and not connected elsewhere"
	case errors.Is(err, device.ErrNoGattProfile):
		return fmt.Sprintf("the device exposes no GATT profile (%v)", err)
	case errors.Is(err, device.ErrNoSuitableEndpoint):
		return fmt.Sprintf("the device is not a supported printer (%v)", err)
	case errors.As(err, &timeout):
		return fmt.Sprintf("printer did not answer %s within %v", timeout.Command, timeout.Timeout)
	case errors.Is(err, ErrConnectionLost), errors.Is(err, device.ErrChannelClosed):
		return "connection to the printer was lost"
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	default:
		return err.Error()
	}
}
