package goble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/srg/blip/internal/device"
)

// errorRules maps lower-cased go-ble message fragments to device errors.
// First match wins.
var errorRules = []struct {
	fragment string
	target   error
}{
	{"invalid state: have=4", device.ErrBluetoothOff},
	{"bluetooth is turned off", device.ErrBluetoothOff},
	{"powered off", device.ErrBluetoothOff},
	{"device not connected", device.ErrNotConnected},
	{"already connected", device.ErrAlreadyConnected},
	{"disconnected", device.ErrChannelClosed},
	{"connection reset", device.ErrChannelClosed},
}

// NormalizeError wraps known go-ble failures in the matching device error,
// keeping the original message. Context errors and unknown errors pass through.
func NormalizeError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range errorRules {
		if strings.Contains(msg, rule.fragment) {
			return fmt.Errorf("%w: %v", rule.target, err)
		}
	}
	return err
}
