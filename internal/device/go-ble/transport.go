package goble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = newPlatformDevice

// Transport implements device.Transport and device.Scanner on top of the
// host BLE stack. The underlying ble.Device is opened on first use.
type Transport struct {
	logger *logrus.Logger

	mu  sync.Mutex
	dev ble.Device
}

var (
	_ device.Transport = (*Transport)(nil)
	_ device.Scanner   = (*Transport)(nil)
)

// NewTransport creates a transport; the host adapter is not touched until Scan or Connect
func NewTransport(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{logger: logger}
}

func (t *Transport) hostDevice() (ble.Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev != nil {
		return t.dev, nil
	}
	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to open BLE device: %w", NormalizeError(err))
	}
	t.dev = dev
	return dev, nil
}

// Scan wraps the raw ble.Device.Scan to convert ble.Advertisement to the device.Advertisement
func (t *Transport) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	dev, err := t.hostDevice()
	if err != nil {
		return err
	}

	err = dev.Scan(ctx, allowDup, func(adv ble.Advertisement) {
		handler(NewBLEAdvertisement(adv))
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return NormalizeError(err)
	}
	return nil
}

// Connect scans for the first connectable device whose name passes filter and dials it
func (t *Transport) Connect(ctx context.Context, filter device.NameFilter) (device.Link, error) {
	dev, err := t.hostDevice()
	if err != nil {
		return nil, err
	}

	scanCtx, stopScan := context.WithCancel(ctx)
	defer stopScan()

	matches := make(chan ble.Advertisement, 1)

	t.logger.Debug("Scanning for printer...")
	scanErr := dev.Scan(scanCtx, false, func(adv ble.Advertisement) {
		if !adv.Connectable() || !filter(adv.LocalName()) {
			return
		}
		select {
		case matches <- adv:
			stopScan()
		default:
		}
	})

	var found ble.Advertisement
	select {
	case found = <-matches:
	default:
	}
	if found == nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", &device.NotFoundError{Resource: "printer"}, err)
		}
		if scanErr != nil {
			return nil, fmt.Errorf("scan failed: %w", NormalizeError(scanErr))
		}
		return nil, &device.NotFoundError{Resource: "printer"}
	}

	name := found.LocalName()
	t.logger.WithFields(logrus.Fields{
		"name":    name,
		"address": found.Addr().String(),
		"rssi":    found.RSSI(),
	}).Debug("Dialing BLE device...")

	client, err := dev.Dial(ctx, found.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, NormalizeError(err))
	}

	t.logger.WithField("name", name).Info("BLE device connected")
	return NewBLELink(client, name, t.logger), nil
}
