package goble

import (
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
)

// ----------------------------
// BLE Link
// ----------------------------

// BLELink represents a live BLE connection to a printer (notifications, writes)
type BLELink struct {
	client  ble.Client
	name    string
	address string
	logger  *logrus.Logger

	writeMutex sync.Mutex
	closeOnce  sync.Once
	closeErr   error
	closed     chan struct{}
}

var _ device.Link = (*BLELink)(nil)

// NewBLELink wraps an established go-ble client. name is the advertised local name.
func NewBLELink(client ble.Client, name string, logger *logrus.Logger) *BLELink {
	if logger == nil {
		logger = logrus.New()
	}
	address := ""
	if addr := client.Addr(); addr != nil {
		address = addr.String()
	}
	return &BLELink{
		client:  client,
		name:    name,
		address: address,
		logger:  logger,
		closed:  make(chan struct{}),
	}
}

func (l *BLELink) Name() string {
	return l.name
}

func (l *BLELink) Address() string {
	return l.address
}

// Services discovers the GATT profile. Characteristic order follows discovery order.
func (l *BLELink) Services() ([]device.Service, error) {
	l.logger.WithField("address", l.address).Debug("Discovering services and characteristics...")

	profile, err := l.client.DiscoverProfile(true)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"address": l.address,
			"error":   err,
		}).Error("Failed to discover profile")
		return nil, fmt.Errorf("%w: %v", device.ErrNoGattProfile, NormalizeError(err))
	}

	services := servicesFromProfile(profile)
	if len(services) == 0 {
		return nil, device.ErrNoGattProfile
	}

	l.logger.WithFields(logrus.Fields{
		"address":  l.address,
		"services": len(services),
	}).Debug("Profile discovered successfully")
	return services, nil
}

// Subscribe enables notifications on char
func (l *BLELink) Subscribe(char device.Characteristic, handler func(data []byte)) error {
	bc, err := unwrapCharacteristic(char)
	if err != nil {
		return err
	}

	if err := NormalizeError(l.client.Subscribe(bc.BLEChar, false, func(data []byte) {
		handler(data)
	})); err != nil {
		l.logger.WithFields(logrus.Fields{
			"char_uuid": bc.uuid,
			"error":     err,
		}).Error("Failed to subscribe to characteristic notifications")
		return fmt.Errorf("failed to subscribe to characteristic %s: %w", bc.uuid, err)
	}

	l.logger.WithField("char_uuid", bc.uuid).Debug("Subscribed to characteristic notifications")
	return nil
}

// WriteWithoutResponse writes data in a single ATT write command
func (l *BLELink) WriteWithoutResponse(char device.Characteristic, data []byte) error {
	bc, err := unwrapCharacteristic(char)
	if err != nil {
		return err
	}

	select {
	case <-l.closed:
		return device.ErrChannelClosed
	default:
	}

	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	if err := l.client.WriteCharacteristic(bc.BLEChar, data, true); err != nil {
		return fmt.Errorf("failed to write to characteristic %s: %w", bc.uuid, NormalizeError(err))
	}
	return nil
}

// Disconnected is closed when CoreBluetooth/HCI reports the peer gone, or after Close
func (l *BLELink) Disconnected() <-chan struct{} {
	if c, ok := l.client.(interface{ Disconnected() <-chan struct{} }); ok {
		return mergeDone(c.Disconnected(), l.closed)
	}
	l.logger.Debug("Client does not support Disconnected() channel, relying on Close()")
	return l.closed
}

// Close cancels the connection once; later calls return the first result
func (l *BLELink) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		if err := l.client.ClearSubscriptions(); err != nil {
			l.logger.WithField("error", err).Debug("Failed to clear subscriptions before disconnect")
		}
		l.closeErr = NormalizeError(l.client.CancelConnection())
		if l.closeErr != nil {
			l.logger.WithField("error", l.closeErr).Warn("BLE device disconnected with errors")
		} else {
			l.logger.WithField("address", l.address).Info("BLE device disconnected successfully")
		}
	})
	return l.closeErr
}

func unwrapCharacteristic(char device.Characteristic) (*BLECharacteristic, error) {
	bc, ok := char.(*BLECharacteristic)
	if !ok || bc.BLEChar == nil {
		return nil, fmt.Errorf("characteristic %v does not belong to this link", char)
	}
	return bc, nil
}

// mergeDone returns a channel closed when either input is closed
func mergeDone(a, b <-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-a:
		case <-b:
		}
	}()
	return out
}
