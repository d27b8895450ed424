package device

import (
	"context"
)

// NameFilter decides whether an advertised device name is eligible for connection
type NameFilter func(name string) bool

// Advertisement is the subset of advertisement data used for printer discovery
type Advertisement interface {
	LocalName() string
	Addr() string
	RSSI() int
	Connectable() bool
	Services() []string
}

// Scanner discovers nearby devices
type Scanner interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Transport establishes physical links to devices
type Transport interface {
	// Connect scans until a device whose name passes filter is found and dials it.
	Connect(ctx context.Context, filter NameFilter) (Link, error)
}

// Link is an established physical connection to a device
type Link interface {
	Name() string
	Address() string

	// Services discovers the GATT profile. Returns ErrNoGattProfile when the
	// device exposes no attribute profile.
	Services() ([]Service, error)

	// Subscribe enables notifications on char and delivers every value to handler.
	Subscribe(char Characteristic, handler func(data []byte)) error

	// WriteWithoutResponse writes data to char without waiting for an ATT acknowledgement.
	WriteWithoutResponse(char Characteristic, data []byte) error

	// Disconnected is closed when the physical link drops.
	Disconnected() <-chan struct{}

	// Close tears down the physical link. Safe to call more than once.
	Close() error
}

// Service represents a GATT service interface
type Service interface {
	UUID() string
	GetCharacteristics() []Characteristic
}

// Characteristic represents a GATT characteristic interface
type Characteristic interface {
	UUID() string
	GetProperties() Properties
}

// Property represents a single BLE characteristic property
type Property interface {
	Value() int
	KnownName() string
}

// Properties represent a collection of BLE characteristic properties
type Properties interface {
	Broadcast() Property
	Read() Property
	Write() Property
	WriteWithoutResponse() Property
	Notify() Property
	Indicate() Property
	AuthenticatedSignedWrites() Property
	ExtendedProperties() Property
}
