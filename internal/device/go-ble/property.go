package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/device"
)

// BLEProperty represents a single BLE characteristic property with its bit flag value and human-readable name.
type BLEProperty struct {
	value ble.Property
	name  string
}

// Value returns the bit flag value of the property.
func (p *BLEProperty) Value() int {
	return int(p.value)
}

// KnownName returns the human-readable name of the property.
func (p *BLEProperty) KnownName() string {
	return p.name
}

// BLEProperties exposes ble.Property bit flags through device.Properties.
// Accessors return nil when the flag is absent.
type BLEProperties struct {
	mask ble.Property
}

// NewProperties creates a Properties instance from ble.Property bit flags.
func NewProperties(p ble.Property) device.Properties {
	return &BLEProperties{mask: p}
}

func (p *BLEProperties) lookup(bit ble.Property, name string) device.Property {
	if p.mask&bit == 0 {
		return nil
	}
	return &BLEProperty{value: bit, name: name}
}

func (p *BLEProperties) Broadcast() device.Property { return p.lookup(ble.CharBroadcast, "Broadcast") }
func (p *BLEProperties) Read() device.Property      { return p.lookup(ble.CharRead, "Read") }
func (p *BLEProperties) Write() device.Property     { return p.lookup(ble.CharWrite, "Write") }
func (p *BLEProperties) Notify() device.Property    { return p.lookup(ble.CharNotify, "Notify") }
func (p *BLEProperties) Indicate() device.Property  { return p.lookup(ble.CharIndicate, "Indicate") }

func (p *BLEProperties) WriteWithoutResponse() device.Property {
	return p.lookup(ble.CharWriteNR, "WriteWithoutResponse")
}

func (p *BLEProperties) AuthenticatedSignedWrites() device.Property {
	return p.lookup(ble.CharSignedWrite, "AuthenticatedSignedWrites")
}

func (p *BLEProperties) ExtendedProperties() device.Property {
	return p.lookup(ble.CharExtended, "ExtendedProperties")
}
