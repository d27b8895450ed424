package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/device"
)

// ----------------------------
// BLE Service / Characteristic
// ----------------------------

// BLEService represents a discovered GATT service and its characteristics,
// kept in discovery order.
type BLEService struct {
	uuid            string
	Characteristics []*BLECharacteristic
}

func (s *BLEService) UUID() string {
	return s.uuid
}

func (s *BLEService) GetCharacteristics() []device.Characteristic {
	result := make([]device.Characteristic, 0, len(s.Characteristics))
	for _, char := range s.Characteristics {
		result = append(result, char)
	}
	return result
}

// BLECharacteristic wraps a live go-ble characteristic handle
type BLECharacteristic struct {
	uuid       string
	properties device.Properties
	BLEChar    *ble.Characteristic
}

// NewCharacteristic wraps c with normalized UUID and decoded properties
func NewCharacteristic(c *ble.Characteristic) *BLECharacteristic {
	return &BLECharacteristic{
		uuid:       device.NormalizeUUID(c.UUID.String()),
		properties: NewProperties(c.Property),
		BLEChar:    c,
	}
}

func (c *BLECharacteristic) UUID() string {
	return c.uuid
}

func (c *BLECharacteristic) GetProperties() device.Properties {
	return c.properties
}

// servicesFromProfile converts a discovered profile, preserving discovery order
func servicesFromProfile(p *ble.Profile) []device.Service {
	if p == nil {
		return nil
	}
	out := make([]device.Service, 0, len(p.Services))
	for _, svc := range p.Services {
		if svc == nil {
			continue
		}
		s := &BLEService{uuid: device.NormalizeUUID(svc.UUID.String())}
		for _, c := range svc.Characteristics {
			if c == nil {
				continue
			}
			s.Characteristics = append(s.Characteristics, NewCharacteristic(c))
		}
		out = append(out, s)
	}
	return out
}
