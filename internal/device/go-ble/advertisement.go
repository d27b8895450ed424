package goble

import (
	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/device"
)

// BLEAdvertisement wraps ble.Advertisement to implement device.Advertisement interface
type BLEAdvertisement struct {
	adv ble.Advertisement
}

// NewBLEAdvertisement creates a new BLEAdvertisement wrapper
func NewBLEAdvertisement(adv ble.Advertisement) device.Advertisement {
	return &BLEAdvertisement{adv: adv}
}

func (a *BLEAdvertisement) LocalName() string { return a.adv.LocalName() }
func (a *BLEAdvertisement) Connectable() bool { return a.adv.Connectable() }
func (a *BLEAdvertisement) RSSI() int         { return a.adv.RSSI() }

func (a *BLEAdvertisement) Addr() string {
	if addr := a.adv.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Services returns advertised service UUIDs in normalized form
func (a *BLEAdvertisement) Services() []string {
	bleServices := a.adv.Services()
	result := make([]string, len(bleServices))
	for i, svc := range bleServices {
		result[i] = device.NormalizeUUID(svc.String())
	}
	return result
}
