package goble

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-ble/ble"
	"github.com/srg/blip/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"powered off state", errors.New("central manager has invalid state: have=4 want=5"), device.ErrBluetoothOff},
		{"powered off message", errors.New("Bluetooth is turned off"), device.ErrBluetoothOff},
		{"not connected", errors.New("device not connected"), device.ErrNotConnected},
		{"disconnected", errors.New("peripheral disconnected"), device.ErrChannelClosed},
		{"already connected", errors.New("device already connected"), device.ErrAlreadyConnected},
		{"adapter powered off", errors.New("hci0: adapter Powered Off"), device.ErrBluetoothOff},
		{"link reset", errors.New("read: connection reset by peer"), device.ErrChannelClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeError(tt.err)
			assert.ErrorIs(t, got, tt.target)
			assert.Contains(t, got.Error(), tt.err.Error(), "original message MUST be preserved")
		})
	}

	assert.NoError(t, NormalizeError(nil))

	other := errors.New("att: write failed")
	assert.Same(t, other, NormalizeError(other), "unknown errors MUST pass through untouched")

	wrapped := fmt.Errorf("scan: %w", context.DeadlineExceeded)
	assert.Same(t, wrapped, NormalizeError(wrapped), "context errors MUST pass through untouched")
}

func TestNewProperties(t *testing.T) {
	props := NewProperties(ble.CharNotify | ble.CharWriteNR)

	require.NotNil(t, props.Notify())
	require.NotNil(t, props.WriteWithoutResponse())
	assert.Equal(t, int(ble.CharNotify), props.Notify().Value())
	assert.Equal(t, "WriteWithoutResponse", props.WriteWithoutResponse().KnownName())

	assert.Nil(t, props.Read())
	assert.Nil(t, props.Write())
	assert.Nil(t, props.Indicate())
	assert.Nil(t, props.Broadcast())
	assert.Nil(t, props.AuthenticatedSignedWrites())
	assert.Nil(t, props.ExtendedProperties())
}

func TestServicesFromProfile(t *testing.T) {
	profile := &ble.Profile{
		Services: []*ble.Service{
			{
				UUID: ble.UUID16(0x1800),
				Characteristics: []*ble.Characteristic{
					{UUID: ble.UUID16(0x2a00), Property: ble.CharRead},
				},
			},
			nil,
			{
				UUID: ble.MustParse("e7810a71-73ae-499d-8c15-faa9aef0c3f2"),
				Characteristics: []*ble.Characteristic{
					{UUID: ble.MustParse("bef8d6c9-9c21-4c9e-b632-bd58c1009f9f"), Property: ble.CharNotify | ble.CharWriteNR | ble.CharRead},
					nil,
				},
			},
		},
	}

	services := servicesFromProfile(profile)
	require.Len(t, services, 2, "nil services MUST be skipped")

	assert.Equal(t, "1800", services[0].UUID())
	assert.Equal(t, "e7810a7173ae499d8c15faa9aef0c3f2", services[1].UUID())

	chars := services[1].GetCharacteristics()
	require.Len(t, chars, 1, "nil characteristics MUST be skipped")
	assert.Equal(t, "bef8d6c99c214c9eb632bd58c1009f9f", chars[0].UUID())

	ep, err := device.SelectEndpoint(services, device.DefaultMinServiceUUIDLength)
	require.NoError(t, err, "converted profile MUST be usable for endpoint selection")
	assert.Equal(t, "e7810a7173ae499d8c15faa9aef0c3f2", ep.Service.UUID())

	assert.Empty(t, servicesFromProfile(nil))
	assert.Empty(t, servicesFromProfile(&ble.Profile{}))
}

func TestTransportDeviceFactoryError(t *testing.T) {
	orig := DeviceFactory
	t.Cleanup(func() { DeviceFactory = orig })

	DeviceFactory = func() (ble.Device, error) {
		return nil, errors.New("central manager has invalid state: have=4 want=5")
	}

	tr := NewTransport(nil)

	_, err := tr.Connect(context.Background(), device.NamePrefixFilter("B"))
	assert.ErrorIs(t, err, device.ErrBluetoothOff, "adapter errors MUST be normalized")

	err = tr.Scan(context.Background(), false, func(device.Advertisement) {})
	assert.ErrorIs(t, err, device.ErrBluetoothOff)
}

func TestUnwrapCharacteristicRejectsForeign(t *testing.T) {
	_, err := unwrapCharacteristic(&device.StaticCharacteristic{ID: "ae01"})
	assert.Error(t, err, "characteristics from another transport MUST be rejected")

	bc := NewCharacteristic(&ble.Characteristic{UUID: ble.UUID16(0xae01), Property: ble.CharNotify})
	got, err := unwrapCharacteristic(bc)
	require.NoError(t, err)
	assert.Same(t, bc, got)
}
