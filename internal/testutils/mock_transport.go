package testutils

import (
	"context"

	"github.com/srg/blip/internal/device"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock of device.Transport
type MockTransport struct {
	mock.Mock
}

var _ device.Transport = (*MockTransport)(nil)

func (m *MockTransport) Connect(ctx context.Context, filter device.NameFilter) (device.Link, error) {
	args := m.Called(ctx, filter)
	link, _ := args.Get(0).(device.Link)
	return link, args.Error(1)
}

// MockLink is a testify mock of device.Link
type MockLink struct {
	mock.Mock
}

var _ device.Link = (*MockLink)(nil)

func (m *MockLink) Name() string    { return m.Called().String(0) }
func (m *MockLink) Address() string { return m.Called().String(0) }

func (m *MockLink) Services() ([]device.Service, error) {
	args := m.Called()
	services, _ := args.Get(0).([]device.Service)
	return services, args.Error(1)
}

func (m *MockLink) Subscribe(char device.Characteristic, handler func(data []byte)) error {
	return m.Called(char, handler).Error(0)
}

func (m *MockLink) WriteWithoutResponse(char device.Characteristic, data []byte) error {
	return m.Called(char, data).Error(0)
}

func (m *MockLink) Disconnected() <-chan struct{} {
	ch, _ := m.Called().Get(0).(chan struct{})
	return ch
}

func (m *MockLink) Close() error {
	return m.Called().Error(0)
}

// MockScanner is a testify mock of device.Scanner. Advertisements are
// delivered to the handler before the mocked return value.
type MockScanner struct {
	mock.Mock
	Advertisements []device.Advertisement
}

var _ device.Scanner = (*MockScanner)(nil)

func (m *MockScanner) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	for _, adv := range m.Advertisements {
		handler(adv)
	}
	return m.Called(ctx, allowDup).Error(0)
}

// StaticAdvertisement is an in-memory device.Advertisement
type StaticAdvertisement struct {
	Name           string
	Address        string
	Signal         int
	NotConnectable bool
	ServiceUUIDs   []string
}

func (a *StaticAdvertisement) LocalName() string  { return a.Name }
func (a *StaticAdvertisement) Addr() string       { return a.Address }
func (a *StaticAdvertisement) RSSI() int          { return a.Signal }
func (a *StaticAdvertisement) Connectable() bool  { return !a.NotConnectable }
func (a *StaticAdvertisement) Services() []string { return a.ServiceUUIDs }
