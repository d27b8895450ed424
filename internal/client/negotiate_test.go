package client

import (
	"context"
	"testing"
	"time"

	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) SendPacketWaitResponse(ctx context.Context, p *packet.Packet, timeout time.Duration) (*packet.Packet, error) {
	args := m.Called(p.Command(), p.Payload())
	resp, _ := args.Get(0).(*packet.Packet)
	return resp, args.Error(1)
}

func infoQuery(key packet.PrinterInfoType) []byte { return []byte{byte(key)} }

func TestInfoNegotiator(t *testing.T) {
	keys := []packet.PrinterInfoType{packet.InfoSerialNumber, packet.InfoBatteryChargeLvl, packet.InfoDensity}

	t.Run("collects answered keys and skips unsupported", func(t *testing.T) {
		ex := &mockExchanger{}
		ex.On("SendPacketWaitResponse", packet.CmdConnect, []byte{0x01}).
			Return(packet.NewResponse(packet.RespConnect, []byte{0x02}), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoSerialNumber)).
			Return(packet.NewResponse(packet.InfoResponseID(packet.InfoSerialNumber), []byte("SN1")), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoBatteryChargeLvl)).
			Return(packet.NewResponse(packet.RespNotSupported, nil), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoDensity)).
			Return(packet.NewResponse(packet.InfoResponseID(packet.InfoDensity), []byte{3}), nil).Once()

		res, err := NewInfoNegotiator(nil, keys...).Negotiate(context.Background(), ex)

		require.NoError(t, err)
		assert.Equal(t, packet.ConnectResultConnectedNew, res.Result)
		assert.Equal(t, map[packet.PrinterInfoType][]byte{
			packet.InfoSerialNumber: []byte("SN1"),
			packet.InfoDensity:      {3},
		}, res.Info, "NotSupported keys MUST be omitted")
		ex.AssertExpectations(t)
	})

	t.Run("handshake failure keeps default result", func(t *testing.T) {
		ex := &mockExchanger{}
		ex.On("SendPacketWaitResponse", packet.CmdConnect, mock.Anything).
			Return(nil, &device.ResponseTimeoutError{Command: "Connect"}).Once()

		res, err := NewInfoNegotiator(nil, keys...).Negotiate(context.Background(), ex)

		assert.ErrorIs(t, err, device.ErrNegotiation)
		assert.ErrorIs(t, err, device.ErrTimeout)
		assert.Equal(t, packet.ConnectResultFirmwareErrors, res.Result, "result MUST default to FirmwareErrors")
		assert.Empty(t, res.Info)
		ex.AssertNumberOfCalls(t, "SendPacketWaitResponse", 1)
	})

	t.Run("per-key timeouts are collected, not fatal", func(t *testing.T) {
		ex := &mockExchanger{}
		ex.On("SendPacketWaitResponse", packet.CmdConnect, mock.Anything).
			Return(packet.NewResponse(packet.RespConnect, []byte{0x03}), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoSerialNumber)).
			Return(nil, &device.ResponseTimeoutError{Command: "PrinterInfo"}).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoBatteryChargeLvl)).
			Return(packet.NewResponse(packet.InfoResponseID(packet.InfoBatteryChargeLvl), []byte{4}), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, infoQuery(packet.InfoDensity)).
			Return(nil, &device.ResponseTimeoutError{Command: "PrinterInfo"}).Once()

		res, err := NewInfoNegotiator(nil, keys...).Negotiate(context.Background(), ex)

		assert.ErrorIs(t, err, device.ErrNegotiation)
		assert.Contains(t, err.Error(), "SerialNumber")
		assert.Equal(t, packet.ConnectResultConnectedV3, res.Result)
		assert.Equal(t, map[packet.PrinterInfoType][]byte{packet.InfoBatteryChargeLvl: {4}}, res.Info)
		ex.AssertExpectations(t)
	})

	t.Run("closed channel stops the queries", func(t *testing.T) {
		ex := &mockExchanger{}
		ex.On("SendPacketWaitResponse", packet.CmdConnect, mock.Anything).
			Return(packet.NewResponse(packet.RespConnect, []byte{0x01}), nil).Once()
		ex.On("SendPacketWaitResponse", packet.CmdPrinterInfo, mock.Anything).
			Return(nil, device.ErrChannelClosed).Once()

		res, err := NewInfoNegotiator(nil, keys...).Negotiate(context.Background(), ex)

		assert.ErrorIs(t, err, device.ErrChannelClosed)
		assert.Equal(t, packet.ConnectResultConnected, res.Result)
		ex.AssertNumberOfCalls(t, "SendPacketWaitResponse", 2)
	})

	t.Run("defaults to the standard key set", func(t *testing.T) {
		assert.Equal(t, packet.DefaultInfoKeys, NewInfoNegotiator(nil).Keys)
	})
}

func TestNegotiatorFunc(t *testing.T) {
	called := false
	var n Negotiator = NegotiatorFunc(func(ctx context.Context, ex Exchanger) (*NegotiatedInfo, error) {
		called = true
		return &NegotiatedInfo{Result: packet.ConnectResultConnected}, nil
	})

	res, err := n.Negotiate(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, packet.ConnectResultConnected, res.Result)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Disconnected", StateDisconnected.String())
	assert.Equal(t, "Connecting", StateConnecting.String())
	assert.Equal(t, "Negotiating", StateNegotiating.String())
	assert.Equal(t, "Connected", StateConnected.String())
}
