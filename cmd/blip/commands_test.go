package main

import (
	"errors"
	"testing"
	"time"

	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
	"github.com/srg/blip/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type PrinterCommandSuite struct {
	CommandTestSuite
}

func TestPrinterCommandSuite(t *testing.T) {
	suite.Run(t, new(PrinterCommandSuite))
}

func (s *PrinterCommandSuite) TestConnectPrintsSession() {
	out, _, err := s.ExecuteCommand("connect")
	s.Require().NoError(err, "connect MUST succeed")

	s.Contains(out, "Connected to B1-H0000001 (AA:BB:CC:DD:EE:FF)")
	s.Contains(out, "Result:  ConnectedV3")
	s.Equal(1, s.Printer.CloseCount(), "command exit MUST close the link")
}

func (s *PrinterCommandSuite) TestConnectWithoutNegotiation() {
	out, _, err := s.ExecuteCommand("connect", "--no-negotiate")
	s.Require().NoError(err)

	s.Contains(out, "Result:  FirmwareErrors", "skipped handshake MUST report the degraded result")
	s.Empty(s.Printer.Requests(), "no command MUST be sent without negotiation")
}

func (s *PrinterCommandSuite) TestConnectHoldEndsWhenPrinterDrops() {
	// GOAL: Verify --hold returns a connection-lost error when the printer goes away
	//
	// TEST SCENARIO: hold indefinitely, drop printer → command returns ErrConnectionLost
	printer := s.Printer
	go func() {
		time.Sleep(300 * time.Millisecond)
		printer.Drop()
	}()

	_, _, err := s.ExecuteCommand("connect", "--hold=-1s")
	s.Require().Error(err)
	s.ErrorIs(err, ErrConnectionLost)
}

func (s *PrinterCommandSuite) TestConnectHoldForDuration() {
	start := time.Now()
	_, _, err := s.ExecuteCommand("connect", "--hold", "100ms")

	s.Require().NoError(err, "hold deadline MUST end the command cleanly")
	s.GreaterOrEqual(time.Since(start), 100*time.Millisecond)
}

func (s *PrinterCommandSuite) TestConnectNoPrinter() {
	s.Transport.FailConnect(&device.NotFoundError{Resource: "printer"})

	_, _, err := s.ExecuteCommand("connect")
	s.Require().Error(err)
	s.Contains(FormatUserError(err), "no printer found nearby")
}

func (s *PrinterCommandSuite) TestInfoTable() {
	s.Printer.WithInfo(packet.InfoSerialNumber, []byte("SN123")...)
	s.Printer.WithInfo(packet.InfoSoftwareVersion, 0x01, 0x2c)

	out, _, err := s.ExecuteCommand("info")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `Printer: B1-H0000001 (AA:BB:CC:DD:EE:FF)
Result:  ConnectedV3

KEY              VALUE  RAW
SoftwareVersion  3.00   012c
SerialNumber     SN123  534e313233`)
}

func (s *PrinterCommandSuite) TestInfoJSON() {
	s.Printer.WithInfo(packet.InfoBatteryChargeLvl, 0x04)

	out, _, err := s.ExecuteCommand("info", "--json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `{
		"device": "B1-H0000001",
		"address": "AA:BB:CC:DD:EE:FF",
		"sessionId": "<<PRESENCE>>",
		"result": "ConnectedV3",
		"info": [{"key": "BatteryChargeLevel", "value": "4", "raw": "04"}]
	}`)
}

func (s *PrinterCommandSuite) TestInfoWithoutAnswers() {
	out, _, err := s.ExecuteCommand("info")
	s.Require().NoError(err)
	s.Contains(out, "No printer info reported.")
}

func (s *PrinterCommandSuite) TestSendPrinterInfo() {
	s.Printer.WithInfo(packet.InfoSerialNumber, []byte("SN123")...)

	out, _, err := s.ExecuteCommand("send", "PrinterInfo", "0b", "--expect", "0x4b")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `-> PrinterInfo
<- PrinterInfo(11) [534e313233]
   SerialNumber = SN123`)
}

func (s *PrinterCommandSuite) TestSendByNumericID() {
	out, _, err := s.ExecuteCommand("send", "0xdc", "01", "--expect", "HeartbeatBasic")
	s.Require().NoError(err)

	s.Contains(out, "<- HeartbeatBasic [0000000400]")
}

func (s *PrinterCommandSuite) TestSendOneWay() {
	out, _, err := s.ExecuteCommand("send", "--oneway", "PrintClear", "01")
	s.Require().NoError(err)

	s.Contains(out, "-> PrintClear sent (no response expected)")
	s.Contains(s.Printer.Requests(), packet.CmdPrintClear)
}

func (s *PrinterCommandSuite) TestSendTimeout() {
	s.Printer.On(packet.CmdPrintStatus, testutils.Silent)

	_, _, err := s.ExecuteCommand("send", "PrintStatus", "01", "--timeout", "50ms")
	s.Require().Error(err)

	var timeout *device.ResponseTimeoutError
	s.Require().True(errors.As(err, &timeout), "unanswered request MUST time out")
	s.Contains(FormatUserError(err), "printer did not answer")
}

func (s *PrinterCommandSuite) TestSendRaw() {
	frame := []byte{0x55, 0x55, 0xdc, 0x01, 0x01, 0xdc, 0xaa, 0xaa}

	out, _, err := s.ExecuteCommand("send", "--raw", "--force", "55:55:dc", "01 01", "dc-aa-aa")
	s.Require().NoError(err)

	s.Contains(out, "Sent 8 bytes")
	writes := s.Printer.Writes()
	s.Require().NotEmpty(writes)
	s.Equal(frame, writes[len(writes)-1], "raw bytes MUST reach the printer unchanged")
}

func (s *PrinterCommandSuite) TestSendTrace() {
	out, _, err := s.ExecuteCommand("send", "Heartbeat", "01", "--trace")
	s.Require().NoError(err)

	s.Contains(out, "Trace (2 frames, 0 overwritten):")
	s.Contains(out, "tx 5555dc0101")
	s.Contains(out, "rx 5555de05")
}

func (s *PrinterCommandSuite) TestSendRejectsBadArguments() {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"send", "Bogus"}, `unknown command "Bogus"`},
		{"bad payload", []string{"send", "Heartbeat", "zz"}, "invalid hex payload"},
		{"unknown response", []string{"send", "Heartbeat", "--expect", "Nope"}, `unknown response "Nope"`},
		{"force without raw", []string{"send", "--force", "Heartbeat"}, "--force requires --raw"},
		{"empty raw", []string{"send", "--raw", ""}, "--raw requires at least one byte"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.ExecuteCommand(tt.args...)
			s.Require().Error(err)
			s.Contains(err.Error(), tt.want)
		})
	}
}

func (s *PrinterCommandSuite) TestMonitorPrintsInboundPackets() {
	// GOAL: Verify monitor prints unsolicited packets until the printer disconnects
	//
	// TEST SCENARIO: printer emits a PrinterEvent then drops → line printed, command fails with connection lost
	printer := s.Printer
	go func() {
		time.Sleep(300 * time.Millisecond)
		printer.NotifyPacket(packet.NewResponse(packet.RespPrinterEvent, []byte{0x01, 0x02}))
		time.Sleep(50 * time.Millisecond)
		printer.Drop()
	}()

	out, _, err := s.ExecuteCommand("monitor", "--no-color")
	s.Require().ErrorIs(err, ErrConnectionLost)

	s.Contains(out, "monitoring B1-H0000001 (AA:BB:CC:DD:EE:FF)")
	s.Contains(out, "<- PrinterEvent [0102]")
	s.Contains(out, "disconnected from B1-H0000001")
}

func (s *PrinterCommandSuite) TestMonitorRawForDuration() {
	printer := s.Printer
	go func() {
		time.Sleep(300 * time.Millisecond)
		printer.NotifyPacket(packet.NewResponse(packet.RespPrinterEvent, []byte{0x07}))
	}()

	out, _, err := s.ExecuteCommand("monitor", "--raw", "--no-color", "--duration", "600ms")
	s.Require().NoError(err, "duration MUST end monitoring cleanly")

	s.Contains(out, "rx 5555d60107")
	s.Contains(out, "<- PrinterEvent [07]")
}
