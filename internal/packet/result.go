package packet

import "fmt"

// ConnectResult is the status byte a printer returns to CmdConnect
type ConnectResult int

const (
	ConnectResultDisconnect     ConnectResult = 0
	ConnectResultConnected      ConnectResult = 1
	ConnectResultConnectedNew   ConnectResult = 2
	ConnectResultConnectedV3    ConnectResult = 3
	ConnectResultFirmwareErrors ConnectResult = 90
)

var connectResultNames = map[ConnectResult]string{
	ConnectResultDisconnect:     "Disconnect",
	ConnectResultConnected:      "Connected",
	ConnectResultConnectedNew:   "ConnectedNew",
	ConnectResultConnectedV3:    "ConnectedV3",
	ConnectResultFirmwareErrors: "FirmwareErrors",
}

func (r ConnectResult) String() string {
	if name, ok := connectResultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ConnectResult(%d)", int(r))
}

// ParseConnectResult reads the status byte of a RespConnect payload. Printers
// that answer with an empty payload report FirmwareErrors.
func ParseConnectResult(payload []byte) ConnectResult {
	if len(payload) == 0 {
		return ConnectResultFirmwareErrors
	}
	return ConnectResult(payload[0])
}
