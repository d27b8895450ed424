package packet

import (
	"fmt"
	"strconv"
	"strings"
)

// RequestCommandID identifies an outbound command
type RequestCommandID int

// ResponseCommandID identifies an inbound packet
type ResponseCommandID int

// Outbound commands
const (
	CmdInvalid            RequestCommandID = -1
	CmdPrintStart         RequestCommandID = 0x01
	CmdPageStart          RequestCommandID = 0x03
	CmdSetPageSize        RequestCommandID = 0x13
	CmdSetDensity         RequestCommandID = 0x21
	CmdSetLabelType       RequestCommandID = 0x23
	CmdPrinterInfo        RequestCommandID = 0x40
	CmdRfidInfo           RequestCommandID = 0x1a
	CmdPrintBitmapRow     RequestCommandID = 0x85
	CmdPrintEmptyRow      RequestCommandID = 0x84
	CmdPrintStatus        RequestCommandID = 0xa3
	CmdPrinterStatusData  RequestCommandID = 0xa5
	CmdConnect            RequestCommandID = 0xc1
	CmdHeartbeat          RequestCommandID = 0xdc
	CmdPageEnd            RequestCommandID = 0xe3
	CmdPrintEnd           RequestCommandID = 0xf3
	CmdPrinterConfig      RequestCommandID = 0xaf
	CmdSoundSettings      RequestCommandID = 0x58
	CmdCalibrateHeight    RequestCommandID = 0x59
	CmdPrintClear         RequestCommandID = 0x20
	CmdAntiFake           RequestCommandID = 0x0b
	CmdPrinterLog         RequestCommandID = 0x05
	CmdPrinterReset       RequestCommandID = 0x28
	CmdPrintTestPage      RequestCommandID = 0x5a
	CmdStartFirmwareFlash RequestCommandID = 0xf5
)

// Inbound packets
const (
	RespInvalid           ResponseCommandID = -1
	RespNotSupported      ResponseCommandID = 0x00
	RespPrintStart        ResponseCommandID = 0x02
	RespPageStart         ResponseCommandID = 0x04
	RespSetPageSize       ResponseCommandID = 0x14
	RespSetDensity        ResponseCommandID = 0x31
	RespSetLabelType      ResponseCommandID = 0x33
	RespRfidInfo          ResponseCommandID = 0x1b
	RespPrintStatus       ResponseCommandID = 0xb3
	RespPrinterStatusData ResponseCommandID = 0xb5
	RespConnect           ResponseCommandID = 0xc2
	RespHeartbeatAdvanced ResponseCommandID = 0xdd
	RespHeartbeatBasic    ResponseCommandID = 0xde
	RespHeartbeatUnknown  ResponseCommandID = 0xdf
	RespHeartbeat1        ResponseCommandID = 0xd9
	RespPageEnd           ResponseCommandID = 0xe4
	RespPrintEnd          ResponseCommandID = 0xf4
	RespPrinterConfig     ResponseCommandID = 0xbf
	RespSoundSettings     ResponseCommandID = 0x68
	RespCalibrateHeight   ResponseCommandID = 0x69
	RespPrintClear        ResponseCommandID = 0x30
	RespAntiFake          ResponseCommandID = 0x0c
	RespPrinterLog        ResponseCommandID = 0x06
	RespPrinterReset      ResponseCommandID = 0x38
	RespPrintTestPage     ResponseCommandID = 0x6a
	RespPrinterCheckLine  ResponseCommandID = 0xd3
	RespPrintError        ResponseCommandID = 0xdb
	RespPrinterPageIndex  ResponseCommandID = 0xe0
	RespPrinterEvent      ResponseCommandID = 0xd6
	RespStartFirmware     ResponseCommandID = 0xf6
)

// PrinterInfoType selects the attribute queried by CmdPrinterInfo
type PrinterInfoType int

const (
	InfoDensity           PrinterInfoType = 1
	InfoSpeed             PrinterInfoType = 2
	InfoLabelType         PrinterInfoType = 3
	InfoLanguage          PrinterInfoType = 6
	InfoAutoShutdownTime  PrinterInfoType = 7
	InfoPrinterModelID    PrinterInfoType = 8
	InfoSoftwareVersion   PrinterInfoType = 9
	InfoBatteryChargeLvl  PrinterInfoType = 10
	InfoSerialNumber      PrinterInfoType = 11
	InfoHardwareVersion   PrinterInfoType = 12
	InfoBluetoothAddress  PrinterInfoType = 13
	InfoPrintMode         PrinterInfoType = 14
	InfoArea              PrinterInfoType = 15
	printerInfoMaxKeyword PrinterInfoType = 15
)

var requestNames = map[RequestCommandID]string{
	CmdInvalid:            "Invalid",
	CmdPrintStart:         "PrintStart",
	CmdPageStart:          "PageStart",
	CmdSetPageSize:        "SetPageSize",
	CmdSetDensity:         "SetDensity",
	CmdSetLabelType:       "SetLabelType",
	CmdPrinterInfo:        "PrinterInfo",
	CmdRfidInfo:           "RfidInfo",
	CmdPrintBitmapRow:     "PrintBitmapRow",
	CmdPrintEmptyRow:      "PrintEmptyRow",
	CmdPrintStatus:        "PrintStatus",
	CmdPrinterStatusData:  "PrinterStatusData",
	CmdConnect:            "Connect",
	CmdHeartbeat:          "Heartbeat",
	CmdPageEnd:            "PageEnd",
	CmdPrintEnd:           "PrintEnd",
	CmdPrinterConfig:      "PrinterConfig",
	CmdSoundSettings:      "SoundSettings",
	CmdCalibrateHeight:    "CalibrateHeight",
	CmdPrintClear:         "PrintClear",
	CmdAntiFake:           "AntiFake",
	CmdPrinterLog:         "PrinterLog",
	CmdPrinterReset:       "PrinterReset",
	CmdPrintTestPage:      "PrintTestPage",
	CmdStartFirmwareFlash: "StartFirmwareFlash",
}

var responseNames = map[ResponseCommandID]string{
	RespInvalid:           "Invalid",
	RespNotSupported:      "NotSupported",
	RespPrintStart:        "PrintStart",
	RespPageStart:         "PageStart",
	RespSetPageSize:       "SetPageSize",
	RespSetDensity:        "SetDensity",
	RespSetLabelType:      "SetLabelType",
	RespRfidInfo:          "RfidInfo",
	RespPrintStatus:       "PrintStatus",
	RespPrinterStatusData: "PrinterStatusData",
	RespConnect:           "Connect",
	RespHeartbeatAdvanced: "HeartbeatAdvanced",
	RespHeartbeatBasic:    "HeartbeatBasic",
	RespHeartbeatUnknown:  "HeartbeatUnknown",
	RespHeartbeat1:        "Heartbeat1",
	RespPageEnd:           "PageEnd",
	RespPrintEnd:          "PrintEnd",
	RespPrinterConfig:     "PrinterConfig",
	RespSoundSettings:     "SoundSettings",
	RespCalibrateHeight:   "CalibrateHeight",
	RespPrintClear:        "PrintClear",
	RespAntiFake:          "AntiFake",
	RespPrinterLog:        "PrinterLog",
	RespPrinterReset:      "PrinterReset",
	RespPrintTestPage:     "PrintTestPage",
	RespPrinterCheckLine:  "PrinterCheckLine",
	RespPrintError:        "PrintError",
	RespPrinterPageIndex:  "PrinterPageIndex",
	RespPrinterEvent:      "PrinterEvent",
	RespStartFirmware:     "StartFirmwareFlash",
}

// String returns the command name, or its hex value if unknown
func (c RequestCommandID) String() string {
	if name, ok := requestNames[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", int(c))
}

// String returns the response name, or its hex value if unknown
func (r ResponseCommandID) String() string {
	if name, ok := responseNames[r]; ok {
		return name
	}
	if key, ok := r.PrinterInfoType(); ok {
		return fmt.Sprintf("PrinterInfo(%d)", int(key))
	}
	return fmt.Sprintf("0x%02x", int(r))
}

// PrinterInfoType reports whether r is a PrinterInfo reply and for which key.
// PrinterInfo replies are numbered 0x40 + key.
func (r ResponseCommandID) PrinterInfoType() (PrinterInfoType, bool) {
	key := PrinterInfoType(int(r) - int(CmdPrinterInfo))
	if key >= InfoDensity && key <= printerInfoMaxKeyword {
		return key, true
	}
	return 0, false
}

// InfoResponseID returns the response id a PrinterInfo query for key is answered with
func InfoResponseID(key PrinterInfoType) ResponseCommandID {
	return ResponseCommandID(int(CmdPrinterInfo) + int(key))
}

// IsKnownResponse reports whether id is a recognised inbound command identifier
func IsKnownResponse(id ResponseCommandID) bool {
	if id == RespInvalid {
		return false
	}
	if _, ok := responseNames[id]; ok {
		return true
	}
	_, ok := id.PrinterInfoType()
	return ok
}

// ParseRequestCommandID accepts a command name (case-insensitive) or a numeric
// id such as "0xdc" or "220".
func ParseRequestCommandID(s string) (RequestCommandID, error) {
	for id, name := range requestNames {
		if id != CmdInvalid && strings.EqualFold(name, s) {
			return id, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return CmdInvalid, fmt.Errorf("unknown command %q", s)
	}
	return RequestCommandID(n), nil
}

// ParseResponseCommandID accepts a response name (case-insensitive) or a
// numeric id.
func ParseResponseCommandID(s string) (ResponseCommandID, error) {
	for id, name := range responseNames {
		if id != RespInvalid && strings.EqualFold(name, s) {
			return id, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return RespInvalid, fmt.Errorf("unknown response %q", s)
	}
	return ResponseCommandID(n), nil
}
