package packet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

var infoNames = map[PrinterInfoType]string{
	InfoDensity:          "Density",
	InfoSpeed:            "Speed",
	InfoLabelType:        "LabelType",
	InfoLanguage:         "Language",
	InfoAutoShutdownTime: "AutoShutdownTime",
	InfoPrinterModelID:   "PrinterModelId",
	InfoSoftwareVersion:  "SoftwareVersion",
	InfoBatteryChargeLvl: "BatteryChargeLevel",
	InfoSerialNumber:     "SerialNumber",
	InfoHardwareVersion:  "HardwareVersion",
	InfoBluetoothAddress: "BluetoothAddress",
	InfoPrintMode:        "PrintMode",
	InfoArea:             "Area",
}

func (k PrinterInfoType) String() string {
	if name, ok := infoNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PrinterInfo(%d)", int(k))
}

// ParsePrinterInfoType resolves a key by name (case-insensitive)
func ParsePrinterInfoType(name string) (PrinterInfoType, bool) {
	for k, n := range infoNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return 0, false
}

// DefaultInfoKeys are queried after the connect handshake
var DefaultInfoKeys = []PrinterInfoType{
	InfoPrinterModelID,
	InfoSerialNumber,
	InfoSoftwareVersion,
	InfoHardwareVersion,
	InfoBatteryChargeLvl,
	InfoDensity,
	InfoLabelType,
}

// FormatInfo renders a PrinterInfo reply payload for display
func FormatInfo(key PrinterInfoType, payload []byte) string {
	if len(payload) == 0 {
		return ""
	}

	switch key {
	case InfoSoftwareVersion, InfoHardwareVersion:
		if len(payload) >= 2 {
			return fmt.Sprintf("%.2f", float64(binary.BigEndian.Uint16(payload))/100)
		}
		return fmt.Sprintf("%d", payload[0])
	case InfoPrinterModelID:
		if len(payload) >= 2 {
			return fmt.Sprintf("%d", binary.BigEndian.Uint16(payload))
		}
		return fmt.Sprintf("%d", payload[0])
	case InfoSerialNumber:
		if isPrintable(payload) {
			return string(payload)
		}
		return strings.ToUpper(hex.EncodeToString(payload))
	case InfoBluetoothAddress:
		parts := make([]string, len(payload))
		for i := range payload {
			parts[i] = fmt.Sprintf("%02X", payload[len(payload)-1-i])
		}
		return strings.Join(parts, ":")
	case InfoArea:
		return hex.EncodeToString(payload)
	default:
		return fmt.Sprintf("%d", payload[0])
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
