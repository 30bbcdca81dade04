package enums

import (
	"fmt"
	"strings"
)

// DeviceType identifies the input device that produced a scan.
type DeviceType string

const (
	DeviceTypeCamera     DeviceType = "CAMERA"
	DeviceTypeUSBScanner DeviceType = "USB_SCANNER"
	DeviceTypeManual     DeviceType = "MANUAL"
)

var validDeviceTypes = []DeviceType{
	DeviceTypeCamera,
	DeviceTypeUSBScanner,
	DeviceTypeManual,
}

func (d DeviceType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeviceType.
func (d DeviceType) IsValid() bool {
	for _, candidate := range validDeviceTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceType converts raw input into a DeviceType; blank input yields MANUAL.
func ParseDeviceType(value string) (DeviceType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return DeviceTypeManual, nil
	}
	for _, candidate := range validDeviceTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device type %q", value)
}
