package enums

import (
	"fmt"
	"strings"
)

// BarcodeType is the symbology a generated code is intended to be printed as.
type BarcodeType string

const (
	BarcodeTypeQR      BarcodeType = "QR"
	BarcodeTypeCode128 BarcodeType = "CODE128"
	BarcodeTypeEAN13   BarcodeType = "EAN13"
)

var validBarcodeTypes = []BarcodeType{
	BarcodeTypeQR,
	BarcodeTypeCode128,
	BarcodeTypeEAN13,
}

func (b BarcodeType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BarcodeType.
func (b BarcodeType) IsValid() bool {
	for _, candidate := range validBarcodeTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBarcodeType converts raw input into a BarcodeType; blank input yields QR.
func ParseBarcodeType(value string) (BarcodeType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return BarcodeTypeQR, nil
	}
	for _, candidate := range validBarcodeTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid barcode type %q", value)
}
