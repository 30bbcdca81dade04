package enums

import "fmt"

// ScanResult maps to the scan_result enum in Postgres.
type ScanResult string

const (
	ScanResultSuccess          ScanResult = "SUCCESS"
	ScanResultWrongProduct     ScanResult = "WRONG_PRODUCT"
	ScanResultNotInList        ScanResult = "NOT_IN_LIST"
	ScanResultAlreadyCompleted ScanResult = "ALREADY_COMPLETED"
	ScanResultExcess           ScanResult = "EXCESS"
	ScanResultNotFound         ScanResult = "NOT_FOUND"
	ScanResultProductFound     ScanResult = "PRODUCT_FOUND"
)

// WRONG_PRODUCT and ALREADY_COMPLETED are reserved; no code path produces them.
var validScanResults = []ScanResult{
	ScanResultSuccess,
	ScanResultWrongProduct,
	ScanResultNotInList,
	ScanResultAlreadyCompleted,
	ScanResultExcess,
	ScanResultNotFound,
	ScanResultProductFound,
}

func (r ScanResult) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ScanResult.
func (r ScanResult) IsValid() bool {
	for _, candidate := range validScanResults {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsMatch reports whether the result counts as a matched scan.
func (r ScanResult) IsMatch() bool {
	switch r {
	case ScanResultSuccess, ScanResultExcess, ScanResultProductFound:
		return true
	default:
		return false
	}
}

// ParseScanResult converts raw input into a ScanResult.
func ParseScanResult(value string) (ScanResult, error) {
	for _, candidate := range validScanResults {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scan result %q", value)
}
