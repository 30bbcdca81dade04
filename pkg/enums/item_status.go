package enums

import "fmt"

// ItemStatus is the per-line progress of a pick list item.
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "PENDING"
	ItemStatusPartial ItemStatus = "PARTIAL"
	ItemStatusPicked  ItemStatus = "PICKED"
	ItemStatusExcess  ItemStatus = "EXCESS"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusPartial,
	ItemStatusPicked,
	ItemStatusExcess,
}

func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
