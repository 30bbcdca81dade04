package enums

import (
	"fmt"
	"strings"
)

// PickListStatus maps to the pick_list_status enum in Postgres.
type PickListStatus string

const (
	PickListStatusPending    PickListStatus = "PENDING"
	PickListStatusInProgress PickListStatus = "IN_PROGRESS"
	PickListStatusCompleted  PickListStatus = "COMPLETED"
	PickListStatusCancelled  PickListStatus = "CANCELLED"
)

var validPickListStatuses = []PickListStatus{
	PickListStatusPending,
	PickListStatusInProgress,
	PickListStatusCompleted,
	PickListStatusCancelled,
}

// String implements fmt.Stringer.
func (s PickListStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PickListStatus.
func (s PickListStatus) IsValid() bool {
	for _, candidate := range validPickListStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further scans are accepted for the status.
func (s PickListStatus) IsTerminal() bool {
	return s == PickListStatusCancelled
}

// ParsePickListStatus converts raw input into a PickListStatus. Matching is case-insensitive.
func ParsePickListStatus(value string) (PickListStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validPickListStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pick list status %q", value)
}
