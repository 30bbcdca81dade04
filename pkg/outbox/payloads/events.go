package payloads

import (
	"time"

	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/google/uuid"
)

// PickListCreatedEvent announces a new pick list and its size.
type PickListCreatedEvent struct {
	PickListID   uuid.UUID `json:"pick_list_id"`
	PickListCode string    `json:"pick_list_code"`
	Branch       string    `json:"branch"`
	ItemCount    int       `json:"item_count"`
	TotalItems   int       `json:"total_items"`
	CreatedAt    time.Time `json:"created_at"`
}

// ScanRecordedEvent mirrors one scan log row for downstream analytics.
type ScanRecordedEvent struct {
	ScanLogID      uuid.UUID        `json:"scan_log_id"`
	PickListID     *uuid.UUID       `json:"pick_list_id,omitempty"`
	PickListCode   string           `json:"pick_list_code,omitempty"`
	ScannedCode    string           `json:"scanned_code"`
	ProductCode    string           `json:"product_code,omitempty"`
	Strategy       string           `json:"strategy,omitempty"`
	ScanResult     enums.ScanResult `json:"scan_result"`
	IsMatch        bool             `json:"is_match"`
	PickedQty      int              `json:"picked_qty"`
	RequiredQty    int              `json:"required_qty"`
	Operator       string           `json:"operator,omitempty"`
	Branch         string           `json:"branch,omitempty"`
	DeviceType     enums.DeviceType `json:"device_type"`
	ResponseTimeMS int              `json:"response_time_ms"`
	ScannedAt      time.Time        `json:"scanned_at"`
}

// PickListStatusEvent covers completed, reopened and cancelled transitions.
type PickListStatusEvent struct {
	PickListID   uuid.UUID            `json:"pick_list_id"`
	PickListCode string               `json:"pick_list_code"`
	Branch       string               `json:"branch"`
	From         enums.PickListStatus `json:"from"`
	To           enums.PickListStatus `json:"to"`
	TotalItems   int                  `json:"total_items"`
	PickedItems  int                  `json:"picked_items"`
	ErrorCount   int                  `json:"error_count"`
	Reason       string               `json:"reason,omitempty"`
	ChangedAt    time.Time            `json:"changed_at"`
}
