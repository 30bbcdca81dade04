package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// ScanFactRow mirrors the scan_facts BigQuery schema, one row per scan_recorded event.
type ScanFactRow struct {
	EventID        string             `bigquery:"event_id"`
	ScanLogID      string             `bigquery:"scan_log_id"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	PickListID     *string            `bigquery:"pick_list_id"`
	PickListCode   *string            `bigquery:"pick_list_code"`
	ScannedCode    string             `bigquery:"scanned_code"`
	ProductCode    *string            `bigquery:"product_code"`
	Strategy       *string            `bigquery:"strategy"`
	ScanResult     string             `bigquery:"scan_result"`
	IsMatch        bool               `bigquery:"is_match"`
	PickedQty      *int64             `bigquery:"picked_qty"`
	RequiredQty    *int64             `bigquery:"required_qty"`
	Operator       *string            `bigquery:"operator"`
	Branch         *string            `bigquery:"branch"`
	DeviceType     string             `bigquery:"device_type"`
	ResponseTimeMS int64              `bigquery:"response_time_ms"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}

// PickListFactRow mirrors the pick_list_facts BigQuery schema: one row per
// lifecycle event (created, completed, reopened, cancelled).
type PickListFactRow struct {
	EventID      string             `bigquery:"event_id"`
	EventType    string             `bigquery:"event_type"`
	OccurredAt   time.Time          `bigquery:"occurred_at"`
	PickListID   string             `bigquery:"pick_list_id"`
	PickListCode string             `bigquery:"pick_list_code"`
	Branch       string             `bigquery:"branch"`
	FromStatus   *string            `bigquery:"from_status"`
	ToStatus     string             `bigquery:"to_status"`
	ItemCount    *int64             `bigquery:"item_count"`
	TotalItems   int64              `bigquery:"total_items"`
	PickedItems  int64              `bigquery:"picked_items"`
	ErrorCount   int64              `bigquery:"error_count"`
	Reason       *string            `bigquery:"reason"`
	Payload      cbigquery.NullJSON `bigquery:"payload"`
}
