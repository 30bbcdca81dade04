package router

import (
	"fmt"
	"time"

	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/stn-picking/internal/analytics/writer"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
)

func scanFields(envelope types.Envelope, event *payloads.ScanRecordedEvent) map[string]any {
	return map[string]any{
		"event_type":     envelope.EventType,
		"scan_log_id":    event.ScanLogID,
		"pick_list_code": event.PickListCode,
		"scan_result":    event.ScanResult,
	}
}

// buildScanFactRow leaves the pick-list columns NULL for scans made outside
// a pick list.
func buildScanFactRow(envelope types.Envelope, event *payloads.ScanRecordedEvent) (types.ScanFactRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.ScanFactRow{}, fmt.Errorf("encode payload json: %w", err)
	}

	row := types.ScanFactRow{
		EventID:        envelope.EventID,
		ScanLogID:      event.ScanLogID.String(),
		OccurredAt:     analytics.FactTimestamp(&event.ScannedAt, envelope.OccurredAt, time.Now()),
		PickListCode:   optionalString(event.PickListCode),
		ScannedCode:    event.ScannedCode,
		ProductCode:    optionalString(event.ProductCode),
		Strategy:       optionalString(event.Strategy),
		ScanResult:     string(event.ScanResult),
		IsMatch:        event.IsMatch,
		Operator:       optionalString(event.Operator),
		Branch:         optionalString(event.Branch),
		DeviceType:     string(event.DeviceType),
		ResponseTimeMS: int64(event.ResponseTimeMS),
		Payload:        payloadJSON,
	}
	if event.PickListID != nil {
		row.PickListID = optionalString(event.PickListID.String())
		row.PickedQty = ptrTo(int64(event.PickedQty))
		row.RequiredQty = ptrTo(int64(event.RequiredQty))
	}
	return row, nil
}
