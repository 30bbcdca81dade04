package router

import (
	"fmt"
	"time"

	"github.com/angelmondragon/stn-picking/internal/analytics"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/stn-picking/internal/analytics/writer"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
)

func createdFields(envelope types.Envelope, event *payloads.PickListCreatedEvent) map[string]any {
	return map[string]any{
		"event_type":     envelope.EventType,
		"pick_list_code": event.PickListCode,
	}
}

func statusFields(envelope types.Envelope, event *payloads.PickListStatusEvent) map[string]any {
	return map[string]any{
		"event_type":     envelope.EventType,
		"pick_list_code": event.PickListCode,
		"from":           event.From,
		"to":             event.To,
	}
}

// A created pick list is recorded as a transition into PENDING.
func buildCreatedFactRow(envelope types.Envelope, event *payloads.PickListCreatedEvent) (types.PickListFactRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.PickListFactRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.PickListFactRow{
		EventID:      envelope.EventID,
		EventType:    string(envelope.EventType),
		OccurredAt:   analytics.FactTimestamp(&event.CreatedAt, envelope.OccurredAt, time.Now()),
		PickListID:   event.PickListID.String(),
		PickListCode: event.PickListCode,
		Branch:       event.Branch,
		ToStatus:     string(enums.PickListStatusPending),
		ItemCount:    ptrTo(int64(event.ItemCount)),
		TotalItems:   int64(event.TotalItems),
		Payload:      payloadJSON,
	}, nil
}

// buildStatusFactRow serves completed, reopened and cancelled events.
func buildStatusFactRow(envelope types.Envelope, event *payloads.PickListStatusEvent) (types.PickListFactRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.PickListFactRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.PickListFactRow{
		EventID:      envelope.EventID,
		EventType:    string(envelope.EventType),
		OccurredAt:   analytics.FactTimestamp(&event.ChangedAt, envelope.OccurredAt, time.Now()),
		PickListID:   event.PickListID.String(),
		PickListCode: event.PickListCode,
		Branch:       event.Branch,
		FromStatus:   optionalString(string(event.From)),
		ToStatus:     string(event.To),
		TotalItems:   int64(event.TotalItems),
		PickedItems:  int64(event.PickedItems),
		ErrorCount:   int64(event.ErrorCount),
		Reason:       optionalString(event.Reason),
		Payload:      payloadJSON,
	}, nil
}
