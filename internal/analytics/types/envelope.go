package types

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/enums"
)

// Envelope is one analytics message after the worker has merged the stored
// outbox envelope with the publisher's routing attributes.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	PickListID    string                    `json:"pick_list_id,omitempty"`
	Branch        string                    `json:"branch,omitempty"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}

// LogFields lists the envelope's identity for structured logs; routing
// attributes are only included when set.
func (e Envelope) LogFields() map[string]any {
	fields := map[string]any{
		"event_id":       e.EventID,
		"event_type":     e.EventType,
		"aggregate_type": e.AggregateType,
		"aggregate_id":   e.AggregateID,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.PickListID != "" {
		fields["pick_list_id"] = e.PickListID
	}
	if e.Branch != "" {
		fields["branch"] = e.Branch
	}
	return fields
}
