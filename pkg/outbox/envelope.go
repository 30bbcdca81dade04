package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies the operator and branch behind the event.
type ActorRef struct {
	Operator string `json:"operator,omitempty"`
	Branch   string `json:"branch,omitempty"`
}

// NewActor returns nil when neither operator nor branch is known.
func NewActor(operator, branch string) *ActorRef {
	if operator == "" && branch == "" {
		return nil
	}
	return &ActorRef{Operator: operator, Branch: branch}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
