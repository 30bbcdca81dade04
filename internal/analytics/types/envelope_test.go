package types

import (
	"testing"
	"time"

	"github.com/angelmondragon/stn-picking/pkg/enums"
)

func TestEnvelopeLogFieldsOmitsBlankRouting(t *testing.T) {
	env := Envelope{
		EventID:    "evt-1",
		EventType:  enums.EventScanRecorded,
		OccurredAt: time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
	}
	fields := env.LogFields()
	if _, ok := fields["pick_list_id"]; ok {
		t.Fatal("blank pick list id should be omitted")
	}
	if fields["occurred_at"] != "2025-02-01T09:30:00Z" {
		t.Fatalf("unexpected occurred_at %v", fields["occurred_at"])
	}

	env.PickListID = "pl-1"
	env.Branch = "BLR-01"
	fields = env.LogFields()
	if fields["pick_list_id"] != "pl-1" || fields["branch"] != "BLR-01" {
		t.Fatalf("routing fields missing: %v", fields)
	}
}
