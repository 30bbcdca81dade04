package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{EventType: enums.EventScanRecorded}
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, writer := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventPickListCreated: handler,
	})
	data, _ := json.Marshal(payloads.PickListCreatedEvent{PickListCode: "PL-20250201-001"})
	env := types.Envelope{
		EventType: enums.EventPickListCreated,
		Payload:   data,
	}
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
	if len(writer.pickLists) != 0 {
		t.Fatalf("default handler should not run, got %d rows", len(writer.pickLists))
	}
}

func TestScanRecordedWritesScanFact(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	pickListID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	scannedAt := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	event := payloads.ScanRecordedEvent{
		ScanLogID:      uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		PickListID:     &pickListID,
		PickListCode:   "PL-20250201-001",
		ScannedCode:    "8901234567890",
		ProductCode:    "SOAP001",
		Strategy:       "barcode",
		ScanResult:     enums.ScanResultSuccess,
		IsMatch:        true,
		PickedQty:      2,
		RequiredQty:    5,
		Operator:       "ravi",
		Branch:         "BLR-01",
		DeviceType:     enums.DeviceTypeUSBScanner,
		ResponseTimeMS: 12,
		ScannedAt:      scannedAt,
	}
	data, _ := json.Marshal(event)

	err := router.Handle(context.Background(), types.Envelope{
		EventID:    "evt-1",
		EventType:  enums.EventScanRecorded,
		OccurredAt: scannedAt.Add(time.Minute),
		Payload:    data,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.scans) != 1 {
		t.Fatalf("expected one scan row, got %d", len(writer.scans))
	}
	row := writer.scans[0]
	if row.EventID != "evt-1" || row.ScanResult != "SUCCESS" || !row.IsMatch {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !row.OccurredAt.Equal(scannedAt) {
		t.Fatalf("expected scanned_at as occurred_at, got %v", row.OccurredAt)
	}
	if row.PickListID == nil || *row.PickListID != pickListID.String() {
		t.Fatalf("unexpected pick list id: %v", row.PickListID)
	}
	if row.PickedQty == nil || *row.PickedQty != 2 || row.RequiredQty == nil || *row.RequiredQty != 5 {
		t.Fatalf("unexpected quantities: %v %v", row.PickedQty, row.RequiredQty)
	}
	if row.Strategy == nil || *row.Strategy != "barcode" {
		t.Fatalf("unexpected strategy: %v", row.Strategy)
	}
	if !row.Payload.Valid {
		t.Fatal("expected payload json")
	}
}

func TestScanRecordedWithoutPickListLeavesQuantitiesNull(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	event := payloads.ScanRecordedEvent{
		ScanLogID:   uuid.New(),
		ScannedCode: "UNKNOWN",
		ScanResult:  enums.ScanResultNotFound,
		DeviceType:  enums.DeviceTypeManual,
	}
	data, _ := json.Marshal(event)
	occurred := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

	err := router.Handle(context.Background(), types.Envelope{
		EventID:    "evt-2",
		EventType:  enums.EventScanRecorded,
		OccurredAt: occurred,
		Payload:    data,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := writer.scans[0]
	if row.PickListID != nil || row.PickedQty != nil || row.ProductCode != nil {
		t.Fatalf("expected null pick list fields, got %+v", row)
	}
	if !row.OccurredAt.Equal(occurred) {
		t.Fatalf("expected envelope time fallback, got %v", row.OccurredAt)
	}
}

func TestPickListStatusEventsShareHandler(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	event := payloads.PickListStatusEvent{
		PickListID:   uuid.New(),
		PickListCode: "PL-20250201-002",
		Branch:       "BLR-01",
		From:         enums.PickListStatusInProgress,
		To:           enums.PickListStatusCompleted,
		TotalItems:   5,
		PickedItems:  5,
		ErrorCount:   1,
		ChangedAt:    time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC),
	}
	data, _ := json.Marshal(event)

	for _, eventType := range []enums.OutboxEventType{enums.EventPickListCompleted, enums.EventPickListCancelled} {
		err := router.Handle(context.Background(), types.Envelope{
			EventID:   string(eventType),
			EventType: eventType,
			Payload:   data,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", eventType, err)
		}
	}
	if len(writer.pickLists) != 2 {
		t.Fatalf("expected two pick list rows, got %d", len(writer.pickLists))
	}
	row := writer.pickLists[0]
	if row.EventType != "pick_list_completed" || row.ToStatus != "COMPLETED" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.FromStatus == nil || *row.FromStatus != "IN_PROGRESS" {
		t.Fatalf("unexpected from status: %v", row.FromStatus)
	}
	if row.Reason != nil {
		t.Fatalf("expected nil reason, got %v", *row.Reason)
	}
	if row.PickedItems != 5 || row.ErrorCount != 1 {
		t.Fatalf("unexpected counters: %+v", row)
	}
}

func TestPickListCreatedWritesPendingFact(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	event := payloads.PickListCreatedEvent{
		PickListID:   uuid.New(),
		PickListCode: "PL-20250201-003",
		Branch:       "BLR-01",
		ItemCount:    3,
		TotalItems:   8,
		CreatedAt:    time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC),
	}
	data, _ := json.Marshal(event)
	if err := router.Handle(context.Background(), types.Envelope{
		EventID:   "evt-3",
		EventType: enums.EventPickListCreated,
		Payload:   data,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := writer.pickLists[0]
	if row.ToStatus != "PENDING" || row.FromStatus != nil {
		t.Fatalf("unexpected statuses: %+v", row)
	}
	if row.ItemCount == nil || *row.ItemCount != 3 || row.TotalItems != 8 {
		t.Fatalf("unexpected sizes: %+v", row)
	}
}

func TestHandlerPropagatesWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("bigquery down")}
	router, err := NewRouter(writer, logger.New(logger.Options{Output: io.Discard}), nil)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	data, _ := json.Marshal(payloads.ScanRecordedEvent{ScanLogID: uuid.New(), ScannedCode: "X"})
	err = router.Handle(context.Background(), types.Envelope{
		EventID:   "evt-4",
		EventType: enums.EventScanRecorded,
		Payload:   data,
	})
	if err == nil {
		t.Fatal("expected writer error")
	}
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *fakeWriter) {
	t.Helper()
	writer := &fakeWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	return nil
}
