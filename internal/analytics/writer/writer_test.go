package writer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/stn-picking/pkg/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewWriterValidation(t *testing.T) {
	cases := map[string]struct {
		client *pkgbigquery.Client
		cfg    Config
	}{
		"missing client":        {nil, Config{ScanFactsTable: "scan_facts", PickListFactsTable: "pick_list_facts"}},
		"blank scan table":      {&pkgbigquery.Client{}, Config{ScanFactsTable: " ", PickListFactsTable: "pick_list_facts"}},
		"blank pick list table": {&pkgbigquery.Client{}, Config{ScanFactsTable: "scan_facts", PickListFactsTable: ""}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(tc.client, tc.cfg); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestNewWriterDefaultsRetryPolicy(t *testing.T) {
	w, err := New(&pkgbigquery.Client{}, Config{
		ScanFactsTable:     "scan_facts",
		PickListFactsTable: "pick_list_facts",
		RetryPolicy:        RetryPolicy{InitialBackoff: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if w.retry.MaxAttempts != defaultMaxAttempts || w.batchSize != defaultBatchSize {
		t.Fatalf("unexpected defaults attempts=%d batch=%d", w.retry.MaxAttempts, w.batchSize)
	}
	if w.retry.MaximumBackoff < w.retry.InitialBackoff {
		t.Fatalf("maximum backoff %s below initial %s", w.retry.MaximumBackoff, w.retry.InitialBackoff)
	}
}

func TestEncodeJSON(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		valid bool
		want  string
	}{
		{"nil is null", nil, false, ""},
		{"empty raw is null", json.RawMessage(nil), false, ""},
		{"raw passes through", json.RawMessage(`{"foo":"baz"}`), true, `{"foo":"baz"}`},
		{"bytes pass through", []byte(`[1,2]`), true, `[1,2]`},
		{"value is marshaled", map[string]any{"matched": true}, true, `{"matched":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeJSON(tc.in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got.Valid != tc.valid || got.JSONVal != tc.want {
				t.Fatalf("EncodeJSON = %+v, want valid=%v %s", got, tc.valid, tc.want)
			}
		})
	}

	if _, err := EncodeJSON(make(chan int)); err == nil {
		t.Fatal("expected marshal error for a channel")
	}
}

func TestWriterRetriesOnTransientError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		nil,
	}

	if err := writer.InsertScanFact(context.Background(), types.ScanFactRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error writing row: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected two insert attempts, got %d", len(fake.calls))
	}
	if fake.calls[1].table != "scan_facts" {
		t.Fatalf("expected scan facts table on retry, got %s", fake.calls[1].table)
	}
	if len(writer.scans.rows) != 0 {
		t.Fatal("expected buffer to be empty after success")
	}
}

func TestWriterDoesNotRetryPermanentError(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	if err := writer.InsertPickListFact(context.Background(), types.PickListFactRow{EventID: "1"}); err == nil {
		t.Fatal("expected error for bad request")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(fake.calls))
	}
	if fake.calls[0].table != "pick_list_facts" {
		t.Fatalf("expected pick list facts table, got %s", fake.calls[0].table)
	}
}

func TestWriterBatching(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 2

	if err := writer.InsertScanFact(context.Background(), types.ScanFactRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no insert before batch full, got %d", len(fake.calls))
	}

	if err := writer.InsertScanFact(context.Background(), types.ScanFactRow{EventID: "2"}); err != nil {
		t.Fatalf("unexpected error on second insert: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected single insert after batch flush, got %d", len(fake.calls))
	}
	if fake.calls[0].rowCount != 2 {
		t.Fatalf("expected two rows inserted, got %d", fake.calls[0].rowCount)
	}
}

func TestWriterFlush(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	writer.batchSize = 10
	if err := writer.InsertScanFact(context.Background(), types.ScanFactRow{EventID: "1"}); err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected flush to insert once, got %d", len(fake.calls))
	}
	if len(writer.scans.rows) != 0 {
		t.Fatalf("expected buffer to be empty after flush, got %d", len(writer.scans.rows))
	}
}

func TestWriterSendsEventIDAsInsertID(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	row := types.ScanFactRow{EventID: "evt-42", ScannedCode: "7501031311309"}
	if err := writer.InsertScanFact(context.Background(), row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := writer.InsertPickListFact(context.Background(), types.PickListFactRow{EventID: "evt-42"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	saver, ok := fake.calls[0].rows[0].(*cbigquery.StructSaver)
	if !ok {
		t.Fatalf("expected *StructSaver, got %T", fake.calls[0].rows[0])
	}
	if saver.InsertID != "scan:evt-42" {
		t.Fatalf("unexpected insert id %q", saver.InsertID)
	}
	if len(saver.Schema) == 0 {
		t.Fatal("expected scan facts schema on saver")
	}
	if got := saver.Struct.(*types.ScanFactRow); got.ScannedCode != "7501031311309" {
		t.Fatalf("unexpected row %+v", got)
	}

	other := fake.calls[1].rows[0].(*cbigquery.StructSaver)
	if other.InsertID == saver.InsertID {
		t.Fatal("insert ids must differ across tables")
	}
}

func TestWriterKeepsRowsWhenInsertFails(t *testing.T) {
	writer, fake := newWriterWithFakeInserter(t)
	fake.responses = []error{&googleapi.Error{Code: http.StatusBadRequest}}

	if err := writer.InsertScanFact(context.Background(), types.ScanFactRow{EventID: "1"}); err == nil {
		t.Fatal("expected insert error")
	}
	if len(writer.scans.rows) != 1 {
		t.Fatalf("expected failed row kept for flush, got %d", len(writer.scans.rows))
	}
	if err := writer.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(writer.scans.rows) != 0 {
		t.Fatal("expected rows cleared after flush")
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	unavailable := &googleapi.Error{Code: http.StatusServiceUnavailable}
	invalid := &googleapi.Error{Code: http.StatusBadRequest}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"http 503", unavailable, true},
		{"http 400", invalid, false},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), false},
		{"multi all transient", cbigquery.MultiError{unavailable, unavailable}, true},
		{"multi one permanent", cbigquery.MultiError{unavailable, invalid}, false},
		{"put multi transient", cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{unavailable}},
		}, true},
		{"put multi permanent row", cbigquery.PutMultiError{
			{InsertID: "a", Errors: cbigquery.MultiError{unavailable}},
			{InsertID: "b", Errors: cbigquery.MultiError{invalid}},
		}, false},
		{"empty multi", cbigquery.MultiError{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryableBigQueryError(tc.err); got != tc.want {
				t.Fatalf("isRetryableBigQueryError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

type insertCall struct {
	table    string
	rowCount int
	rows     []any
}

type fakeInserter struct {
	responses []error
	calls     []insertCall
	index     int
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.calls = append(f.calls, insertCall{table: table, rowCount: len(rows), rows: rows})
	var err error
	if f.index < len(f.responses) {
		err = f.responses[f.index]
	}
	f.index++
	return err
}

func newWriterWithFakeInserter(t *testing.T) (*BigQueryWriter, *fakeInserter) {
	t.Helper()
	writer, err := New(&pkgbigquery.Client{}, Config{
		ScanFactsTable:     "scan_facts",
		PickListFactsTable: "pick_list_facts",
	})
	if err != nil {
		t.Fatalf("construct writer: %v", err)
	}

	fake := &fakeInserter{}
	writer.client = fake
	return writer, fake
}
