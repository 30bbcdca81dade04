package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/stn-picking/pkg/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// Config names the fact tables and tunes batching.
type Config struct {
	ScanFactsTable     string
	PickListFactsTable string
	// BatchSize above 1 holds rows until the batch fills or Flush runs.
	// Rows held that way are lost if the worker dies after acking.
	BatchSize   int
	RetryPolicy RetryPolicy
}

// RetryPolicy bounds retries of a streaming insert.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// factBatch buffers rows for one table. Each row is sent with its event id
// as the BigQuery insert id, so a redelivered event within the streaming
// dedupe window does not produce a second fact.
type factBatch[T any] struct {
	spec     pkgbigquery.TableSpec
	insertID func(*T) string
	rows     []T
}

func (b *factBatch[T]) savers() []any {
	out := make([]any, len(b.rows))
	for i := range b.rows {
		row := &b.rows[i]
		out[i] = &cbigquery.StructSaver{
			Schema:   b.spec.Schema,
			InsertID: b.insertID(row),
			Struct:   row,
		}
	}
	return out
}

// BigQueryWriter streams scan and pick-list fact rows.
type BigQueryWriter struct {
	client    tableInserter
	batchSize int
	retry     RetryPolicy

	// mu guards both batches; Pub/Sub callbacks run concurrently.
	mu        sync.Mutex
	scans     factBatch[types.ScanFactRow]
	pickLists factBatch[types.PickListFactRow]
}

func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	scans := strings.TrimSpace(cfg.ScanFactsTable)
	if scans == "" {
		return nil, errors.New("scan facts table is required")
	}
	pickLists := strings.TrimSpace(cfg.PickListFactsTable)
	if pickLists == "" {
		return nil, errors.New("pick list facts table is required")
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	retry.MaximumBackoff = max(retry.MaximumBackoff, retry.InitialBackoff)
	if cfg.RetryPolicy.MaximumBackoff <= 0 {
		retry.MaximumBackoff = max(defaultMaximumBackoff, retry.InitialBackoff)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &BigQueryWriter{
		client:    client,
		batchSize: batchSize,
		retry:     retry,
		scans: factBatch[types.ScanFactRow]{
			spec:     types.ScanFactsTable(scans),
			insertID: func(r *types.ScanFactRow) string { return "scan:" + r.EventID },
		},
		pickLists: factBatch[types.PickListFactRow]{
			spec:     types.PickListFactsTable(pickLists),
			insertID: func(r *types.PickListFactRow) string { return "pick_list:" + r.EventID },
		},
	}, nil
}

func (w *BigQueryWriter) InsertScanFact(ctx context.Context, row types.ScanFactRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return add(ctx, w, &w.scans, row)
}

func (w *BigQueryWriter) InsertPickListFact(ctx context.Context, row types.PickListFactRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return add(ctx, w, &w.pickLists, row)
}

// Flush writes any held rows now; the worker calls it on shutdown.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(flush(ctx, w, &w.scans), flush(ctx, w, &w.pickLists))
}

func add[T any](ctx context.Context, w *BigQueryWriter, b *factBatch[T], row T) error {
	b.rows = append(b.rows, row)
	if len(b.rows) < w.batchSize {
		return nil
	}
	return flush(ctx, w, b)
}

// flush keeps the rows on failure so a later Flush can try again.
func flush[T any](ctx context.Context, w *BigQueryWriter, b *factBatch[T]) error {
	if len(b.rows) == 0 {
		return nil
	}
	if err := w.insertWithRetry(ctx, b.spec.Name, b.savers()); err != nil {
		return err
	}
	b.rows = b.rows[:0]
	return nil
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, table string, rows []any) error {
	backoff := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %d rows into %s (attempt %d): %w", len(rows), table, attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

// isRetryableBigQueryError is true only when every wrapped failure is
// transient; one bad row makes the whole insert permanent.
func isRetryableBigQueryError(err error) bool {
	if err == nil {
		return false
	}

	// Inserter.Put returns PutMultiError by value; MultiError travels the
	// same way inside each RowInsertionError.
	var pme cbigquery.PutMultiError
	if errors.As(err, &pme) {
		return allRetryable(pme, func(r cbigquery.RowInsertionError) error { return r.Errors })
	}
	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return allRetryable(multi, func(e error) error { return e })
	}
	var rowErr *cbigquery.RowInsertionError
	if errors.As(err, &rowErr) && rowErr != nil {
		return allRetryable(rowErr.Errors, func(e error) error { return e })
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableHTTP[apiErr.Code]
	}
	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return retryableGRPC[st.Code()]
		}
	}
	return false
}

func allRetryable[E any](items []E, unwrap func(E) error) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !isRetryableBigQueryError(unwrap(item)) {
			return false
		}
	}
	return true
}

var retryableHTTP = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusRequestTimeout:      true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var retryableGRPC = map[codes.Code]bool{
	codes.Aborted:           true,
	codes.DeadlineExceeded:  true,
	codes.Internal:          true,
	codes.ResourceExhausted: true,
	codes.Unavailable:       true,
}

// EncodeJSON turns an event payload into a JSON column value. Empty input
// is stored as NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch value := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return value, nil
	case json.RawMessage:
		raw = value
	case []byte:
		raw = value
	default:
		marshaled, err := json.Marshal(payload)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
		}
		raw = marshaled
	}
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
