package picklists

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/stn-picking/internal/catalog"
	"github.com/angelmondragon/stn-picking/internal/scanlogs"
	"github.com/angelmondragon/stn-picking/pkg/config"
	"github.com/angelmondragon/stn-picking/pkg/db"
	"github.com/angelmondragon/stn-picking/pkg/db/dbtest"
	"github.com/angelmondragon/stn-picking/pkg/db/models"
	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/angelmondragon/stn-picking/pkg/logger"
	"github.com/angelmondragon/stn-picking/pkg/metrics"
	"github.com/angelmondragon/stn-picking/pkg/outbox"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCounter struct {
	mu     sync.Mutex
	values map[string]int64
	keys   []string
	ttls   []time.Duration
	err    error
}

func (c *stubCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if c.values == nil {
		c.values = map[string]int64{}
	}
	c.values[key]++
	c.keys = append(c.keys, key)
	c.ttls = append(c.ttls, ttl)
	return c.values[key], nil
}

func (c *stubCounter) CounterKey(parts ...string) string {
	return "stn:counter:" + strings.Join(parts, ":")
}

type fixedSequence struct {
	codes []string
	calls int
}

func (f *fixedSequence) Next(context.Context) (string, error) {
	code := f.codes[min(f.calls, len(f.codes)-1)]
	f.calls++
	return code, nil
}

type testEnv struct {
	svc     *service
	conn    *gorm.DB
	reg     *prometheus.Registry
	counter *stubCounter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{Output: io.Discard})

	catalogRepo := catalog.NewRepository(conn)
	resolver, err := catalog.NewResolver(catalogRepo)
	require.NoError(t, err)

	counter := &stubCounter{}
	seq, err := NewSequenceGenerator(counter, time.UTC, 0)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		ScanLogs: scanlogs.NewRepository(conn),
		Tx:       db.NewFromConn(conn),
		Resolver: resolver,
		Products: catalogRepo,
		Sequence: seq,
		Outbox:   outbox.NewService(outbox.NewRepository(conn), logg),
		Metrics:  metrics.NewScanMetrics(reg),
		Logger:   logg,
		Config:   config.PickingConfig{Timezone: "UTC"},
	})
	require.NoError(t, err)
	return &testEnv{svc: svc.(*service), conn: conn, reg: reg, counter: counter}
}

func strPtr(v string) *string { return &v }

func mustCreateProduct(t *testing.T, conn *gorm.DB, code string, mutate func(*models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		ProductCode:        code,
		ProductName:        "Product " + code,
		Barcode:            strPtr("BC-" + code),
		HasPhysicalBarcode: true,
		IsActive:           true,
	}
	if mutate != nil {
		mutate(product)
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func (e *testEnv) mustCreateList(t *testing.T, items ...CreateItemInput) *PickListView {
	t.Helper()
	view, err := e.svc.Create(context.Background(), CreateInput{Branch: "BLR-01", Operator: "ravi", Items: items})
	require.NoError(t, err)
	return view
}

func (e *testEnv) scan(t *testing.T, code, pickList string) *ScanOutcome {
	t.Helper()
	outcome, err := e.svc.ApplyScan(context.Background(), ScanInput{
		ScannedCode: code,
		PickListID:  pickList,
		Operator:    "ravi",
		Branch:      "BLR-01",
		DeviceType:  enums.DeviceTypeUSBScanner,
	})
	require.NoError(t, err)
	return outcome
}

func (e *testEnv) reload(t *testing.T, ref string) *models.PickList {
	t.Helper()
	list, err := e.svc.load(context.Background(), ref)
	require.NoError(t, err)
	return list
}

func (e *testEnv) eventCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func (e *testEnv) scanLogs(t *testing.T) []models.ScanLog {
	t.Helper()
	var rows []models.ScanLog
	require.NoError(t, e.conn.Order("created_at").Find(&rows).Error)
	return rows
}
