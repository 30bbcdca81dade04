// Package dbtest opens throwaway sqlite databases carrying the picking schema.
// The DDL mirrors pkg/migrate/migrations with sqlite column types.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  product_code TEXT NOT NULL UNIQUE,
  product_name TEXT NOT NULL,
  variant TEXT,
  barcode TEXT UNIQUE,
  original_barcode TEXT,
  has_physical_barcode INTEGER NOT NULL DEFAULT 1,
  rack_id TEXT,
  rack_sequence INTEGER,
  category TEXT,
  brand TEXT,
  brand_form TEXT,
  mrp NUMERIC,
  slp NUMERIC,
  rlp NUMERIC,
  upc TEXT,
  units INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS generated_barcodes (
  id TEXT PRIMARY KEY,
  generated_code TEXT NOT NULL UNIQUE,
  product_id TEXT NOT NULL REFERENCES products(id),
  product_code TEXT NOT NULL,
  barcode_type TEXT NOT NULL DEFAULT 'QR',
  printed_at DATETIME,
  print_count INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS racks (
  id TEXT PRIMARY KEY,
  rack_id TEXT NOT NULL UNIQUE,
  zone TEXT,
  aisle TEXT,
  level INTEGER,
  sequence INTEGER NOT NULL DEFAULT 0,
  branch_id TEXT,
  capacity INTEGER NOT NULL DEFAULT 100,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS branches (
  id TEXT PRIMARY KEY,
  branch_id TEXT NOT NULL UNIQUE,
  branch_name TEXT NOT NULL,
  address TEXT,
  city TEXT,
  state TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS pick_lists (
  id TEXT PRIMARY KEY,
  pick_list_code TEXT NOT NULL UNIQUE,
  branch TEXT NOT NULL,
  operator TEXT,
  total_items INTEGER NOT NULL DEFAULT 0,
  picked_items INTEGER NOT NULL DEFAULT 0,
  error_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'PENDING',
  started_at DATETIME,
  completed_at DATETIME,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS pick_list_items (
  id TEXT PRIMARY KEY,
  pick_list_id TEXT NOT NULL REFERENCES pick_lists(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_code TEXT NOT NULL,
  product_id TEXT,
  product_name TEXT,
  barcode TEXT,
  rack_id TEXT,
  rack_sequence INTEGER NOT NULL DEFAULT 0,
  required_qty INTEGER NOT NULL CHECK (required_qty >= 1),
  picked_qty INTEGER NOT NULL DEFAULT 0 CHECK (picked_qty >= 0),
  item_status TEXT NOT NULL DEFAULT 'PENDING',
  updated_at DATETIME,
  UNIQUE (pick_list_id, product_code)
);
CREATE TABLE IF NOT EXISTS scan_logs (
  id TEXT PRIMARY KEY,
  pick_list_id TEXT,
  pick_list_code TEXT,
  scanned_code TEXT NOT NULL,
  expected_code TEXT,
  product_code TEXT,
  is_match INTEGER NOT NULL DEFAULT 0,
  scan_result TEXT NOT NULL,
  operator TEXT,
  branch TEXT,
  device_type TEXT NOT NULL DEFAULT 'MANUAL',
  response_time_ms INTEGER,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);
CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`

// Open returns a private in-memory database for the calling test with the schema applied.
// A single connection is used so nested transactions behave like savepoints on one session.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}
