package types

import (
	cbigquery "cloud.google.com/go/bigquery"
	pkgbigquery "github.com/angelmondragon/stn-picking/pkg/bigquery"
)

func field(name string, t cbigquery.FieldType, required bool) *cbigquery.FieldSchema {
	return &cbigquery.FieldSchema{Name: name, Type: t, Required: required}
}

// ScanFactsTable is the BigQuery layout of ScanFactRow.
func ScanFactsTable(name string) pkgbigquery.TableSpec {
	return pkgbigquery.TableSpec{
		Name: name,
		Schema: cbigquery.Schema{
			field("event_id", cbigquery.StringFieldType, true),
			field("scan_log_id", cbigquery.StringFieldType, true),
			field("occurred_at", cbigquery.TimestampFieldType, true),
			field("pick_list_id", cbigquery.StringFieldType, false),
			field("pick_list_code", cbigquery.StringFieldType, false),
			field("scanned_code", cbigquery.StringFieldType, true),
			field("product_code", cbigquery.StringFieldType, false),
			field("strategy", cbigquery.StringFieldType, false),
			field("scan_result", cbigquery.StringFieldType, true),
			field("is_match", cbigquery.BooleanFieldType, true),
			field("picked_qty", cbigquery.IntegerFieldType, false),
			field("required_qty", cbigquery.IntegerFieldType, false),
			field("operator", cbigquery.StringFieldType, false),
			field("branch", cbigquery.StringFieldType, false),
			field("device_type", cbigquery.StringFieldType, true),
			field("response_time_ms", cbigquery.IntegerFieldType, true),
			field("payload", cbigquery.JSONFieldType, false),
		},
		PartitionField: "occurred_at",
		ClusterBy:      []string{"branch", "scan_result"},
	}
}

// PickListFactsTable is the BigQuery layout of PickListFactRow.
func PickListFactsTable(name string) pkgbigquery.TableSpec {
	return pkgbigquery.TableSpec{
		Name: name,
		Schema: cbigquery.Schema{
			field("event_id", cbigquery.StringFieldType, true),
			field("event_type", cbigquery.StringFieldType, true),
			field("occurred_at", cbigquery.TimestampFieldType, true),
			field("pick_list_id", cbigquery.StringFieldType, true),
			field("pick_list_code", cbigquery.StringFieldType, true),
			field("branch", cbigquery.StringFieldType, true),
			field("from_status", cbigquery.StringFieldType, false),
			field("to_status", cbigquery.StringFieldType, true),
			field("item_count", cbigquery.IntegerFieldType, false),
			field("total_items", cbigquery.IntegerFieldType, true),
			field("picked_items", cbigquery.IntegerFieldType, true),
			field("error_count", cbigquery.IntegerFieldType, true),
			field("reason", cbigquery.StringFieldType, false),
			field("payload", cbigquery.JSONFieldType, false),
		},
		PartitionField: "occurred_at",
		ClusterBy:      []string{"branch", "event_type"},
	}
}
