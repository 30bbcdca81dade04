package enums

import "testing"

func TestParsePickListStatusIsCaseInsensitive(t *testing.T) {
	got, err := ParsePickListStatus(" in_progress ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PickListStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", got)
	}
	if _, err := ParsePickListStatus("DONE"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseDeviceTypeDefaultsToManual(t *testing.T) {
	got, err := ParseDeviceType("")
	if err != nil || got != DeviceTypeManual {
		t.Fatalf("expected MANUAL, got %s err=%v", got, err)
	}
	got, err = ParseDeviceType("usb_scanner")
	if err != nil || got != DeviceTypeUSBScanner {
		t.Fatalf("expected USB_SCANNER, got %s err=%v", got, err)
	}
	if _, err := ParseDeviceType("phone"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestParseBarcodeTypeDefaultsToQR(t *testing.T) {
	got, err := ParseBarcodeType("")
	if err != nil || got != BarcodeTypeQR {
		t.Fatalf("expected QR, got %s err=%v", got, err)
	}
	if _, err := ParseBarcodeType("PDF417"); err == nil {
		t.Fatal("expected error for unsupported symbology")
	}
}

func TestScanResultIsMatch(t *testing.T) {
	cases := map[ScanResult]bool{
		ScanResultSuccess:      true,
		ScanResultExcess:       true,
		ScanResultProductFound: true,
		ScanResultNotFound:     false,
		ScanResultNotInList:    false,
	}
	for result, want := range cases {
		if got := result.IsMatch(); got != want {
			t.Errorf("%s: expected IsMatch=%v, got %v", result, want, got)
		}
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventScanRecorded.IsValid() {
		t.Fatal("scan_recorded should be valid")
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
	if agg, err := ParseOutboxAggregateType("pick_list"); err != nil || agg != AggregatePickList {
		t.Fatalf("unexpected aggregate parse %s err=%v", agg, err)
	}
}

func TestParseOutboxDLQErrorReason(t *testing.T) {
	if r, err := ParseOutboxDLQErrorReason("unroutable"); err != nil || r != OutboxDLQReasonUnroutable {
		t.Fatalf("unexpected parse %s err=%v", r, err)
	}
	if _, err := ParseOutboxDLQErrorReason("MAX_ATTEMPTS"); err == nil {
		t.Fatal("reasons are matched exactly")
	}
}
