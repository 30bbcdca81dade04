package query

import (
	"testing"
	"time"

	"github.com/angelmondragon/stn-picking/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/stn-picking/pkg/errors"
)

func TestValidateRequest(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		req  types.TrendQueryRequest
		ok   bool
	}{
		{"missing window", types.TrendQueryRequest{}, false},
		{"inverted window", types.TrendQueryRequest{Start: start, End: start.Add(-time.Hour)}, false},
		{"valid", types.TrendQueryRequest{Start: start, End: start.Add(24 * time.Hour)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRequest(tc.req)
			if tc.ok && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !tc.ok && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBuildBranchClause(t *testing.T) {
	if got := buildBranchClause("  "); got != "TRUE" {
		t.Fatalf("expected TRUE for blank branch, got %q", got)
	}
	if got := buildBranchClause("BLR-01"); got != "branch = @branch" {
		t.Fatalf("unexpected clause %q", got)
	}
}

func TestNewTrendServiceRequiresConfig(t *testing.T) {
	if _, err := NewTrendService(nil, "p", "d", "scan_facts", "pick_list_facts", "UTC"); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestBaseParamsUseUTCAndTimezone(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	svc := &trendService{timezoneName: "Asia/Kolkata"}
	params := svc.baseParams(types.TrendQueryRequest{
		Branch: " BLR-01 ",
		Start:  time.Date(2025, 1, 1, 0, 0, 0, 0, loc),
		End:    time.Date(2025, 1, 2, 0, 0, 0, 0, loc),
	})
	byName := map[string]any{}
	for _, p := range params {
		byName[p.Name] = p.Value
	}
	if byName["branch"] != "BLR-01" {
		t.Fatalf("branch not trimmed: %v", byName["branch"])
	}
	start, ok := byName["start"].(time.Time)
	if !ok || start.Location() != time.UTC {
		t.Fatalf("start not UTC: %v", byName["start"])
	}
	if byName["tz"] != "Asia/Kolkata" {
		t.Fatalf("unexpected tz %v", byName["tz"])
	}
}
