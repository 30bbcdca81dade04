package analytics

import (
	"time"

	"github.com/angelmondragon/stn-picking/pkg/enums"
	"github.com/google/uuid"
)

// RangeInput filters the range-based reports. Dates are YYYY-MM-DD in the
// picking timezone and EndDate is inclusive.
type RangeInput struct {
	Branch    string
	StartDate string
	EndDate   string
	Limit     int
}

// Summary is the day dashboard.
type Summary struct {
	Date      string          `json:"date"`
	PickLists PickListSummary `json:"pickLists"`
	Items     ItemSummary     `json:"items"`
	Scans     ScanSummary     `json:"scans"`
}

type PickListSummary struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"inProgress"`
	Pending    int64 `json:"pending"`
	Cancelled  int64 `json:"cancelled"`
}

type ItemSummary struct {
	Total    int64 `json:"total"`
	Picked   int64 `json:"picked"`
	Pending  int64 `json:"pending"`
	Progress int   `json:"progress"`
	Errors   int64 `json:"errors"`
}

type ScanSummary struct {
	Success           int64 `json:"success"`
	Errors            int64 `json:"errors"`
	Total             int64 `json:"total"`
	ErrorRate         int   `json:"errorRate"`
	AvgResponseTimeMS int64 `json:"avgResponseTimeMs"`
}

// BranchStats is one row of the branch-wise report.
type BranchStats struct {
	Branch             string `json:"branch"`
	TotalPickLists     int64  `json:"totalPickLists"`
	CompletedPickLists int64  `json:"completedPickLists"`
	TotalItems         int64  `json:"totalItems"`
	PickedItems        int64  `json:"pickedItems"`
	ErrorCount         int64  `json:"errorCount"`
}

// ProductStats is one row of the product-wise report.
type ProductStats struct {
	ProductCode       string  `json:"productCode"`
	ProductName       string  `json:"productName"`
	Category          *string `json:"category,omitempty"`
	RackID            *string `json:"rackId,omitempty"`
	TotalScans        int64   `json:"totalScans"`
	AvgResponseTimeMS int64   `json:"avgResponseTimeMs"`
}

// DailyStats is one day of the daily summary.
type DailyStats struct {
	Date           string `json:"date"`
	TotalPickLists int64  `json:"totalPickLists"`
	TotalItems     int64  `json:"totalItems"`
	PickedItems    int64  `json:"pickedItems"`
	ErrorCount     int64  `json:"errorCount"`
}

// ResultCount is one row of the error analysis.
type ResultCount struct {
	ScanResult enums.ScanResult `json:"scanResult"`
	Count      int64            `json:"count"`
}

// RecentScan is a scan log row enriched with catalog fields.
type RecentScan struct {
	ID             uuid.UUID        `json:"id"`
	PickListID     *uuid.UUID       `json:"pickListId,omitempty"`
	PickListCode   *string          `json:"pickListCode,omitempty"`
	ScannedCode    string           `json:"scannedCode"`
	ExpectedCode   *string          `json:"expectedCode,omitempty"`
	ProductCode    *string          `json:"productCode,omitempty"`
	IsMatch        bool             `json:"isMatch"`
	ScanResult     enums.ScanResult `json:"scanResult"`
	Operator       *string          `json:"operator,omitempty"`
	Branch         *string          `json:"branch,omitempty"`
	DeviceType     enums.DeviceType `json:"deviceType"`
	ResponseTimeMS *int             `json:"responseTimeMs,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	ProductName    string           `json:"productName"`
	Brand          *string          `json:"brand,omitempty"`
	Category       *string          `json:"category,omitempty"`
}

// CategoryStats is one row of the category distribution.
type CategoryStats struct {
	Category     string `json:"category"`
	ProductCount int64  `json:"productCount"`
	BrandCount   int64  `json:"brandCount"`
	ScanCount    int64  `json:"scanCount"`
}

// BrandStats is one row of the brand report.
type BrandStats struct {
	Brand         string   `json:"brand"`
	ProductCount  int64    `json:"productCount"`
	CategoryCount int64    `json:"categoryCount"`
	AvgMRP        *float64 `json:"avgMrp,omitempty"`
}
