package types

import "time"

// TrendQueryRequest selects the warehouse window for scan trends.
type TrendQueryRequest struct {
	Branch string
	Start  time.Time
	End    time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a product or resolver strategy.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// TrendQueryResponse carries warehouse scan trends for the dashboard.
type TrendQueryResponse struct {
	ScansSeries        []TimeSeriesPoint `json:"scans"`
	MatchedSeries      []TimeSeriesPoint `json:"matched"`
	ErrorSeries        []TimeSeriesPoint `json:"errors"`
	CompletedPickLists []TimeSeriesPoint `json:"completed_pick_lists"`
	TopProducts        []LabelValue      `json:"top_products"`
	TopStrategies      []LabelValue      `json:"top_strategies"`
	AvgResponseTimeMS  float64           `json:"avg_response_time_ms"`
}
