package cwa

// ForecastResponse is the raw payload returned by the CWA open data
// platform for dataset F-A0021-001 (one month of predicted tide extrema
// per coastal location). It is traversed read-only.
type ForecastResponse struct {
	Success string  `json:"success"`
	Records Records `json:"records"`
}

type Records struct {
	TideForecasts []TideForecast `json:"TideForecasts"`
}

type TideForecast struct {
	Location Location `json:"Location"`
}

type Location struct {
	LocationName string      `json:"LocationName"`
	LocationID   string      `json:"LocationId"`
	TimePeriods  TimePeriods `json:"TimePeriods"`
}

type TimePeriods struct {
	Daily []Daily `json:"Daily"`
}

// Daily groups the tide events of one calendar day.
type Daily struct {
	Date      string     `json:"Date"`
	LunarDate string     `json:"LunarDate"`
	Time      []TideTime `json:"Time"`
}

// TideTime is a single predicted tide extremum.
type TideTime struct {
	// Tide is "滿潮" (high) or "乾潮" (low).
	Tide string `json:"Tide"`
	// DateTime is RFC 3339 with a +08:00 offset.
	DateTime    string      `json:"DateTime"`
	TideHeights TideHeights `json:"TideHeights"`
}

// TideHeights reports the predicted height in centimeters against up to
// three vertical reference datums. Any of them may be absent.
type TideHeights struct {
	AboveTWVD       *int `json:"AboveTWVD,omitempty"`
	AboveLocalMSL   *int `json:"AboveLocalMSL,omitempty"`
	AboveChartDatum *int `json:"AboveChartDatum,omitempty"`
}
