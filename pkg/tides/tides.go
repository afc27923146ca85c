// Package tides normalizes raw CWA forecast payloads into a flat,
// chronologically ordered list of tide events.
package tides

import (
	"fmt"
	"time"

	"github.com/cwchen/tidecal/pkg/cwa"
)

const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 30
)

// TideType is the kind of tide extremum, using the upstream vocabulary.
type TideType string

const (
	High TideType = "滿潮"
	Low  TideType = "乾潮"
)

func (t TideType) Valid() bool {
	return t == High || t == Low
}

// Glyph returns the directional marker used in event titles.
func (t TideType) Glyph() string {
	if t == High {
		return "🔺"
	}
	return "🔻"
}

// HeightBasis identifies the vertical reference datum a height value was
// reported against. The fallback order of the constants is a product
// decision, not a physical rule.
type HeightBasis int

const (
	BasisLocalMSL HeightBasis = iota
	BasisTWVD
	BasisChartDatum
)

func (b HeightBasis) Label() string {
	switch b {
	case BasisLocalMSL:
		return "當地平均海平面"
	case BasisTWVD:
		return "臺灣高程基準"
	case BasisChartDatum:
		return "海圖基準面"
	default:
		return "未知基準"
	}
}

// TideEvent is one normalized tide extremum. Events are derived per
// request and never persisted.
type TideEvent struct {
	Time      time.Time
	Type      TideType
	Height    int // centimeters, may be negative
	Basis     HeightBasis
	LunarDate string
}

// Window is the half-open span of time a feed covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowForDays builds the forecast window starting at now.
func WindowForDays(now time.Time, days int) Window {
	return Window{Start: now, End: now.AddDate(0, 0, days)}
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ValidateDays checks a requested day count against the allowed range.
func ValidateDays(days int) error {
	if days < MinDays || days > MaxDays {
		return &InvalidDaysError{Days: days}
	}
	return nil
}

// Transform flattens the forecast block for locationID into TideEvents
// within the window. The output preserves the upstream ordering, which is
// chronological, so timestamps are non-decreasing.
func Transform(resp *cwa.ForecastResponse, locationID string, w Window) ([]TideEvent, error) {
	loc, err := findLocation(resp, locationID)
	if err != nil {
		return nil, err
	}

	var events []TideEvent
	for _, daily := range loc.TimePeriods.Daily {
		for _, tt := range daily.Time {
			ev, err := normalize(tt, daily.LunarDate)
			if err != nil {
				return nil, err
			}
			if !w.contains(ev.Time) {
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func findLocation(resp *cwa.ForecastResponse, locationID string) (*cwa.Location, error) {
	for i := range resp.Records.TideForecasts {
		loc := &resp.Records.TideForecasts[i].Location
		if loc.LocationID == locationID {
			return loc, nil
		}
	}
	return nil, &NotFoundError{Station: locationID}
}

func normalize(tt cwa.TideTime, lunarDate string) (TideEvent, error) {
	tideType := TideType(tt.Tide)
	if !tideType.Valid() {
		return TideEvent{}, &MalformedDataError{Message: fmt.Sprintf("unknown tide type %q", tt.Tide)}
	}

	ts, err := time.Parse(time.RFC3339, tt.DateTime)
	if err != nil {
		return TideEvent{}, &MalformedDataError{Message: fmt.Sprintf("bad event time %q", tt.DateTime), Err: err}
	}

	height, basis, ok := pickHeight(tt.TideHeights)
	if !ok {
		return TideEvent{}, &MalformedDataError{Message: fmt.Sprintf("no height value for event at %s", tt.DateTime)}
	}

	return TideEvent{
		Time:      ts,
		Type:      tideType,
		Height:    height,
		Basis:     basis,
		LunarDate: lunarDate,
	}, nil
}

// pickHeight selects the height value by the basis fallback order: local
// mean sea level, then TWVD 2001, then chart datum. First present wins.
func pickHeight(h cwa.TideHeights) (int, HeightBasis, bool) {
	switch {
	case h.AboveLocalMSL != nil:
		return *h.AboveLocalMSL, BasisLocalMSL, true
	case h.AboveTWVD != nil:
		return *h.AboveTWVD, BasisTWVD, true
	case h.AboveChartDatum != nil:
		return *h.AboveChartDatum, BasisChartDatum, true
	default:
		return 0, 0, false
	}
}

// Title builds the calendar summary line for an event, e.g.
// "基隆中正 🔺滿潮 93cm". shortName should already have administrative
// suffixes stripped.
func Title(shortName string, ev TideEvent) string {
	return fmt.Sprintf("%s %s%s %dcm", shortName, ev.Type.Glyph(), ev.Type, ev.Height)
}
