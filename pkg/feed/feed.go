// Package feed renders tide events as a subscribable iCalendar feed.
package feed

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/cwchen/tidecal/pkg/cwa"
	"github.com/cwchen/tidecal/pkg/stations"
	"github.com/cwchen/tidecal/pkg/sunset"
	"github.com/cwchen/tidecal/pkg/tides"
)

// Taipei is the zone all feeds are produced in. A fixed offset avoids a
// dependency on the host tzdata; Taiwan does not observe DST.
var Taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// eventDuration is the fixed span of a calendar entry. Tide extrema are
// instants; the span just makes them visible in day views.
const eventDuration = 30 * time.Minute

// Options carries optional extras for a built calendar.
type Options struct {
	// SunEvents, when non-empty, adds sunrise/sunset entries to the feed.
	SunEvents sunset.SunEvents
}

// Build renders one calendar entry per tide event, in the order given.
func Build(st stations.Station, events []tides.TideEvent, opts Options) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(fmt.Sprintf("-//tidecal//%s//TW", st.Name))
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName("🌊 " + st.Name + "潮汐")
	cal.SetXWRTimezone("Asia/Taipei")

	now := time.Now()
	short := stations.ShortName(st.Name)
	for _, ev := range events {
		uid := fmt.Sprintf("%s-%s-%s@tide.tw",
			ev.Time.In(Taipei).Format("200601021504"), ev.Type, st.Name)
		e := cal.AddEvent(uid)
		e.SetDtStampTime(now)
		e.SetStartAt(ev.Time)
		e.SetEndAt(ev.Time.Add(eventDuration))
		e.SetSummary(tides.Title(short, ev))
		e.SetDescription(description(st.Name, ev))
	}

	for _, se := range opts.SunEvents {
		cal.AddVEvent(sunEvent(st, se, now))
	}

	return cal
}

func description(stationName string, ev tides.TideEvent) string {
	desc := fmt.Sprintf("站點: %s\\n類型: %s\\n潮位: %d cm (%s)",
		stationName, ev.Type, ev.Height, ev.Basis.Label())
	if ev.LunarDate != "" {
		desc += "\\n農曆: " + ev.LunarDate
	}
	return desc
}

func sunEvent(st stations.Station, se sunset.SunEvent, now time.Time) *ics.VEvent {
	kind, summary := "sunset", "🌇 日落"
	if se.Event == sunset.Sunrise {
		kind, summary = "sunrise", "🌅 日出"
	}
	uid := fmt.Sprintf("%s-%s-%s@sun.tide.tw",
		se.Time.In(Taipei).Format("200601021504"), kind, st.Name)
	e := ics.NewEvent(uid)
	e.SetDtStampTime(now)
	e.SetStartAt(se.Time)
	e.SetEndAt(se.Time.Add(time.Minute))
	e.SetSummary(summary)
	e.SetDescription("站點: " + st.Name)
	return e
}

// Generate runs the full fetch, transform, serialize pipeline for one
// station. It is the single code path behind both the HTTP feed route and
// the CLI. now anchors the forecast window so callers can pin it in tests.
func Generate(ctx context.Context, client *cwa.Client, st stations.Station, days int, withSun bool, now time.Time) ([]byte, error) {
	if err := tides.ValidateDays(days); err != nil {
		return nil, err
	}

	resp, err := client.FetchForecast(ctx, st.ID)
	if err != nil {
		return nil, err
	}

	window := tides.WindowForDays(now.In(Taipei), days)
	events, err := tides.Transform(resp, st.ID, window)
	if err != nil {
		return nil, err
	}

	var opts Options
	if withSun {
		place := sunset.Place{Lat: st.Latitude, Long: st.Longitude, Location: Taipei}
		opts.SunEvents = sunset.GetSunEvents(window.Start, window.End.Sub(window.Start), place)
	}

	return []byte(Build(st, events, opts).Serialize()), nil
}
