package tides

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cwchen/tidecal/pkg/cwa"
)

var taipei = time.FixedZone("Asia/Taipei", 8*60*60)

func intp(v int) *int { return &v }

func forecast(locID string, daily ...cwa.Daily) *cwa.ForecastResponse {
	return &cwa.ForecastResponse{
		Success: "true",
		Records: cwa.Records{
			TideForecasts: []cwa.TideForecast{{
				Location: cwa.Location{
					LocationName: "somewhere",
					LocationID:   locID,
					TimePeriods:  cwa.TimePeriods{Daily: daily},
				},
			}},
		},
	}
}

func at(t time.Time) string {
	return t.Format(time.RFC3339)
}

func TestTransform(t *testing.T) {
	base := time.Date(2026, time.March, 1, 5, 1, 0, 0, taipei)
	window := Window{Start: base.Add(-time.Hour), End: base.AddDate(0, 0, 30)}

	table := []struct {
		name string
		resp *cwa.ForecastResponse
		want []TideEvent
	}{{
		name: "flattens dailies in upstream order",
		resp: forecast("10017001",
			cwa.Daily{
				Date:      "2026-03-01",
				LunarDate: "一月十三",
				Time: []cwa.TideTime{{
					Tide:        "滿潮",
					DateTime:    at(base),
					TideHeights: cwa.TideHeights{AboveTWVD: intp(93)},
				}, {
					Tide:        "乾潮",
					DateTime:    at(base.Add(6 * time.Hour)),
					TideHeights: cwa.TideHeights{AboveTWVD: intp(-41)},
				}},
			},
			cwa.Daily{
				Date:      "2026-03-02",
				LunarDate: "一月十四",
				Time: []cwa.TideTime{{
					Tide:        "滿潮",
					DateTime:    at(base.Add(25 * time.Hour)),
					TideHeights: cwa.TideHeights{AboveTWVD: intp(88)},
				}},
			},
		),
		want: []TideEvent{
			{Time: base, Type: High, Height: 93, Basis: BasisTWVD, LunarDate: "一月十三"},
			{Time: base.Add(6 * time.Hour), Type: Low, Height: -41, Basis: BasisTWVD, LunarDate: "一月十三"},
			{Time: base.Add(25 * time.Hour), Type: High, Height: 88, Basis: BasisTWVD, LunarDate: "一月十四"},
		},
	}, {
		name: "local MSL wins over TWVD",
		resp: forecast("10017001", cwa.Daily{
			Time: []cwa.TideTime{{
				Tide:     "滿潮",
				DateTime: at(base),
				TideHeights: cwa.TideHeights{
					AboveLocalMSL: intp(90),
					AboveTWVD:     intp(93),
				},
			}},
		}),
		want: []TideEvent{
			{Time: base, Type: High, Height: 90, Basis: BasisLocalMSL},
		},
	}, {
		name: "chart datum is the last resort",
		resp: forecast("10017001", cwa.Daily{
			Time: []cwa.TideTime{{
				Tide:        "乾潮",
				DateTime:    at(base),
				TideHeights: cwa.TideHeights{AboveChartDatum: intp(12)},
			}},
		}),
		want: []TideEvent{
			{Time: base, Type: Low, Height: 12, Basis: BasisChartDatum},
		},
	}, {
		name: "events outside the window are dropped",
		resp: forecast("10017001", cwa.Daily{
			Time: []cwa.TideTime{{
				Tide:        "滿潮",
				DateTime:    at(base.AddDate(0, 0, -2)),
				TideHeights: cwa.TideHeights{AboveTWVD: intp(80)},
			}, {
				Tide:        "乾潮",
				DateTime:    at(base),
				TideHeights: cwa.TideHeights{AboveTWVD: intp(-3)},
			}, {
				Tide:        "滿潮",
				DateTime:    at(base.AddDate(0, 0, 40)),
				TideHeights: cwa.TideHeights{AboveTWVD: intp(85)},
			}},
		}),
		want: []TideEvent{
			{Time: base, Type: Low, Height: -3, Basis: BasisTWVD},
		},
	}}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transform(tc.resp, "10017001", window)
			if err != nil {
				t.Fatalf("unexpected: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("events mismatch (-want,+got):\n%s", diff)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Time.Before(got[i-1].Time) {
					t.Errorf("event %d at %s is before event %d at %s",
						i, got[i].Time, i-1, got[i-1].Time)
				}
			}
		})
	}
}

func TestTransformUnknownLocation(t *testing.T) {
	resp := forecast("10017001")

	_, err := Transform(resp, "99999999", Window{})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("got %v, wanted a NotFoundError", err)
	}
	if notFound.Station != "99999999" {
		t.Errorf("got station %q, wanted %q", notFound.Station, "99999999")
	}
}

func TestTransformMalformed(t *testing.T) {
	base := time.Date(2026, time.March, 1, 5, 1, 0, 0, taipei)
	window := Window{Start: base.Add(-time.Hour), End: base.AddDate(0, 0, 30)}

	table := []struct {
		name string
		tt   cwa.TideTime
	}{{
		name: "no height on any datum",
		tt: cwa.TideTime{
			Tide:     "滿潮",
			DateTime: at(base),
		},
	}, {
		name: "unparseable event time",
		tt: cwa.TideTime{
			Tide:        "滿潮",
			DateTime:    "2026-03-01 05:01",
			TideHeights: cwa.TideHeights{AboveTWVD: intp(1)},
		},
	}, {
		name: "unknown tide type",
		tt: cwa.TideTime{
			Tide:        "大潮",
			DateTime:    at(base),
			TideHeights: cwa.TideHeights{AboveTWVD: intp(1)},
		},
	}}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			resp := forecast("10017001", cwa.Daily{Time: []cwa.TideTime{tc.tt}})
			_, err := Transform(resp, "10017001", window)
			var malformed *MalformedDataError
			if !errors.As(err, &malformed) {
				t.Errorf("got %v, wanted a MalformedDataError", err)
			}
		})
	}
}

func TestValidateDays(t *testing.T) {
	table := []struct {
		days    int
		wantErr bool
	}{
		{days: -5, wantErr: true},
		{days: 0, wantErr: true},
		{days: 1},
		{days: 7},
		{days: 30},
		{days: 31, wantErr: true},
	}

	for _, tc := range table {
		err := ValidateDays(tc.days)
		if tc.wantErr {
			var invalid *InvalidDaysError
			if !errors.As(err, &invalid) {
				t.Errorf("ValidateDays(%d) = %v, wanted an InvalidDaysError", tc.days, err)
			} else if invalid.Days != tc.days {
				t.Errorf("InvalidDaysError.Days = %d, wanted %d", invalid.Days, tc.days)
			}
		} else if err != nil {
			t.Errorf("ValidateDays(%d) = %v, wanted nil", tc.days, err)
		}
	}
}

func TestTitle(t *testing.T) {
	base := time.Date(2026, time.March, 1, 5, 1, 0, 0, taipei)

	table := []struct {
		name  string
		short string
		ev    TideEvent
		want  string
	}{{
		name:  "high tide",
		short: "基隆中正",
		ev:    TideEvent{Time: base, Type: High, Height: 93},
		want:  "基隆中正 🔺滿潮 93cm",
	}, {
		name:  "low tide with negative height",
		short: "高雄旗津",
		ev:    TideEvent{Time: base, Type: Low, Height: -12},
		want:  "高雄旗津 🔻乾潮 -12cm",
	}}

	for _, tc := range table {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title(tc.short, tc.ev); got != tc.want {
				t.Errorf("got %q, wanted %q", got, tc.want)
			}
		})
	}
}
