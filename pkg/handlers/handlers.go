// Package handlers registers the HTTP surface of the tide calendar
// service: the feed route, the station list, health, and metrics.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cwchen/tidecal/pkg/cache"
	"github.com/cwchen/tidecal/pkg/cwa"
	"github.com/cwchen/tidecal/pkg/feed"
	"github.com/cwchen/tidecal/pkg/metrics"
	"github.com/cwchen/tidecal/pkg/stations"
	"github.com/cwchen/tidecal/pkg/tides"
)

// Deps carries the service dependencies handlers close over.
type Deps struct {
	Client *cwa.Client
	// Cache may be nil, which disables caching and serves every request
	// fresh.
	Cache *cache.Feed
	// APIConfigured is reported by the health endpoint.
	APIConfigured bool
	// Now anchors forecast windows; defaults to time.Now.
	Now func() time.Time
}

func Register(r *mux.Router, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r.Handle("/", makeIndex())
	r.Handle("/tide/{station}.ics", makeServeFeed(deps))
	r.Handle("/api/v1/stations", makeServeStations())
	r.Handle("/health", makeHealth(deps))
	r.Handle("/metrics", promhttp.Handler())
}

func makeIndex() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "tidecal: subscribe at /tide/{站名}.ics, station list at /api/v1/stations\n")
	})
}

func makeServeFeed(deps Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["station"]

		st, ok := stations.ByName(name)
		if !ok {
			writeError(w, fmt.Sprintf("unknown station: %s", name), http.StatusNotFound)
			return
		}

		days, err := parseDays(r.FormValue("days"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		withSun := r.FormValue("sun") == "1"

		key := fmt.Sprintf("%s:%d:%t", st.ID, days, withSun)
		body, cached, err := deps.Cache.Do(key, func() ([]byte, error) {
			b, err := feed.Generate(r.Context(), deps.Client, st, days, withSun, deps.Now())
			if err != nil {
				metrics.ObserveUpstreamRequest("error")
				return nil, err
			}
			metrics.ObserveUpstreamRequest("ok")
			return b, nil
		})
		if err != nil {
			code := statusForError(err)
			log.Error().Err(err).Str("station", st.Name).Int("days", days).Msg("generating feed")
			writeError(w, err.Error(), code)
			return
		}
		metrics.ObserveFeedCache(cached)

		log.Info().Str("station", st.Name).Int("days", days).Bool("cached", cached).Msg("serving feed")

		w.Header().Add("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Add("Content-Disposition",
			"attachment; filename*=UTF-8''"+url.PathEscape(st.Name+"_tide.ics"))
		w.Header().Add("Cache-Control", "public, max-age=3600")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})
}

// parseDays applies the default when the parameter is absent and rejects
// anything outside the allowed range.
func parseDays(raw string) (int, error) {
	if raw == "" {
		return tides.DefaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("day count %q is not a number", raw)
	}
	if err := tides.ValidateDays(days); err != nil {
		return 0, err
	}
	return days, nil
}

func statusForError(err error) int {
	var (
		notFound    *tides.NotFoundError
		malformed   *tides.MalformedDataError
		invalidDays *tides.InvalidDaysError
		fetch       *cwa.FetchError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidDays):
		return http.StatusBadRequest
	case errors.As(err, &malformed), errors.As(err, &fetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type stationEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type stationsResponse struct {
	Stations []stationEntry `json:"stations"`
	Total    int            `json:"total"`
}

func makeServeStations() http.Handler {
	// The table is immutable, so the response is built once.
	all := stations.All()
	resp := stationsResponse{
		Stations: make([]stationEntry, len(all)),
		Total:    len(all),
	}
	for i, s := range all {
		resp.Stations[i] = stationEntry{
			ID:        s.ID,
			Name:      s.Name,
			ShortName: stations.ShortName(s.Name),
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("encoding station list")
		}
	})
}

func makeHealth(deps Deps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "ok",
			"apiConfigured":  deps.APIConfigured,
			"stationsLoaded": len(stations.All()),
		})
	})
}

func writeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
