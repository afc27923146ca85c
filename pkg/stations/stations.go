// Package stations holds the static tide station reference table. It maps
// the CWA location names to their LocationId codes and coordinates. The
// table is immutable and loaded once at startup.
package stations

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed stations.json
var rawTable []byte

// Station is one entry of the reference table.
type Station struct {
	ID        string  `json:"LocationId"`
	Name      string  `json:"LocationName"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

var (
	all    []Station
	byName map[string]Station
)

func init() {
	if err := json.Unmarshal(rawTable, &all); err != nil {
		panic("stations: bad embedded table: " + err.Error())
	}
	byName = make(map[string]Station, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
}

// All returns the station table in its original order. Callers must not
// mutate the returned slice.
func All() []Station {
	return all
}

// ByName looks up a station by its full location name, e.g. "基隆市中正區".
func ByName(name string) (Station, bool) {
	s, ok := byName[name]
	return s, ok
}

// shortener drops administrative division characters (county, city,
// district, township) to keep calendar titles compact. Dropping characters
// is idempotent, so shortening an already short name is a no-op.
var shortener = strings.NewReplacer("市", "", "縣", "", "區", "", "鄉", "", "鎮", "")

// ShortName returns name with administrative suffix characters removed.
func ShortName(name string) string {
	return shortener.Replace(name)
}
