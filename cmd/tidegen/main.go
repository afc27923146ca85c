package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cwchen/tidecal/pkg/cwa"
	"github.com/cwchen/tidecal/pkg/feed"
	"github.com/cwchen/tidecal/pkg/stations"
	"github.com/cwchen/tidecal/pkg/tides"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		listStations = flag.Bool("list-stations", false, "list all known stations and exit")
		station      = flag.String("station", "", "tide station name, e.g. 基隆市中正區")
		days         = flag.Int("days", tides.DefaultDays, "number of forecast days (1-30)")
		output       = flag.String("o", "./output/tide.ics", "output file path")
		withSun      = flag.Bool("sun", false, "include sunrise/sunset events")
		apiKey       = flag.String("api-key", os.Getenv("CWA_API_KEY"), "CWA API key (or set CWA_API_KEY)")
	)
	flag.Parse()

	if *listStations {
		for _, s := range stations.All() {
			fmt.Printf("%s\t%s\n", s.ID, s.Name)
		}
		return 0
	}

	if *station == "" {
		fmt.Fprintln(os.Stderr, "missing -station; use -list-stations to see the choices")
		return 1
	}
	st, ok := stations.ByName(*station)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown station: %s\n", *station)
		return 1
	}
	if err := tides.ValidateDays(*days); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing API key; pass -api-key or set CWA_API_KEY")
		return 1
	}

	client := cwa.New(cwa.Options{APIKey: *apiKey})
	body, err := feed.Generate(context.Background(), client, st, *days, *withSun, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "generating feed: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating output directory: %v\n", err)
		return 1
	}
	if err := os.WriteFile(*output, body, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "writing %s: %v\n", *output, err)
		return 1
	}

	fmt.Printf("wrote %d bytes to %s\n", len(body), *output)
	return 0
}
