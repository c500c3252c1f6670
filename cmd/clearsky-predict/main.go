package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chrissnell/clearsky/internal/constants"
	"github.com/chrissnell/clearsky/pkg/solar"
)

func main() {
	var (
		modelName string
		dateStr   string
		tz        string
		interval  time.Duration
		list      bool
	)
	site := solar.DefaultSite(0, 0, 0)

	flag.StringVar(&modelName, "model", constants.DefaultModel, "Clear-sky model ("+strings.Join(solar.Models(), ", ")+")")
	flag.StringVar(&dateStr, "date", "", "Day to predict (YYYY-MM-DD, default today)")
	flag.StringVar(&tz, "tz", "UTC", "Time zone of the day, e.g. America/Denver")
	flag.DurationVar(&interval, "interval", time.Minute, "Spacing between predictions")
	flag.Float64Var(&site.Latitude, "lat", 0, "Latitude in degrees, north positive")
	flag.Float64Var(&site.Longitude, "lon", 0, "Longitude in degrees, east positive")
	flag.Float64Var(&site.Altitude, "alt", 0, "Altitude in meters")
	flag.Float64Var(&site.Turbidity, "turbidity", site.Turbidity, "Linke turbidity (ineichen-perez) or nfac (bras)")
	flag.Float64Var(&site.AirTempF, "temp", site.AirTempF, "Air temperature in °F (asce)")
	flag.Float64Var(&site.Humidity, "humidity", site.Humidity, "Relative humidity in percent (asce)")
	flag.BoolVar(&list, "list", false, "List the models and exit")
	flag.Parse()

	if list {
		for _, m := range solar.Models() {
			fmt.Println(m)
		}
		return
	}

	model, err := solar.Lookup(modelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading time zone: %v\n", err)
		os.Exit(1)
	}

	day := time.Now().In(loc)
	if dateStr != "" {
		day, err = time.ParseInLocation(time.DateOnly, dateStr, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			os.Exit(1)
		}
	}

	times := solar.DayTimes(day, interval)
	if len(times) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -interval must be positive")
		os.Exit(1)
	}
	ghi := solar.PredictSeries(model, times, site)

	events := solar.CalculateSunEvents(times[0], site.Latitude, site.Longitude)
	fmt.Fprintf(os.Stderr, "Clear-sky %s for %s at %.4f, %.4f\n", modelName, times[0].Format(time.DateOnly), site.Latitude, site.Longitude)
	if events.Polar() {
		fmt.Fprintf(os.Stderr, "  Sunrise/Sunset: none (polar day or night)\n")
	} else {
		fmt.Fprintf(os.Stderr, "  Sunrise:        %s\n", solar.FormatSunTime(events.SunriseMinutes, loc))
		fmt.Fprintf(os.Stderr, "  Sunset:         %s\n", solar.FormatSunTime(events.SunsetMinutes, loc))
	}

	fmt.Println("time,ghi")
	for i, t := range times {
		fmt.Printf("%s,%.2f\n", t.Format(time.RFC3339), ghi[i])
	}
}
