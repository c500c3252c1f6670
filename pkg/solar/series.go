package solar

import "time"

// DayTimes returns the sample times of the calendar day containing day, in
// day's location, from midnight at the given interval
func DayTimes(day time.Time, interval time.Duration) []time.Time {
	if interval <= 0 {
		return nil
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	times := make([]time.Time, 0, int(end.Sub(start)/interval))
	for t := start; t.Before(end); t = t.Add(interval) {
		times = append(times, t)
	}
	return times
}

// PredictSeries evaluates model at each of times
func PredictSeries(model ModelFunc, times []time.Time, site Site) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = model(t, site)
	}
	return out
}
