package solar

import (
	"math"
	"time"
)

// SunEvents holds sunrise and sunset for one day as minutes after midnight UTC.
// Both are -1 during polar day and polar night.
type SunEvents struct {
	SunriseMinutes int `json:"sunrise_minutes_utc" msgpack:"sunrise_minutes_utc"`
	SunsetMinutes  int `json:"sunset_minutes_utc" msgpack:"sunset_minutes_utc"`
}

// Polar reports whether the sun stays up, or down, all day
func (e SunEvents) Polar() bool {
	return e.SunriseMinutes < 0 || e.SunsetMinutes < 0
}

// CalculateSunEvents returns sunrise and sunset for the UTC calendar day of
// day at the given location
func CalculateSunEvents(day time.Time, latitude, longitude float64) SunEvents {
	u := day.UTC()
	doy := float64(u.YearDay())

	innerAngle := degToRad(356.6 + 0.9856*doy)
	outerAngle := degToRad(278.97 + 0.9856*doy + 1.9165*math.Sin(innerAngle))
	declination := math.Asin(0.39785 * math.Sin(outerAngle))

	// Hour angle with the sun on the horizon: cos(H) = -tan(lat)·tan(decl)
	cosH := -math.Tan(degToRad(latitude)) * math.Tan(declination)
	if cosH < -1.0 || cosH > 1.0 {
		return SunEvents{SunriseMinutes: -1, SunsetMinutes: -1}
	}

	halfDayMinutes := radToDeg(math.Acos(cosH)) / 15.0 * 60.0

	// Solar noon in UTC minutes, shifted 4 minutes per degree of longitude
	noonRef := time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
	solarNoon := 720.0 - longitude*4.0 - equationOfTime(noonRef)

	return SunEvents{
		SunriseMinutes: int(math.Round(fixAngle(solarNoon-halfDayMinutes, 1440))),
		SunsetMinutes:  int(math.Round(fixAngle(solarNoon+halfDayMinutes, 1440))),
	}
}

// FormatSunTime converts UTC minutes from midnight to a clock time in loc.
// Negative minutes format as an empty string.
func FormatSunTime(utcMinutes int, loc *time.Location) string {
	if utcMinutes < 0 {
		return ""
	}
	t := time.Date(2000, 1, 1, utcMinutes/60, utcMinutes%60, 0, 0, time.UTC)
	return t.In(loc).Format("3:04 PM")
}
