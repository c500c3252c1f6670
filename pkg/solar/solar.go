// Package solar predicts clear-sky global horizontal irradiance (GHI) with a
// collection of published clear-sky models. Predictions feed the clear-sky
// detector in pkg/clearsky, which treats them as an opaque series.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// solarConstant is the mean irradiance at the top of the atmosphere in W/m²
	solarConstant = 1361.0

	// j2000 is the Julian day of 2000-01-01 12:00 TT
	j2000 = 2451545.0
)

// Site describes where, and under what conditions, irradiance is predicted.
// Only the ASCE model uses AirTempF and Humidity; Turbidity is used by the
// Ineichen-Perez and Bras models.
type Site struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Altitude  float64 // meters
	AirTempF  float64
	Humidity  float64 // percent
	Turbidity float64 // Linke turbidity for Ineichen-Perez, nfac for Bras
}

// DefaultSite returns a Site at the given location with a temperate
// atmosphere: 59°F, 50% relative humidity and a turbidity of 2.
func DefaultSite(latitude, longitude, altitude float64) Site {
	return Site{
		Latitude:  latitude,
		Longitude: longitude,
		Altitude:  altitude,
		AirTempF:  59,
		Humidity:  50,
		Turbidity: 2,
	}
}

func (s Site) turbidity() float64 {
	if s.Turbidity <= 0 {
		return 2
	}
	return s.Turbidity
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// fixAngle normalizes an angle to [0, period)
func fixAngle(a, period float64) float64 { return a - period*math.Floor(a/period) }

// daysSinceJ2000 returns the (fractional) number of days between t and J2000.0
func daysSinceJ2000(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - j2000
}

// equationOfTime returns the difference between apparent and mean solar time, in minutes
func equationOfTime(t time.Time) float64 {
	T := daysSinceJ2000(t) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646+T*(36000.76983+T*0.0003032), 360)         // Mean longitude of the Sun
	M := fixAngle(357.52911+T*(35999.05029-T*0.0001537), 360)          // Mean anomaly of the Sun
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)                  // Eccentricity of Earth's orbit
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60 // Mean obliquity of the ecliptic

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4 // 4 minutes per degree
}
