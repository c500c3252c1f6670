package solar

import (
	"math"
	"time"
)

// Zenith returns the solar zenith angle in degrees at time t for the given
// location. It uses low-precision ecliptic coordinates, which are good to
// about 0.01° between 1950 and 2050. Angles below the horizon are reported as
// 90, so every model sees the sun either up or exactly on the horizon.
func Zenith(t time.Time, latitude, longitude float64) float64 {
	n := daysSinceJ2000(t)

	u := t.UTC()
	utHours := float64(u.Hour()) + float64(u.Minute())/60 + (float64(u.Second())+float64(u.Nanosecond())/1e9)/3600

	meanLong := fixAngle(280.46+0.9856474*n, 360)
	meanAnom := degToRad(fixAngle(357.528+0.9856003*n, 360))

	eclipticLong := degToRad(fixAngle(meanLong+1.915*math.Sin(meanAnom)+0.02*math.Sin(2*meanAnom), 360))
	obliquity := degToRad(23.439 - 0.0000004*n)

	declination := math.Asin(math.Sin(obliquity) * math.Sin(eclipticLong))
	rightAscension := fixAngle(radToDeg(math.Atan2(math.Cos(obliquity)*math.Sin(eclipticLong), math.Cos(eclipticLong))), 360)

	// Greenwich and local mean sidereal time
	gmst := fixAngle(6.697375+0.0657098242*n+utHours, 24)
	lmst := fixAngle(gmst*15+longitude, 360)

	hourAngle := lmst - rightAscension
	switch {
	case hourAngle < -180:
		hourAngle += 360
	case hourAngle > 180:
		hourAngle -= 360
	}

	latRad := degToRad(latitude)
	cosZ := math.Sin(declination)*math.Sin(latRad) +
		math.Cos(declination)*math.Cos(latRad)*math.Cos(degToRad(hourAngle))
	cosZ = math.Max(-1, math.Min(1, cosZ))

	return math.Min(radToDeg(math.Acos(cosZ)), 90)
}

// ExtraterrestrialRadiation returns the irradiance at the top of the
// atmosphere in W/m² for a day of the year, scaled for the Earth-Sun distance
// with Spencer's series.
func ExtraterrestrialRadiation(dayOfYear int) float64 {
	dayAngle := degToRad(360.0 * float64(dayOfYear-1) / 365.0)

	erv := 1.00011 +
		0.034221*math.Cos(dayAngle) + 0.00128*math.Sin(dayAngle) +
		0.000719*math.Cos(2*dayAngle) + 0.000077*math.Sin(2*dayAngle)

	return 1366.1 * erv
}
