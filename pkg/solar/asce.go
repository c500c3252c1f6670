package solar

import (
	"math"
	"time"
)

// ASCE computes clear-sky shortwave radiation in W/m² with the ASCE
// standardized reference model, which accounts for air pressure at the site
// altitude and precipitable water from temperature and humidity.
//
// Solar noon is placed using the standard meridian of t's time zone, so t
// should carry the site's local zone.
func ASCE(t time.Time, site Site) float64 {
	const Kt = 1.0 // clearness index

	dayOfYear := float64(t.UTC().YearDay())
	timeOfDay := float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
	airTemp := (site.AirTempF - 32) * 5 / 9

	// Standard meridian of the local zone, positive west
	_, offset := t.Zone()
	lonTZ := -15.0 * math.Round(float64(offset)/3600.0)
	lon := -site.Longitude

	dr := 1 + 0.033*math.Cos(((2*math.Pi)/365)*dayOfYear)

	delta := radToDeg(math.Asin(0.39785 * math.Sin(degToRad(278.97+0.9856*dayOfYear+1.9165*math.Sin(degToRad(356.6+0.9856*dayOfYear))))))

	eqt := equationOfTime(t) / 60
	solarNoon := 12.0 - eqt - (lonTZ-lon)/15.0

	latRad := degToRad(site.Latitude)
	zenith := radToDeg(math.Acos(math.Sin(latRad)*math.Sin(degToRad(delta)) +
		math.Cos(latRad)*math.Cos(degToRad(delta))*math.Cos((timeOfDay-solarNoon)*(math.Pi/12))))

	// Extraterrestrial radiation on a horizontal surface
	swa := solarConstant * dr * math.Cos(degToRad(zenith))
	if swa < 0 {
		return 0
	}

	// Air pressure (kPa) and vapor pressure (kPa)
	pb := 101.325 * math.Exp((site.Altitude*-1*9.80665)/((8.314472/0.028967)*(airTemp+273.15)))
	ea := 0.61121 * math.Exp(((18.678-airTemp/234.5)*airTemp)/(257.14+airTemp)) * (site.Humidity / 100)

	// Precipitable water (mm)
	w := 0.15*ea*pb + 0.6

	sinElev := math.Sin(degToRad(90 - zenith))
	kb := 0.98 * math.Exp((-0.00146*pb)/(Kt*sinElev)-0.075*math.Pow(w/sinElev, 0.4))

	var kd float64
	if kb > 0.15 {
		kd = 0.35 - 0.36*kb
	} else {
		kd = 0.18 + 0.82*kb
	}

	return (kb + kd) * swa
}
