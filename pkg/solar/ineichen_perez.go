package solar

import (
	"math"
	"time"
)

// IneichenPerez computes clear-sky GHI in W/m² with a simplified Ineichen-Perez
// model. The Linke turbidity comes from site.Turbidity.
func IneichenPerez(t time.Time, site Site) float64 {
	u := t.UTC()
	N := u.YearDay()

	// Solar declination, approximated with a sinusoid peaking at the solstices
	delta := 23.45 * math.Sin(degToRad(360.0/365.0*float64(N-81)))

	// Hour angle from true solar time
	utcMin := float64(u.Hour()*60+u.Minute()) + float64(u.Second())/60.0
	tst := utcMin + 4*site.Longitude + equationOfTime(u)
	H := tst/4 - 180

	latRad := degToRad(site.Latitude)
	deltaRad := degToRad(delta)
	cosThetaZ := math.Sin(latRad)*math.Sin(deltaRad) + math.Cos(latRad)*math.Cos(deltaRad)*math.Cos(degToRad(H))
	thetaZ := radToDeg(math.Acos(cosThetaZ))
	if thetaZ >= 90.0 {
		return 0
	}

	// Extraterrestrial radiation adjusted for Earth-Sun distance
	G0 := solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*(float64(N)-3)/365.0)))

	// Kasten-Young air mass
	AM := 1.0 / (math.Cos(degToRad(thetaZ)) + 0.50572*math.Pow(96.07995-thetaZ, -1.6364))

	const (
		c = 0.7   // DNI normalization
		a = 0.027 // extinction coefficient
	)
	DNI := G0 * c * math.Exp(-a*AM*site.turbidity()*math.Exp(-site.Altitude/8000.0))

	// Diffuse fraction with a seasonal adjustment
	fh := 0.1 + 0.05*math.Sin(math.Pi*float64(N-100)/365.0)
	DHI := fh * G0 * math.Sin(degToRad(thetaZ))

	return DNI*math.Cos(degToRad(thetaZ)) + DHI
}
