package solar

import (
	"math"
	"time"
)

// BrasResult carries the irradiance predicted by the Bras model together with
// the solar geometry computed along the way
type BrasResult struct {
	Irradiance     float64
	EqOfTimeMin    float64
	DeclinationDeg float64
	AzimuthDeg     float64
	ElevationDeg   float64
	CosZenith      float64
	SunEarthDistKm float64
}

// CalculateBras computes clear-sky radiation with the Bras model. The
// atmospheric turbidity factor nfac comes from site.Turbidity and ranges
// from 2 (clear) to 5 (smoggy).
func CalculateBras(t time.Time, site Site) BrasResult {
	const solarConstant = 1367.0
	const auToKm = 149597870.7

	u := t.UTC()
	T := daysSinceJ2000(u) / 36525.0

	L0 := fixAngle(280.46646+T*(36000.76983+T*0.0003032), 360)
	M := fixAngle(357.52911+T*(35999.05029-T*0.0001537), 360)
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	omega := 125.04 - 1934.136*T
	lambda := L0 + C - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	decl := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	eqTimeMin := equationOfTime(u)

	utcMin := float64(u.Hour()*60+u.Minute()) + float64(u.Second())/60.0
	ha := (utcMin+4*site.Longitude+eqTimeMin)/4 - 180

	latRad := degToRad(site.Latitude)
	cosZen := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(degToRad(ha))
	zenRad := math.Acos(cosZen)
	elDeg := 90 - radToDeg(zenRad) + 0.5667 // refraction at the horizon

	res := BrasResult{
		EqOfTimeMin:    eqTimeMin,
		DeclinationDeg: radToDeg(decl),
		ElevationDeg:   elDeg,
		CosZenith:      cosZen,
	}
	if elDeg <= 0 || cosZen <= 0 {
		return res
	}

	azDeg := radToDeg(math.Acos((math.Sin(decl) - math.Sin(latRad)*cosZen) / (math.Cos(latRad) * math.Sin(zenRad))))
	if ha > 0 {
		azDeg = 360 - azDeg
	}
	res.AzimuthDeg = azDeg

	// Sun-Earth distance in AU from the orbit's true anomaly
	mRad := degToRad(M)
	e := 0.016708617 - T*(0.000042037+T*0.0000001236)
	E := mRad + e*math.Sin(mRad)*(1+e*math.Cos(mRad))
	v := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(E/2))
	r := (1 - e*e) / (1 + e*math.Cos(v))
	res.SunEarthDistKm = r * auToKm

	io := cosZen * solarConstant / (r * r)
	m := 1.0 / (cosZen + 0.15*math.Pow(elDeg+3.885, -1.253))
	a1 := 0.128 - 0.054*math.Log10(m)
	res.Irradiance = math.Max(0, io*math.Exp(-site.turbidity()*a1*m))

	return res
}

// Bras returns the irradiance predicted by CalculateBras
func Bras(t time.Time, site Site) float64 {
	return CalculateBras(t, site).Irradiance
}
