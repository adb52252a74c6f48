// Package solar estimates the clear-sky solar radiation a station could
// receive, used for the gauges' CurrentSolarMax.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Constants
const (
	solarConstant  = 1361.0 // W/m² at the top of the atmosphere
	linkeTurbidity = 2.0
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// equationOfTime returns the difference between apparent and mean solar
// time in minutes.
func equationOfTime(jd float64) float64 {
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4
}

// ZenithAngle returns the solar zenith angle in degrees at t for the given
// location.
func ZenithAngle(t time.Time, latitude, longitude float64) float64 {
	t = t.UTC()
	n := t.YearDay()

	// Declination, approximated with a sinusoid peaking at the solstices.
	delta := 23.45 * math.Sin(degToRad(360.0/365.0*float64(n-81)))

	utcMin := float64(t.Hour()*60+t.Minute()) + float64(t.Second())/60.0
	tst := utcMin + 4*longitude + equationOfTime(julian.TimeToJD(t))
	h := tst/4 - 180

	latRad := degToRad(latitude)
	deltaRad := degToRad(delta)
	cosZ := math.Sin(latRad)*math.Sin(deltaRad) + math.Cos(latRad)*math.Cos(deltaRad)*math.Cos(degToRad(h))
	return radToDeg(math.Acos(math.Max(-1, math.Min(1, cosZ))))
}

// MaxRadiation returns the clear-sky global horizontal irradiance in W/m²
// using the Ineichen-Perez model. Altitude is in meters. The result is zero
// when the sun is below the horizon.
func MaxRadiation(t time.Time, latitude, longitude, altitude float64) float64 {
	thetaZ := ZenithAngle(t, latitude, longitude)
	if thetaZ >= 90.0 {
		return 0
	}

	n := float64(t.UTC().YearDay())
	g0 := solarConstant * (1 + 0.033*math.Cos(degToRad(360.0*(n-3)/365.0)))

	// Kasten-Young air mass
	am := 1.0 / (math.Cos(degToRad(thetaZ)) + 0.50572*math.Pow(96.07995-thetaZ, -1.6364))
	dni := g0 * 0.7 * math.Exp(-0.027*am*linkeTurbidity*math.Exp(-altitude/8000.0))

	fh := 0.1 + 0.05*math.Sin(math.Pi*(n-100)/365.0)
	dhi := fh * g0 * math.Sin(degToRad(thetaZ))
	return dni*math.Cos(degToRad(thetaZ)) + dhi
}
