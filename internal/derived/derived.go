// Package derived fills in observations that stations commonly leave out
// of their packets but the gauges expect.
package derived

import (
	"math"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/pkg/solar"
)

// Station is the location used for clear-sky radiation and cloud base.
// Altitude is in meters.
type Station struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Fill returns p with dewpoint, windchill, heatindex, cloudbase and
// maxSolarRad added when p lacks them and carries their inputs. Values the
// station supplied are never replaced. Derived values are in US units.
func Fill(p types.Packet, st *Station) types.Packet {
	out := types.NewPacket(p.Kind, p.Timestamp)
	for obs, vt := range p.Observations {
		out.Observations[obs] = vt
	}

	tempF, hasTemp := value(p, "outTemp", units.DegreeF)
	rh, hasRH := p.Value("outHumidity")
	windMph, hasWind := value(p, "windSpeed", units.MilePerHr)

	if missing(out, "dewpoint") && hasTemp && hasRH {
		if d, ok := DewpointF(tempF, rh); ok {
			out.Set("dewpoint", units.New(d, units.DegreeF, units.GroupTemperature))
		}
	}
	if missing(out, "windchill") && hasTemp && hasWind {
		out.Set("windchill", units.New(WindChillF(tempF, windMph), units.DegreeF, units.GroupTemperature))
	}
	if missing(out, "heatindex") && hasTemp && hasRH {
		out.Set("heatindex", units.New(HeatIndexF(tempF, rh), units.DegreeF, units.GroupTemperature))
	}

	if st == nil {
		return out
	}
	altFt, _ := units.Convert(st.Altitude, units.Meter, units.Foot)
	if dewF, ok := value(out, "dewpoint", units.DegreeF); ok && missing(out, "cloudbase") && hasTemp {
		out.Set("cloudbase", units.New(CloudbaseFt(tempF, dewF, altFt), units.Foot, units.GroupAltitude))
	}
	if missing(out, "maxSolarRad") {
		r := solar.MaxRadiation(p.Timestamp, st.Latitude, st.Longitude, st.Altitude)
		out.Set("maxSolarRad", units.New(r, units.WattPerM2, units.GroupRadiation))
	}
	return out
}

func missing(p types.Packet, obs string) bool {
	_, ok := p.Value(obs)
	return !ok
}

func value(p types.Packet, obs string, u units.Unit) (float64, bool) {
	vt, ok := p.Get(obs)
	if !ok || vt.IsNone() {
		return 0, false
	}
	v, err := units.Convert(*vt.Value, vt.Unit, u)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DewpointF computes the dew point with the Magnus formula. It is
// undefined for zero humidity.
func DewpointF(tempF, humidity float64) (float64, bool) {
	if humidity <= 0 {
		return 0, false
	}
	const b, c = 17.27, 237.7
	tc, _ := units.Convert(tempF, units.DegreeF, units.DegreeC)
	g := math.Log(humidity/100) + b*tc/(c+tc)
	dc := c * g / (b - g)
	df, _ := units.Convert(dc, units.DegreeC, units.DegreeF)
	return df, true
}

// WindChillF uses the NWS formula. Outside its range (above 50°F or below
// 3 mph) wind chill is the air temperature.
func WindChillF(tempF, windMph float64) float64 {
	if tempF > 50 || windMph < 3 {
		return tempF
	}
	v := math.Pow(windMph, 0.16)
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// HeatIndexF uses Steadman's approximation, switching to the Rothfusz
// regression above 80°F. Below 77°F heat index is the air temperature.
func HeatIndexF(tempF, humidity float64) float64 {
	if tempF < 77 {
		return tempF
	}

	hi := 0.5 * (tempF + 61.0 + ((tempF - 68.0) * 1.2) + (humidity * 0.094))
	if hi < 80 {
		return math.Max(hi, tempF)
	}

	const (
		c1 = -42.379
		c2 = 2.04901523
		c3 = 10.14333127
		c4 = 0.22475541
		c5 = 0.00683783
		c6 = 0.05481717
		c7 = 0.00122874
		c8 = 0.00085282
		c9 = 0.00000199
	)
	t, h := tempF, humidity
	hi = c1 + c2*t + c3*h - c4*t*h - c5*t*t - c6*h*h + c7*t*t*h + c8*t*h*h - c9*t*t*h*h

	switch {
	case h < 13 && t >= 80 && t <= 112:
		hi -= ((13 - h) / 4) * math.Sqrt((17-math.Abs(t-95.0))/17)
	case h > 85 && t >= 80 && t <= 87:
		hi += ((h - 85.0) / 10) * ((87.0 - t) / 5)
	}
	return math.Max(hi, tempF)
}

// CloudbaseFt estimates the cloud base above sea level from the spread
// between temperature and dew point.
func CloudbaseFt(tempF, dewpointF, altitudeFt float64) float64 {
	return (tempF-dewpointF)/4.4*1000 + altitudeFt
}
