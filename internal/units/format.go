package units

import (
	"fmt"
	"math"
	"time"

	"github.com/ncruces/go-strftime"
)

// CompassPoints are the 16 ordinal compass points, with north repeated at
// the end so that 348.75-360 rounds onto it.
var CompassPoints = []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW", "N"}

// FormatValue renders v with a printf-style format such as "%.1f".
func FormatValue(format string, v float64) string {
	return fmt.Sprintf(format, v)
}

// FormatTime renders t with a strftime-style format such as "%H:%M".
func FormatTime(format string, t time.Time) string {
	return strftime.Format(format, t)
}

// DegreeToCompass converts a bearing to an ordinal compass point.
func DegreeToCompass(deg float64) string {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return CompassPoints[int((d+11.25)/22.5)]
}

// gauge unit labels, as expected by the SteelSeries gauges
var (
	tempLabels  = map[Unit]string{DegreeC: "C", DegreeF: "F"}
	windLabels  = map[Unit]string{MilePerHr: "mph", MeterPerS: "m/s", KmPerHour: "km/h", Knot: "kts"}
	pressLabels = map[Unit]string{InHg: "in", MBar: "mb", HPa: "hPa"}
	rainLabels  = map[Unit]string{Inch: "in", Mm: "mm"}
	cloudLabels = map[Unit]string{Foot: "ft", Meter: "m"}
)

// GaugeLabel returns the label the gauges use for the display unit of a
// group, or false if the gauges cannot show that unit.
func GaugeLabel(g Group, u Unit) (string, bool) {
	var m map[Unit]string
	switch g {
	case GroupTemperature:
		m = tempLabels
	case GroupSpeed:
		m = windLabels
	case GroupPressure:
		m = pressLabels
	case GroupRain:
		m = rainLabels
	case GroupAltitude:
		m = cloudLabels
	default:
		return "", false
	}
	l, ok := m[u]
	return l, ok
}
