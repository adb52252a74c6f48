package main

import (
	"math"
	"math/rand"
	"time"
)

// WeatherEmulator generates synthetic weewx-style loop packets in US units.
type WeatherEmulator struct {
	baseTemp     float64
	baseHumidity float64
	basePressure float64
	rng          *rand.Rand
	windDir      float64
	rainTotal    float64
}

func NewWeatherEmulator(seed int64) *WeatherEmulator {
	return &WeatherEmulator{
		baseTemp:     60,
		baseHumidity: 55,
		basePressure: 30,
		rng:          rand.New(rand.NewSource(seed)),
		windDir:      225,
	}
}

// LoopPacket returns the observations of a loop packet at now. Temperature
// follows the season and the time of day; wind direction wanders.
func (w *WeatherEmulator) LoopPacket(now time.Time) map[string]interface{} {
	hour := float64(now.Hour()) + float64(now.Minute())/60
	day := float64(now.YearDay())

	seasonal := 20 * math.Sin(2*math.Pi*(day-81)/365)
	daily := 15 * math.Sin(2*math.Pi*(hour-9)/24)

	temp := w.baseTemp + seasonal + daily + (w.rng.Float64()-0.5)*2
	humidity := math.Max(10, math.Min(99, w.baseHumidity+(w.baseTemp-temp)))
	pressure := w.basePressure + (w.rng.Float64()-0.5)*0.05
	wind := math.Max(0, 5+w.rng.NormFloat64()*3)
	gust := wind + w.rng.Float64()*5

	w.windDir = math.Mod(w.windDir+w.rng.NormFloat64()*15+360, 360)

	var rain float64
	if w.rng.Float64() < 0.02 {
		rain = 0.01
		w.rainTotal += rain
	}

	return map[string]interface{}{
		"dateTime":    now.Unix(),
		"usUnits":     1,
		"outTemp":     round(temp, 1),
		"inTemp":      round(temp+5, 1),
		"outHumidity": math.Round(humidity),
		"barometer":   round(pressure, 3),
		"windSpeed":   round(wind, 1),
		"windGust":    round(gust, 1),
		"windDir":     math.Round(w.windDir),
		"windGustDir": math.Round(w.windDir),
		"rain":        rain,
		"rainRate":    rain * 3600 / 2.5,
	}
}

// ArchiveRecord marks an archive interval. It carries the receiver's
// reception quality, which Vantage stations use to report lost contact.
func (w *WeatherEmulator) ArchiveRecord(now time.Time, interval time.Duration, lostContact bool) map[string]interface{} {
	rx := 95 + w.rng.Float64()*5
	if lostContact {
		rx = 0
	}
	return map[string]interface{}{
		"dateTime":       now.Unix(),
		"usUnits":        1,
		"type":           "archive",
		"interval":       int(interval / time.Minute),
		"rxCheckPercent": round(rx, 1),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
