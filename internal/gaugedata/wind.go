package gaugedata

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/gaugedata/internal/aggregate"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// loopRetention is how much loop history the worker keeps for short
// windows.
const loopRetention = 10 * time.Minute

// windBuffer holds recent loop wind readings, speeds in km/h, oldest first.
type windBuffer struct {
	retain  time.Duration
	samples []types.WindSample
}

func newWindBuffer(retain time.Duration) *windBuffer {
	return &windBuffer{retain: retain}
}

func (b *windBuffer) add(p types.Packet) {
	s := types.WindSample{
		Time:          p.Timestamp,
		SpeedUnit:     units.KmPerHour,
		Speed:         speedKmh(p, "windSpeed"),
		Direction:     optional(p, "windDir"),
		Gust:          speedKmh(p, "windGust"),
		GustDirection: optional(p, "windGustDir"),
	}
	if s.Speed == nil && s.Gust == nil && s.Direction == nil {
		return
	}
	b.samples = append(b.samples, s)
	b.trim(p.Timestamp)
}

func (b *windBuffer) trim(now time.Time) {
	i := 0
	for i < len(b.samples) && now.Sub(b.samples[i].Time) > b.retain {
		i++
	}
	b.samples = b.samples[i:]
}

// window returns the samples in (now-age, now].
func (b *windBuffer) window(now time.Time, age time.Duration) []types.WindSample {
	start := now.Add(-age)
	var out []types.WindSample
	for _, s := range b.samples {
		if s.Time.After(start) && !s.Time.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// avgSpeed is the mean wind speed over age, in km/h.
func (b *windBuffer) avgSpeed(now time.Time, age time.Duration) (float64, bool) {
	var speeds []float64
	for _, s := range b.window(now, age) {
		if s.Speed != nil {
			speeds = append(speeds, *s.Speed)
		}
	}
	if len(speeds) == 0 {
		return 0, false
	}
	return stat.Mean(speeds, nil), true
}

// maxGust is the highest gust over age, in km/h. Stations that do not
// report gusts get the highest wind speed.
func (b *windBuffer) maxGust(now time.Time, age time.Duration) (float64, bool) {
	var gusts, speeds []float64
	for _, s := range b.window(now, age) {
		if s.Gust != nil {
			gusts = append(gusts, *s.Gust)
		}
		if s.Speed != nil {
			speeds = append(speeds, *s.Speed)
		}
	}
	switch {
	case len(gusts) > 0:
		return floats.Max(gusts), true
	case len(speeds) > 0:
		return floats.Max(speeds), true
	}
	return 0, false
}

func (b *windBuffer) vecDir(now time.Time, age time.Duration, gust bool) (float64, bool) {
	return aggregate.VecDir(b.window(now, age), gust)
}

func (b *windBuffer) vecAvg(now time.Time, age time.Duration, gust bool) (float64, bool) {
	return aggregate.VecAvg(b.window(now, age), gust)
}

func (b *windBuffer) maxDir(now time.Time, age time.Duration) *types.AggregateValue {
	return aggregate.MaxDir(b.window(now, age))
}

// bearingRange returns the extreme directions seen over age either side
// of the average direction avg.
func (b *windBuffer) bearingRange(now time.Time, age time.Duration, avg float64) (float64, float64, bool) {
	var offsets []float64
	for _, s := range b.window(now, age) {
		if s.Direction == nil {
			continue
		}
		offsets = append(offsets, plusMinus(*s.Direction-avg))
	}
	if len(offsets) == 0 {
		return 0, 0, false
	}
	return threeSixty(floats.Min(offsets) + avg), threeSixty(floats.Max(offsets) + avg), true
}

// plusMinus maps an angle onto (-180, 180].
func plusMinus(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// threeSixty maps an angle onto [0, 360).
func threeSixty(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func optional(p types.Packet, obs string) *float64 {
	v, ok := p.Value(obs)
	if !ok {
		return nil
	}
	return &v
}

func speedKmh(p types.Packet, obs string) *float64 {
	vt, ok := p.Get(obs)
	if !ok || vt.IsNone() {
		return nil
	}
	v, err := units.Convert(*vt.Value, vt.Unit, units.KmPerHour)
	if err != nil {
		return nil
	}
	return &v
}
