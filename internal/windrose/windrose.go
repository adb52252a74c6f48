// Package windrose accumulates wind run by compass sector for the
// gauges' windrose.
package windrose

import (
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// Accumulator is a histogram of wind speed by direction. Sector 0 is
// centred on north. Each sector is zeroed once its window is older than
// the rolling period. An Accumulator is owned by a single goroutine.
type Accumulator struct {
	points int
	angle  float64
	period time.Duration
	unit   units.Unit
	sums   []float64
	starts []time.Time
}

// New returns an Accumulator with the given number of sectors that sums
// speeds in unit.
func New(points int, period time.Duration, unit units.Unit) (*Accumulator, error) {
	if points < 1 {
		return nil, fmt.Errorf("windrose needs at least one sector, got %d", points)
	}
	if !units.Belongs(unit, units.GroupSpeed) {
		return nil, fmt.Errorf("%w: %s is not a speed", units.ErrIncompatibleUnits, unit)
	}
	return &Accumulator{
		points: points,
		angle:  360 / float64(points),
		period: period,
		unit:   unit,
		sums:   make([]float64, points),
		starts: make([]time.Time, points),
	}, nil
}

// Sector returns the sector a direction falls in. Directions midway
// between two sectors go to the lower-numbered one.
func (a *Accumulator) Sector(dir float64) int {
	d := math.Mod(dir, 360)
	if d < 0 {
		d += 360
	}
	x := d/a.angle - 0.5
	// Midway between the last sector and north belongs to sector 0.
	if x == float64(a.points-1) {
		return 0
	}
	idx := int(math.Ceil(x)) % a.points
	if idx < 0 {
		idx += a.points
	}
	return idx
}

// Add folds one wind sample in. Sectors whose window has expired are reset
// first, whether or not the sample is calm. A sample with no direction or
// zero speed is calm and adds nothing.
func (a *Accumulator) Add(ts time.Time, speed units.ValueTuple, dir *float64) error {
	a.expire(ts)

	if speed.IsNone() || dir == nil || *speed.Value == 0 {
		return nil
	}
	v, err := units.Convert(*speed.Value, speed.Unit, a.unit)
	if err != nil {
		return err
	}
	a.sums[a.Sector(*dir)] += v
	return nil
}

func (a *Accumulator) expire(ts time.Time) {
	for i := range a.starts {
		if a.starts[i].IsZero() {
			a.starts[i] = ts
			continue
		}
		if ts.Sub(a.starts[i]) > a.period {
			a.sums[i] = 0
			a.starts[i] = ts
		}
	}
}

// Seed primes the accumulator from historical wind samples, oldest first.
func (a *Accumulator) Seed(samples []types.WindSample) error {
	for _, s := range samples {
		g := units.GroupSpeed
		speed := units.None(s.SpeedUnit, g)
		if s.Speed != nil {
			speed = units.New(*s.Speed, s.SpeedUnit, g)
		}
		if err := a.Add(s.Time, speed, s.Direction); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the per-sector sums rounded to one decimal place.
func (a *Accumulator) Values() []float64 {
	out := make([]float64, a.points)
	for i, v := range a.sums {
		out[i] = math.Round(v*10) / 10
	}
	return out
}

// Points returns the number of sectors.
func (a *Accumulator) Points() int {
	return a.points
}
