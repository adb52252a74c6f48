// Package aggregate resolves the aggregates named in the field map against
// the historical store.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/gaugedata/internal/history"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// calm is the resultant below which opposing winds are taken to cancel.
const calm = 1e-9

// Resolver translates aggregate operations into history queries.
type Resolver struct {
	store history.Store
}

// New returns a Resolver reading from store.
func New(store history.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve computes op over obs in (start, end]. A nil result with a nil
// error means there was no data in the window.
func (r *Resolver) Resolve(ctx context.Context, obs string, op types.AggregateOp, start, end time.Time) (*types.AggregateValue, error) {
	switch op {
	case types.OpMin, types.OpMax, types.OpMinTime, types.OpMaxTime, types.OpSum, types.OpCount:
		return r.store.Aggregate(ctx, obs, op, start, end)
	case types.OpVecDir:
		samples, err := r.store.WindSeries(ctx, start, end)
		if err != nil {
			return nil, err
		}
		dir, ok := VecDir(samples, obs == "windGust")
		if !ok {
			return nil, nil
		}
		return &types.AggregateValue{Value: direction(dir), Time: end}, nil
	case types.OpMaxDir:
		samples, err := r.store.WindSeries(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return MaxDir(samples), nil
	case types.OpVecAvg:
		samples, err := r.store.WindSeries(ctx, start, end)
		if err != nil {
			return nil, err
		}
		v, ok := VecAvg(samples, obs == "windGust")
		if !ok {
			return nil, nil
		}
		return &types.AggregateValue{Value: units.New(v, units.KmPerHour, units.GroupSpeed), Time: end}, nil
	default:
		return nil, fmt.Errorf("aggregate %q cannot be resolved from history", op)
	}
}

func direction(d float64) units.ValueTuple {
	return units.New(d, units.DegreeComp, units.GroupDirection)
}

// VecDir returns the magnitude-weighted vector average direction of the
// samples, in [0, 360). Calm samples carry no direction and are ignored.
func VecDir(samples []types.WindSample, gust bool) (float64, bool) {
	xs := make([]float64, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	for _, s := range samples {
		speed, dir := s.Speed, s.Direction
		if gust {
			speed, dir = s.Gust, s.GustDirection
		}
		if speed == nil || dir == nil || *speed == 0 {
			continue
		}
		// Samples from different unit systems are weighted alike.
		v, err := units.Convert(*speed, s.SpeedUnit, units.KmPerHour)
		if err != nil {
			continue
		}
		rad := *dir * math.Pi / 180
		xs = append(xs, v*math.Sin(rad))
		ys = append(ys, v*math.Cos(rad))
	}
	return Direction(xs, ys)
}

// VecAvg returns the vector average magnitude of the samples in km/h: the
// length of the summed wind vectors divided by the number of samples with
// a speed. Calm samples count but add no vector.
func VecAvg(samples []types.WindSample, gust bool) (float64, bool) {
	var xs, ys []float64
	n := 0
	for _, s := range samples {
		speed, dir := s.Speed, s.Direction
		if gust {
			speed, dir = s.Gust, s.GustDirection
		}
		if speed == nil {
			continue
		}
		v, err := units.Convert(*speed, s.SpeedUnit, units.KmPerHour)
		if err != nil {
			continue
		}
		n++
		if dir == nil || v == 0 {
			continue
		}
		rad := *dir * math.Pi / 180
		xs = append(xs, v*math.Sin(rad))
		ys = append(ys, v*math.Cos(rad))
	}
	if n == 0 {
		return 0, false
	}
	return math.Hypot(floats.Sum(xs), floats.Sum(ys)) / float64(n), true
}

// Direction recovers a bearing from summed east (x) and north (y)
// components.
func Direction(xs, ys []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	x, y := floats.Sum(xs), floats.Sum(ys)
	if math.Hypot(x, y) < calm {
		return 0, false
	}
	d := math.Atan2(x, y) * 180 / math.Pi
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d, true
}

// MaxDir returns the direction of the strongest gust in samples, falling
// back to the strongest sustained wind when the store has no gusts. Ties go
// to the earliest sample.
func MaxDir(samples []types.WindSample) *types.AggregateValue {
	if res := maxDir(samples, true); res != nil {
		return res
	}
	return maxDir(samples, false)
}

func maxDir(samples []types.WindSample, gust bool) *types.AggregateValue {
	var (
		best  *types.AggregateValue
		speed float64
	)
	for _, s := range samples {
		v, dir := s.Speed, s.Direction
		if gust {
			v, dir = s.Gust, s.GustDirection
		}
		if v == nil || dir == nil {
			continue
		}
		sv, err := units.Convert(*v, s.SpeedUnit, units.KmPerHour)
		if err != nil {
			continue
		}
		if best == nil || sv > speed {
			speed = sv
			best = &types.AggregateValue{Value: direction(*dir), Time: s.Time}
		}
	}
	return best
}
