package gaugedata

import (
	"context"
	"time"

	"github.com/chrissnell/gaugedata/internal/fieldmap"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// resolve computes one field map entry from the cached packet, history or
// the worker's own buffers. Missing data yields the field default; errors
// are returned as FieldResolutionError.
func (w *Worker) resolve(ctx context.Context, f fieldmap.FieldSpec, p types.Packet) (string, error) {
	switch f.Op {
	case types.OpNone:
		vt, ok := p.Get(f.Source)
		if !ok {
			return w.formatDefault(f), nil
		}
		return w.format(f, vt)

	case types.OpTrend:
		vt, ok := p.Get(f.Source)
		if !ok {
			return w.formatDefault(f), nil
		}
		d, err := w.trends.Calc(ctx, f.Source, vt, p.Timestamp, f.Unit, f.Period, f.Grace)
		if err != nil {
			return "", &FieldResolutionError{Field: f.Name, Err: err}
		}
		if d == nil {
			return w.formatDefault(f), nil
		}
		return f.FormatValue(*d, w.loc), nil

	case types.OpLast, types.OpLastTime:
		vt, ts, ok := w.cache.Last(f.Source)
		if !ok {
			return w.formatDefault(f), nil
		}
		if f.Op == types.OpLastTime {
			return f.FormatValue(float64(ts.Unix()), w.loc), nil
		}
		return w.format(f, vt)
	}

	av, err := w.aggregate(ctx, f, p.Timestamp)
	if err != nil {
		return "", &FieldResolutionError{Field: f.Name, Err: err}
	}
	if av == nil {
		return w.formatDefault(f), nil
	}
	if f.Op.IsTime() {
		return f.FormatValue(float64(av.Time.Unix()), w.loc), nil
	}
	return w.format(f, av.Value)
}

// aggregate resolves f's aggregate over its window ending at now. Short
// direction, vector average and count windows come from recent loop
// packets; everything else from history, with day extremes topped up from
// loop packets.
func (w *Worker) aggregate(ctx context.Context, f fieldmap.FieldSpec, now time.Time) (*types.AggregateValue, error) {
	short := !f.Day && f.Period <= loopRetention
	switch {
	case short && f.Op == types.OpCount:
		n := w.cache.Count(f.Source, now, f.Period)
		return &types.AggregateValue{Value: units.New(float64(n), units.Count, units.GroupCount), Time: now}, nil
	case short && f.Op == types.OpVecAvg:
		v, ok := w.wind.vecAvg(now, f.Period, f.Source == "windGust")
		if !ok {
			return nil, nil
		}
		return &types.AggregateValue{Value: units.New(v, units.KmPerHour, units.GroupSpeed), Time: now}, nil
	}

	if f.Op.IsDirection() && !f.Day && f.Period <= w.wind.retain {
		if f.Op == types.OpMaxDir {
			return w.wind.maxDir(now, f.Period), nil
		}
		d, ok := w.wind.vecDir(now, f.Period, f.Source == "windGust")
		if !ok {
			return nil, nil
		}
		return &types.AggregateValue{Value: units.New(d, units.DegreeComp, units.GroupDirection), Time: now}, nil
	}

	start, end := f.Window(now)
	av, err := w.resolver.Resolve(ctx, f.Source, f.Op, start, end)
	if err != nil {
		return nil, err
	}
	if f.Day {
		av = w.day.merge(f.Source, f.Op, av, now)
	}
	return av, nil
}

func (w *Worker) format(f fieldmap.FieldSpec, vt units.ValueTuple) (string, error) {
	if vt.IsNone() {
		return w.formatDefault(f), nil
	}
	c, err := units.ConvertTuple(vt, f.Unit)
	if err != nil {
		return "", &FieldResolutionError{Field: f.Name, Err: err}
	}
	return f.FormatValue(*c.Value, w.loc), nil
}

// formatDefault renders the field's default in the field's unit. Defaults
// are checked against the field's group when the field map is compiled.
func (w *Worker) formatDefault(f fieldmap.FieldSpec) string {
	d, err := units.ConvertTuple(f.Default, f.Unit)
	if err != nil || d.IsNone() {
		return f.FormatValue(0, w.loc)
	}
	return f.FormatValue(*d.Value, w.loc)
}
