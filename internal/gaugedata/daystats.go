package gaugedata

import (
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

type extreme struct {
	value units.ValueTuple
	at    time.Time
}

// dayStats tracks today's extremes as seen in loop packets. History only
// covers complete archive intervals; these cover the loop packets since.
type dayStats struct {
	day   time.Time
	lows  map[string]extreme
	highs map[string]extreme
}

func newDayStats() *dayStats {
	return &dayStats{lows: make(map[string]extreme), highs: make(map[string]extreme)}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (d *dayStats) add(p types.Packet) {
	if day := midnight(p.Timestamp); !day.Equal(d.day) {
		d.day = day
		d.lows = make(map[string]extreme)
		d.highs = make(map[string]extreme)
	}

	for obs, vt := range p.Observations {
		if vt.IsNone() {
			continue
		}
		switch vt.Group {
		case units.GroupDirection, units.GroupTime, units.GroupCount:
			continue
		}
		d.lows[obs] = better(d.lows[obs], vt, p.Timestamp, true)
		d.highs[obs] = better(d.highs[obs], vt, p.Timestamp, false)
	}
}

// better keeps the earlier of two equal extremes.
func better(cur extreme, vt units.ValueTuple, at time.Time, lower bool) extreme {
	if cur.value.IsNone() {
		return extreme{value: vt, at: at}
	}
	v, err := units.Convert(*vt.Value, vt.Unit, cur.value.Unit)
	if err != nil {
		return cur
	}
	if (lower && v < *cur.value.Value) || (!lower && v > *cur.value.Value) {
		return extreme{value: units.New(v, cur.value.Unit, cur.value.Group), at: at}
	}
	return cur
}

// merge combines a day aggregate from history with today's loop extremes.
// Other aggregates pass through.
func (d *dayStats) merge(obs string, op types.AggregateOp, hist *types.AggregateValue, now time.Time) *types.AggregateValue {
	if !midnight(now).Equal(d.day) {
		return hist
	}

	var (
		ex    extreme
		ok    bool
		lower bool
	)
	switch op {
	case types.OpMin, types.OpMinTime:
		ex, ok = d.lows[obs]
		lower = true
	case types.OpMax, types.OpMaxTime:
		ex, ok = d.highs[obs]
	default:
		return hist
	}
	if !ok {
		return hist
	}
	if hist == nil || hist.Value.IsNone() {
		return &types.AggregateValue{Value: ex.value, Time: ex.at}
	}

	hv, err := units.Convert(*hist.Value.Value, hist.Value.Unit, ex.value.Unit)
	if err != nil {
		return hist
	}
	if (lower && *ex.value.Value < hv) || (!lower && *ex.value.Value > hv) {
		return &types.AggregateValue{Value: ex.value, Time: ex.at}
	}
	return hist
}
