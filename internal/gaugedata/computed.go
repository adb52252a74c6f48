package gaugedata

import (
	"context"
	"strings"
	"time"

	"github.com/chrissnell/gaugedata/internal/constants"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

const (
	defaultPressLow  = 850.0  // hPa
	defaultPressHigh = 1100.0 // hPa
	noLastRain       = "1/1/1900 00:00"
	windAverage      = 10 * time.Minute
)

// computed fills the fields that are not driven by the field map.
func (w *Worker) computed(ctx context.Context, p types.Packet, snap Snapshot) {
	ts := p.Timestamp
	local := ts.In(w.loc)

	snap["timeUTC"] = units.FormatTime("%Y,%m,%d,%H,%M,%S", ts.UTC())
	snap["date"] = units.FormatTime(w.opts.DateFormat, local) + " " + units.FormatTime(w.opts.TimeFormat, local)
	snap["dateFormat"] = strings.ToLower(strings.NewReplacer("%", "", "-", "").Replace(w.opts.DateFormat))

	snap["SensorContactLost"] = "0"
	if w.contactLost {
		snap["SensorContactLost"] = "1"
	}

	for field, g := range map[string]units.Group{
		"tempunit":      units.GroupTemperature,
		"windunit":      units.GroupSpeed,
		"pressunit":     units.GroupPressure,
		"rainunit":      units.GroupRain,
		"cloudbaseunit": units.GroupAltitude,
	} {
		snap[field], _ = units.GaugeLabel(g, w.opts.Groups[g])
	}

	snap["pressL"] = w.formatExtreme(w.pressLow, defaultPressLow)
	snap["pressH"] = w.formatExtreme(w.pressHigh, defaultPressHigh)

	snap["domwinddir"] = nil
	dom, err := w.resolver.Resolve(ctx, "wind", types.OpVecDir, midnight(local), ts)
	if err != nil {
		w.logger.Warnf("cannot resolve field \"domwinddir\": %v", err)
	} else if dom != nil {
		snap["domwinddir"] = units.DegreeToCompass(dom.Value.Float())
	}

	snap["WindRoseData"] = w.rose.Values()

	// Not tracked; the gauges show these as static values.
	snap["hourlyrainTH"] = "0.0"
	snap["ThourlyrainTH"] = "00:00"

	snap["LastRainTipISO"] = noLastRain
	if w.lastRain != nil {
		lr := w.lastRain.In(w.loc)
		snap["LastRainTipISO"] = units.FormatTime(w.opts.DateFormat, lr) + " " + units.FormatTime(w.opts.TimeFormat, lr)
	}

	speed, _ := w.wind.avgSpeed(ts, windAverage)
	snap["wspeed"] = w.formatGroup(units.GroupSpeed, speed, units.KmPerHour)
	gust, _ := w.wind.maxGust(ts, windAverage)
	snap["wgust"] = w.formatGroup(units.GroupSpeed, gust, units.KmPerHour)

	var from, to float64
	if avg, ok := w.wind.vecDir(ts, windAverage, false); ok {
		from, to, _ = w.wind.bearingRange(ts, windAverage, avg)
	}
	snap["BearingRangeFrom10"] = w.formatGroup(units.GroupDirection, from, units.DegreeComp)
	snap["BearingRangeTo10"] = w.formatGroup(units.GroupDirection, to, units.DegreeComp)

	snap["forecast"] = units.FormatTime(w.opts.ScrollerText, local)
	snap["version"] = constants.Version
	snap["build"] = ""
	snap["ver"] = constants.GaugeDataVersion

	y, m, _ := local.Date()
	if w.opts.MonthToDateRain {
		snap["mrfall"] = w.rainSince(ctx, "mrfall", time.Date(y, m, 1, 0, 0, 0, 0, w.loc), ts)
	}
	if w.opts.YearToDateRain {
		snap["yrfall"] = w.rainSince(ctx, "yrfall", time.Date(y, time.January, 1, 0, 0, 0, 0, w.loc), ts)
	}
}

// formatGroup converts v to the display unit of g and formats it.
func (w *Worker) formatGroup(g units.Group, v float64, from units.Unit) string {
	u := w.opts.Groups[g]
	c, err := units.Convert(v, from, u)
	if err != nil {
		w.logger.Warnf("cannot show %s in %s: %v", from, u, err)
		c = 0
	}
	return units.FormatValue(w.opts.Formats[u], c)
}

// formatExtreme formats an all-time pressure extreme, or def hPa when
// history has none.
func (w *Worker) formatExtreme(av *types.AggregateValue, def float64) string {
	if av == nil || av.Value.IsNone() {
		return w.formatGroup(units.GroupPressure, def, units.HPa)
	}
	return w.formatGroup(units.GroupPressure, *av.Value.Value, av.Value.Unit)
}

func (w *Worker) rainSince(ctx context.Context, field string, start, end time.Time) string {
	av, err := w.resolver.Resolve(ctx, "rain", types.OpSum, start, end)
	if err != nil {
		w.logger.Warnf("cannot resolve field %q: %v", field, err)
	}
	if av == nil || av.Value.IsNone() {
		return w.formatGroup(units.GroupRain, 0, units.Mm)
	}
	return w.formatGroup(units.GroupRain, *av.Value.Value, av.Value.Unit)
}
