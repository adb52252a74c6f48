// Package fieldmap compiles the configured output fields of gauge-data.txt
// into a validated, immutable table of FieldSpecs.
package fieldmap

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/pkg/config"
)

const defaultTrendLookback = time.Hour

// ConfigurationError reports configuration that cannot be used. It is only
// ever returned at startup.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Err.Error()
	}
	return fmt.Sprintf("configuration error in field %q: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(field string, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// GroupMap maps each unit group to its display unit.
type GroupMap map[units.Group]units.Unit

// FormatMap maps each unit to its format string.
type FormatMap map[units.Unit]string

// FieldSpec is one compiled output field.
type FieldSpec struct {
	Name   string
	Source string
	Op     types.AggregateOp
	// Day selects the current day as the aggregate window. Otherwise the
	// window is the Period preceding the packet; for trends Period is the
	// lookback.
	Day     bool
	Period  time.Duration
	Grace   time.Duration
	Group   units.Group
	Unit    units.Unit
	Format  string
	Default units.ValueTuple
}

// Window returns the aggregate window ending at now.
func (f FieldSpec) Window(now time.Time) (time.Time, time.Time) {
	if f.Day {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), now
	}
	return now.Add(-f.Period), now
}

// FormatValue renders v, already in the field's unit, with the field's
// format. Times are rendered in loc, or the local zone when loc is nil.
func (f FieldSpec) FormatValue(v float64, loc *time.Location) string {
	if f.Group == units.GroupTime {
		if loc == nil {
			loc = time.Local
		}
		return units.FormatTime(f.Format, time.Unix(int64(v), 0).In(loc))
	}
	return units.FormatValue(f.Format, v)
}

// CompileGroupMap applies overrides to the default group map. Rain in cm is
// forced to mm because the gauges cannot show it.
func CompileGroupMap(overrides map[string]string) (GroupMap, error) {
	gm := make(GroupMap, len(DefaultGroupMap))
	for g, u := range DefaultGroupMap {
		gm[g] = u
	}

	for gs, us := range overrides {
		g, err := units.ParseGroup(gs)
		if err != nil {
			return nil, &ConfigurationError{Err: err}
		}
		u, err := units.ParseUnit(us)
		if err != nil {
			return nil, &ConfigurationError{Err: err}
		}
		if !units.Belongs(u, g) {
			return nil, &ConfigurationError{Err: fmt.Errorf("%w: %s is not a unit of %s", units.ErrIncompatibleUnits, u, g)}
		}
		gm[g] = u
	}

	if gm[units.GroupRain] == units.Cm {
		gm[units.GroupRain] = units.Mm
	}
	if gm[units.GroupRainRate] == units.CmPerHour {
		gm[units.GroupRainRate] = units.MmPerHour
	}

	for _, g := range []units.Group{units.GroupTemperature, units.GroupSpeed, units.GroupPressure, units.GroupRain, units.GroupAltitude} {
		if _, ok := units.GaugeLabel(g, gm[g]); !ok {
			return nil, &ConfigurationError{Err: fmt.Errorf("the gauges cannot display %s in %s", g, gm[g])}
		}
	}
	return gm, nil
}

// CompileFormatMap applies overrides to the default format map.
func CompileFormatMap(overrides map[string]string) (FormatMap, error) {
	fm := make(FormatMap, len(DefaultFormatMap))
	for u, f := range DefaultFormatMap {
		fm[u] = f
	}

	for us, f := range overrides {
		u, err := units.ParseUnit(us)
		if err != nil {
			return nil, &ConfigurationError{Err: err}
		}
		if !strings.Contains(f, "%") {
			return nil, &ConfigurationError{Err: fmt.Errorf("format %q for %s has no verb", f, u)}
		}
		fm[u] = f
	}
	return fm, nil
}

// Compile merges overrides onto defaults by field name and compiles the
// result. An override replaces the whole default entry of the same name.
// The result is sorted by field name.
func Compile(defaults map[string]config.FieldData, groups GroupMap, formats FormatMap, grace time.Duration, overrides ...map[string]config.FieldData) ([]FieldSpec, error) {
	merged := make(map[string]config.FieldData, len(defaults))
	for name, fd := range defaults {
		merged[name] = fd
	}
	for _, o := range overrides {
		for name, fd := range o {
			merged[name] = fd
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]FieldSpec, 0, len(names))
	for _, name := range names {
		spec, err := compileField(name, merged[name], groups, formats, grace)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func compileField(name string, fd config.FieldData, groups GroupMap, formats FormatMap, grace time.Duration) (FieldSpec, error) {
	spec := FieldSpec{Name: name, Source: strings.TrimSpace(fd.Source), Grace: grace}
	if spec.Source == "" {
		return spec, configErr(name, "no source")
	}

	op, err := types.ParseAggregateOp(fd.Aggregate)
	if err != nil {
		return spec, &ConfigurationError{Field: name, Err: err}
	}
	spec.Op = op

	spec.Group, err = fieldGroup(spec.Source, op, fd.Group)
	if err != nil {
		return spec, &ConfigurationError{Field: name, Err: err}
	}

	if err := spec.parsePeriod(fd.AggregatePeriod); err != nil {
		return spec, &ConfigurationError{Field: name, Err: err}
	}
	if fd.GracePeriod != "" {
		secs, err := strconv.Atoi(strings.TrimSpace(fd.GracePeriod))
		if err != nil || secs < 0 {
			return spec, configErr(name, "invalid grace_period %q", fd.GracePeriod)
		}
		spec.Grace = time.Duration(secs) * time.Second
	}

	u, ok := groups[spec.Group]
	if !ok {
		return spec, configErr(name, "%w: no display unit for %s", units.ErrUnknownGroup, spec.Group)
	}
	spec.Unit = u

	spec.Format = fd.Format
	if spec.Format == "" {
		spec.Format, ok = formats[u]
		if !ok {
			return spec, configErr(name, "no format for unit %s", u)
		}
	}

	spec.Default, err = parseDefault(fd.Default, spec.Unit, spec.Group)
	if err != nil {
		return spec, &ConfigurationError{Field: name, Err: err}
	}
	return spec, nil
}

// fieldGroup determines the output group of a field and checks that the
// source can be converted into it.
func fieldGroup(source string, op types.AggregateOp, configured string) (units.Group, error) {
	var implied units.Group
	switch {
	case op.IsTime():
		implied = units.GroupTime
	case op.IsDirection():
		implied = units.GroupDirection
	case op == types.OpCount:
		implied = units.GroupCount
	case op == types.OpVecAvg:
		implied = units.GroupSpeed
	default:
		implied, _ = units.ObservationGroup(source)
	}

	g := implied
	if configured != "" {
		var err error
		if g, err = units.ParseGroup(configured); err != nil {
			return "", err
		}
		if implied != "" && g != implied {
			return "", fmt.Errorf("%w: %s yields %s, not %s", units.ErrIncompatibleUnits, source, implied, g)
		}
	}
	if g == "" {
		return "", fmt.Errorf("%w: cannot infer the group of %q", units.ErrUnknownGroup, source)
	}
	if op == types.OpTrend && (g == units.GroupTime || g == units.GroupDirection) {
		return "", fmt.Errorf("trend is not defined for %s", g)
	}
	return g, nil
}

func (f *FieldSpec) parsePeriod(p string) error {
	p = strings.ToLower(strings.TrimSpace(p))
	switch {
	case !f.Op.HasPeriod():
		return nil
	case p == "" && f.Op == types.OpTrend:
		f.Period = defaultTrendLookback
		return nil
	case p == "" || p == "day":
		if f.Op == types.OpTrend {
			return errors.New("trend needs a lookback in seconds")
		}
		f.Day = true
		return nil
	}

	secs, err := strconv.Atoi(p)
	if err != nil || secs <= 0 {
		return fmt.Errorf("invalid aggregate_period %q", p)
	}
	f.Period = time.Duration(secs) * time.Second
	return nil
}

// parseDefault parses "value[,unit[,group]]". A missing default is zero in
// the display unit.
func parseDefault(s string, unit units.Unit, group units.Group) (units.ValueTuple, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return units.New(0, unit, group), nil
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 3 {
		return units.ValueTuple{}, fmt.Errorf("invalid default %q", s)
	}

	v, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return units.ValueTuple{}, fmt.Errorf("invalid default value %q", parts[0])
	}
	if len(parts) == 1 {
		return units.New(v, unit, group), nil
	}

	u, err := units.ParseUnit(parts[1])
	if err != nil {
		return units.ValueTuple{}, err
	}
	if len(parts) == 3 {
		g, err := units.ParseGroup(parts[2])
		if err != nil {
			return units.ValueTuple{}, err
		}
		if g != group {
			return units.ValueTuple{}, fmt.Errorf("%w: default group %s, field group %s", units.ErrIncompatibleUnits, g, group)
		}
	}
	if !units.Belongs(u, group) {
		return units.ValueTuple{}, fmt.Errorf("%w: default unit %s is not a unit of %s", units.ErrIncompatibleUnits, u, group)
	}
	return units.New(v, u, group), nil
}
