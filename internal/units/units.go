// Package units defines the unit groups and units understood by the gauge
// data generator and converts values between units of the same group.
package units

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownGroup is returned when a group name is not part of the taxonomy.
	ErrUnknownGroup = errors.New("unknown unit group")
	// ErrUnknownUnit is returned when a unit name is not part of the taxonomy.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrIncompatibleUnits is returned when converting between units of different groups.
	ErrIncompatibleUnits = errors.New("incompatible units")
)

// Group is a family of units that measure the same quantity.
type Group string

const (
	GroupTemperature Group = "group_temperature"
	GroupPressure    Group = "group_pressure"
	GroupRain        Group = "group_rain"
	GroupRainRate    Group = "group_rainrate"
	GroupSpeed       Group = "group_speed"
	GroupDistance    Group = "group_distance"
	GroupPercent     Group = "group_percent"
	GroupUV          Group = "group_uv"
	GroupRadiation   Group = "group_radiation"
	GroupDirection   Group = "group_direction"
	GroupAltitude    Group = "group_altitude"
	GroupTime        Group = "group_time"
	GroupCount       Group = "group_count"
)

// Groups lists every known group in a stable order.
var Groups = []Group{
	GroupTemperature, GroupPressure, GroupRain, GroupRainRate, GroupSpeed,
	GroupDistance, GroupPercent, GroupUV, GroupRadiation, GroupDirection,
	GroupAltitude, GroupTime, GroupCount,
}

// Unit is a unit of measure.
type Unit string

const (
	DegreeC    Unit = "degree_C"
	DegreeF    Unit = "degree_F"
	HPa        Unit = "hPa"
	MBar       Unit = "mbar"
	KPa        Unit = "kPa"
	InHg       Unit = "inHg"
	MmHg       Unit = "mmHg"
	Mm         Unit = "mm"
	Cm         Unit = "cm"
	Inch       Unit = "inch"
	MmPerHour  Unit = "mm_per_hour"
	CmPerHour  Unit = "cm_per_hour"
	InchPerHr  Unit = "inch_per_hour"
	KmPerHour  Unit = "km_per_hour"
	MilePerHr  Unit = "mile_per_hour"
	MeterPerS  Unit = "meter_per_second"
	Knot       Unit = "knot"
	Km         Unit = "km"
	Mile       Unit = "mile"
	Meter      Unit = "meter"
	Foot       Unit = "foot"
	Percent    Unit = "percent"
	UVIndex    Unit = "uv_index"
	WattPerM2  Unit = "watt_per_meter_squared"
	DegreeComp Unit = "degree_compass"
	UnixEpoch  Unit = "unix_epoch"
	Count      Unit = "count"
)

// unitInfo describes a unit as an affine transform onto its group's base
// unit: base = value*scale + offset.
type unitInfo struct {
	group  Group
	scale  float64
	offset float64
}

var unitTable = map[Unit]unitInfo{
	DegreeC: {GroupTemperature, 1, 0},
	DegreeF: {GroupTemperature, 5.0 / 9.0, -32 * 5.0 / 9.0},

	HPa:  {GroupPressure, 1, 0},
	MBar: {GroupPressure, 1, 0},
	KPa:  {GroupPressure, 10, 0},
	InHg: {GroupPressure, 33.86389, 0},
	MmHg: {GroupPressure, 1.3332239, 0},

	Mm:   {GroupRain, 1, 0},
	Cm:   {GroupRain, 10, 0},
	Inch: {GroupRain, 25.4, 0},

	MmPerHour: {GroupRainRate, 1, 0},
	CmPerHour: {GroupRainRate, 10, 0},
	InchPerHr: {GroupRainRate, 25.4, 0},

	KmPerHour: {GroupSpeed, 1, 0},
	MilePerHr: {GroupSpeed, 1.609344, 0},
	MeterPerS: {GroupSpeed, 3.6, 0},
	Knot:      {GroupSpeed, 1.852, 0},

	Km:   {GroupDistance, 1, 0},
	Mile: {GroupDistance, 1.609344, 0},

	Meter: {GroupAltitude, 1, 0},
	Foot:  {GroupAltitude, 0.3048, 0},

	Percent:    {GroupPercent, 1, 0},
	UVIndex:    {GroupUV, 1, 0},
	WattPerM2:  {GroupRadiation, 1, 0},
	DegreeComp: {GroupDirection, 1, 0},
	UnixEpoch:  {GroupTime, 1, 0},
	Count:      {GroupCount, 1, 0},
}

// ParseGroup validates a group name. The "group_" prefix is optional.
func ParseGroup(s string) (Group, error) {
	name := strings.TrimSpace(s)
	if !strings.HasPrefix(name, "group_") {
		name = "group_" + name
	}
	g := Group(name)
	for _, known := range Groups {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroup, s)
}

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.TrimSpace(s))
	if _, ok := unitTable[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

// GroupOf returns the group a unit belongs to.
func GroupOf(u Unit) (Group, bool) {
	info, ok := unitTable[u]
	return info.group, ok
}

// Belongs reports whether unit u is a member of group g.
func Belongs(u Unit, g Group) bool {
	info, ok := unitTable[u]
	return ok && info.group == g
}
