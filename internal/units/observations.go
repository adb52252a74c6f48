package units

import "fmt"

// System identifies the unit system a packet or archive record was stored
// in. Values match the weewx usUnits column.
type System int

const (
	US       System = 0x01
	Metric   System = 0x10
	MetricWX System = 0x11
)

// ParseSystem validates a usUnits value.
func ParseSystem(v int) (System, error) {
	switch s := System(v); s {
	case US, Metric, MetricWX:
		return s, nil
	}
	return 0, fmt.Errorf("unknown unit system %d", v)
}

var systemUnits = map[System]map[Group]Unit{
	US: {
		GroupTemperature: DegreeF,
		GroupPressure:    InHg,
		GroupRain:        Inch,
		GroupRainRate:    InchPerHr,
		GroupSpeed:       MilePerHr,
		GroupDistance:    Mile,
		GroupAltitude:    Foot,
	},
	Metric: {
		GroupTemperature: DegreeC,
		GroupPressure:    MBar,
		GroupRain:        Cm,
		GroupRainRate:    CmPerHour,
		GroupSpeed:       KmPerHour,
		GroupDistance:    Km,
		GroupAltitude:    Meter,
	},
	MetricWX: {
		GroupTemperature: DegreeC,
		GroupPressure:    MBar,
		GroupRain:        Mm,
		GroupRainRate:    MmPerHour,
		GroupSpeed:       MeterPerS,
		GroupDistance:    Km,
		GroupAltitude:    Meter,
	},
}

var singleUnitGroups = map[Group]Unit{
	GroupPercent:   Percent,
	GroupUV:        UVIndex,
	GroupRadiation: WattPerM2,
	GroupDirection: DegreeComp,
	GroupTime:      UnixEpoch,
	GroupCount:     Count,
}

// SystemUnit returns the unit used for group g in unit system s.
func SystemUnit(s System, g Group) (Unit, bool) {
	if u, ok := singleUnitGroups[g]; ok {
		return u, true
	}
	u, ok := systemUnits[s][g]
	return u, ok
}

// observationGroups maps observation names to the group they are measured in.
var observationGroups = map[string]Group{
	"outTemp":        GroupTemperature,
	"inTemp":         GroupTemperature,
	"dewpoint":       GroupTemperature,
	"windchill":      GroupTemperature,
	"heatindex":      GroupTemperature,
	"appTemp":        GroupTemperature,
	"humidex":        GroupTemperature,
	"outHumidity":    GroupPercent,
	"inHumidity":     GroupPercent,
	"rxCheckPercent": GroupPercent,
	"barometer":      GroupPressure,
	"pressure":       GroupPressure,
	"altimeter":      GroupPressure,
	"rain":           GroupRain,
	"rainRate":       GroupRainRate,
	"windSpeed":      GroupSpeed,
	"windGust":       GroupSpeed,
	"wind":           GroupSpeed,
	"windDir":        GroupDirection,
	"windGustDir":    GroupDirection,
	"windrun":        GroupDistance,
	"UV":             GroupUV,
	"radiation":      GroupRadiation,
	"maxSolarRad":    GroupRadiation,
	"cloudbase":      GroupAltitude,
	"dateTime":       GroupTime,
	"status":         GroupCount,
}

// ObservationGroup returns the group an observation is measured in.
func ObservationGroup(obs string) (Group, bool) {
	g, ok := observationGroups[obs]
	return g, ok
}

// ObservationTuple builds a ValueTuple for obs as stored in unit system s.
// A nil value yields a None tuple.
func ObservationTuple(s System, obs string, value *float64) (ValueTuple, error) {
	g, ok := ObservationGroup(obs)
	if !ok {
		return ValueTuple{}, fmt.Errorf("observation %q has no known unit group", obs)
	}
	u, ok := SystemUnit(s, g)
	if !ok {
		return ValueTuple{}, fmt.Errorf("no unit for %s in unit system %d", g, s)
	}
	if value == nil {
		return None(u, g), nil
	}
	return New(*value, u, g), nil
}
