package fieldmap

import (
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/pkg/config"
)

func instant(source, group string) config.FieldData {
	return config.FieldData{Source: source, Group: group}
}

func daily(source, op, group string) config.FieldData {
	return config.FieldData{Source: source, Aggregate: op, AggregatePeriod: "day", Group: group}
}

func trend(source, lookback, group string) config.FieldData {
	return config.FieldData{Source: source, Aggregate: "trend", AggregatePeriod: lookback, GracePeriod: "300", Group: group}
}

// DefaultFieldMap is the gauge-data.txt schema. Changing the set of fields
// requires bumping constants.GaugeDataVersion.
var DefaultFieldMap = map[string]config.FieldData{
	"temp":      instant("outTemp", "group_temperature"),
	"tempTL":    daily("outTemp", "min", "group_temperature"),
	"tempTH":    daily("outTemp", "max", "group_temperature"),
	"TtempTL":   daily("outTemp", "mintime", "group_time"),
	"TtempTH":   daily("outTemp", "maxtime", "group_time"),
	"temptrend": trend("outTemp", "3600", "group_temperature"),

	"intemp":    instant("inTemp", "group_temperature"),
	"intempTL":  daily("inTemp", "min", "group_temperature"),
	"intempTH":  daily("inTemp", "max", "group_temperature"),
	"TintempTL": daily("inTemp", "mintime", "group_time"),
	"TintempTH": daily("inTemp", "maxtime", "group_time"),

	"hum":    instant("outHumidity", "group_percent"),
	"humTL":  daily("outHumidity", "min", "group_percent"),
	"humTH":  daily("outHumidity", "max", "group_percent"),
	"ThumTL": daily("outHumidity", "mintime", "group_time"),
	"ThumTH": daily("outHumidity", "maxtime", "group_time"),

	"inhum":    instant("inHumidity", "group_percent"),
	"inhumTL":  daily("inHumidity", "min", "group_percent"),
	"inhumTH":  daily("inHumidity", "max", "group_percent"),
	"TinhumTL": daily("inHumidity", "mintime", "group_time"),
	"TinhumTH": daily("inHumidity", "maxtime", "group_time"),

	"dew":         instant("dewpoint", "group_temperature"),
	"dewpointTL":  daily("dewpoint", "min", "group_temperature"),
	"dewpointTH":  daily("dewpoint", "max", "group_temperature"),
	"TdewpointTL": daily("dewpoint", "mintime", "group_time"),
	"TdewpointTH": daily("dewpoint", "maxtime", "group_time"),

	"wchill":    instant("windchill", "group_temperature"),
	"wchillTL":  daily("windchill", "min", "group_temperature"),
	"TwchillTL": daily("windchill", "mintime", "group_time"),

	"heatindex":    instant("heatindex", "group_temperature"),
	"heatindexTH":  daily("heatindex", "max", "group_temperature"),
	"TheatindexTH": daily("heatindex", "maxtime", "group_time"),

	"apptemp":    instant("appTemp", "group_temperature"),
	"apptempTL":  daily("appTemp", "min", "group_temperature"),
	"apptempTH":  daily("appTemp", "max", "group_temperature"),
	"TapptempTL": daily("appTemp", "mintime", "group_time"),
	"TapptempTH": daily("appTemp", "maxtime", "group_time"),

	"humidex": instant("humidex", "group_temperature"),

	"press":         instant("barometer", "group_pressure"),
	"pressTL":       daily("barometer", "min", "group_pressure"),
	"pressTH":       daily("barometer", "max", "group_pressure"),
	"TpressTL":      daily("barometer", "mintime", "group_time"),
	"TpressTH":      daily("barometer", "maxtime", "group_time"),
	"presstrendval": trend("barometer", "10800", "group_pressure"),

	"rfall":    daily("rain", "sum", "group_rain"),
	"rrate":    instant("rainRate", "group_rainrate"),
	"rrateTM":  daily("rainRate", "max", "group_rainrate"),
	"TrrateTM": daily("rainRate", "maxtime", "group_time"),

	"wlatest":  instant("windSpeed", "group_speed"),
	"windTM":   daily("windSpeed", "max", "group_speed"),
	"wgust":    instant("windGust", "group_speed"),
	"wgustTM":  daily("windGust", "max", "group_speed"),
	"TwgustTM": daily("windGust", "maxtime", "group_time"),

	"bearing":    {Source: "windDir", Group: "group_direction", Default: "0"},
	"avgbearing": {Source: "wind", Aggregate: "vecdir", AggregatePeriod: "600", Group: "group_direction"},
	"bearingTM":  daily("wind", "maxdir", "group_direction"),
	"windrun":    daily("windrun", "sum", "group_distance"),

	"UV":              instant("UV", "group_uv"),
	"UVTH":            daily("UV", "max", "group_uv"),
	"SolarRad":        instant("radiation", "group_radiation"),
	"SolarRadTM":      daily("radiation", "max", "group_radiation"),
	"CurrentSolarMax": instant("maxSolarRad", "group_radiation"),
	"cloudbasevalue":  instant("cloudbase", "group_altitude"),
}

// DefaultGroupMap sets the display unit of each group.
var DefaultGroupMap = GroupMap{
	units.GroupTemperature: units.DegreeC,
	units.GroupPercent:     units.Percent,
	units.GroupPressure:    units.HPa,
	units.GroupSpeed:       units.KmPerHour,
	units.GroupDistance:    units.Km,
	units.GroupDirection:   units.DegreeComp,
	units.GroupRain:        units.Mm,
	units.GroupRainRate:    units.MmPerHour,
	units.GroupRadiation:   units.WattPerM2,
	units.GroupUV:          units.UVIndex,
	units.GroupAltitude:    units.Foot,
	units.GroupTime:        units.UnixEpoch,
	units.GroupCount:       units.Count,
}

// DefaultFormatMap sets the printf format of each unit. unix_epoch takes a
// strftime format instead.
var DefaultFormatMap = FormatMap{
	units.DegreeC:    "%.1f",
	units.DegreeComp: "%.0f",
	units.DegreeF:    "%.1f",
	units.Foot:       "%.0f",
	units.HPa:        "%.1f",
	units.Inch:       "%.2f",
	units.InchPerHr:  "%.2f",
	units.InHg:       "%.3f",
	units.Km:         "%.1f",
	units.KmPerHour:  "%.0f",
	units.Knot:       "%.0f",
	units.KPa:        "%.2f",
	units.MBar:       "%.1f",
	units.Meter:      "%.0f",
	units.MeterPerS:  "%.1f",
	units.Mile:       "%.1f",
	units.MilePerHr:  "%.0f",
	units.Mm:         "%.1f",
	units.MmPerHour:  "%.1f",
	units.MmHg:       "%.1f",
	units.Percent:    "%.0f",
	units.UnixEpoch:  "%H:%M",
	units.UVIndex:    "%.1f",
	units.WattPerM2:  "%.0f",
	units.Count:      "%.0f",
	units.Cm:         "%.2f",
	units.CmPerHour:  "%.2f",
}
