package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	GaugeData GaugeDataData   `json:"gauge_data" yaml:"gauge_data"`
	History   HistoryData     `json:"history" yaml:"history"`
	MQTT      *MQTTData       `json:"mqtt,omitempty" yaml:"mqtt,omitempty"`
	HTTPPost  *HTTPPostData   `json:"http_post,omitempty" yaml:"http_post,omitempty"`
	REST      *RESTServerData `json:"rest,omitempty" yaml:"rest,omitempty"`
	LogFile   string          `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// GaugeDataData holds the settings of the gauge data generator
type GaugeDataData struct {
	Path               string               `json:"path,omitempty" yaml:"path,omitempty"`
	FileName           string               `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	MinInterval        int                  `json:"min_interval,omitempty" yaml:"min_interval,omitempty"`
	EveryNthPacket     int                  `json:"every_nth_packet,omitempty" yaml:"every_nth_packet,omitempty"`
	WindrosePoints     int                  `json:"windrose_points,omitempty" yaml:"windrose_points,omitempty"`
	WindrosePeriod     int                  `json:"windrose_period,omitempty" yaml:"windrose_period,omitempty"`
	MaxCacheAge        int                  `json:"max_cache_age,omitempty" yaml:"max_cache_age,omitempty"`
	GracePeriod        int                  `json:"grace_period,omitempty" yaml:"grace_period,omitempty"`
	QueueSize          int                  `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	EnqueueTimeout     int                  `json:"enqueue_timeout_ms,omitempty" yaml:"enqueue_timeout_ms,omitempty"`
	DateFormat         string               `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	TimeFormat         string               `json:"time_format,omitempty" yaml:"time_format,omitempty"`
	ScrollerText       string               `json:"scroller_text,omitempty" yaml:"scroller_text,omitempty"`
	IgnoreLostContact  bool                 `json:"ignore_lost_contact,omitempty" yaml:"ignore_lost_contact,omitempty"`
	MonthToDateRain    bool                 `json:"mtd_rain,omitempty" yaml:"mtd_rain,omitempty"`
	YearToDateRain     bool                 `json:"ytd_rain,omitempty" yaml:"ytd_rain,omitempty"`
	Station            StationData          `json:"station" yaml:"station"`
	Groups             map[string]string    `json:"groups,omitempty" yaml:"groups,omitempty"`
	StringFormats      map[string]string    `json:"string_formats,omitempty" yaml:"string_formats,omitempty"`
	FieldMap           map[string]FieldData `json:"field_map,omitempty" yaml:"field_map,omitempty"`
	FieldMapExtensions map[string]FieldData `json:"field_map_extensions,omitempty" yaml:"field_map_extensions,omitempty"`
}

// StationData describes the station feeding the generator
type StationData struct {
	Type      string  `json:"type,omitempty" yaml:"type,omitempty"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Altitude  float64 `json:"altitude" yaml:"altitude"` // meters
}

// FieldData is one output field as written in the configuration file.
// AggregatePeriod is "day" or a number of seconds. Default is
// "value[,unit[,group]]".
type FieldData struct {
	Source          string `json:"source" yaml:"source"`
	Aggregate       string `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	AggregatePeriod string `json:"aggregate_period,omitempty" yaml:"aggregate_period,omitempty"`
	GracePeriod     string `json:"grace_period,omitempty" yaml:"grace_period,omitempty"`
	Group           string `json:"group,omitempty" yaml:"group,omitempty"`
	Format          string `json:"format,omitempty" yaml:"format,omitempty"`
	Default         string `json:"default,omitempty" yaml:"default,omitempty"`
}

// HistoryData selects the historical store. Exactly one of SQLitePath and
// TimescaleDB must be set.
type HistoryData struct {
	SQLitePath  string           `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
	StationName      string `json:"station_name,omitempty" yaml:"station_name,omitempty"`
}

type MQTTData struct {
	Broker   string `json:"broker" yaml:"broker"`
	Topic    string `json:"topic" yaml:"topic"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	QoS      byte   `json:"qos,omitempty" yaml:"qos,omitempty"`
}

type HTTPPostData struct {
	URL     string `json:"url" yaml:"url"`
	Timeout int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
}
