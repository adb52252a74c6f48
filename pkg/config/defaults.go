package config

import (
	"errors"
	"fmt"
)

const (
	DefaultPath           = "/var/tmp"
	DefaultFileName       = "gauge-data.txt"
	DefaultWindrosePoints = 16
	DefaultWindrosePeriod = 86400
	DefaultMaxCacheAge    = 600
	DefaultGracePeriod    = 300
	DefaultQueueSize      = 32
	DefaultEnqueueTimeout = 250
	DefaultDateFormat     = "%Y/%m/%d"
	DefaultTimeFormat     = "%H:%M"
	DefaultHTTPTimeout    = 2
	DefaultRESTPort       = 8080
)

// ApplyDefaults fills unset settings with their default values
func (c *ConfigData) ApplyDefaults() {
	g := &c.GaugeData
	if g.Path == "" {
		g.Path = DefaultPath
	}
	if g.FileName == "" {
		g.FileName = DefaultFileName
	}
	if g.WindrosePoints == 0 {
		g.WindrosePoints = DefaultWindrosePoints
	}
	if g.WindrosePeriod == 0 {
		g.WindrosePeriod = DefaultWindrosePeriod
	}
	if g.MaxCacheAge == 0 {
		g.MaxCacheAge = DefaultMaxCacheAge
	}
	if g.GracePeriod == 0 {
		g.GracePeriod = DefaultGracePeriod
	}
	if g.QueueSize == 0 {
		g.QueueSize = DefaultQueueSize
	}
	if g.EnqueueTimeout == 0 {
		g.EnqueueTimeout = DefaultEnqueueTimeout
	}
	if g.DateFormat == "" {
		g.DateFormat = DefaultDateFormat
	}
	if g.TimeFormat == "" {
		g.TimeFormat = DefaultTimeFormat
	}

	if c.HTTPPost != nil && c.HTTPPost.Timeout == 0 {
		c.HTTPPost.Timeout = DefaultHTTPTimeout
	}
	if c.REST != nil && c.REST.Port == 0 {
		c.REST.Port = DefaultRESTPort
	}
}

// Validate checks the settings that do not depend on the unit taxonomy.
// Field maps, groups and formats are validated when they are compiled.
func (c *ConfigData) Validate() error {
	g := c.GaugeData
	if g.MinInterval < 0 || g.EveryNthPacket < 0 {
		return errors.New("gauge_data: min_interval and every_nth_packet must not be negative")
	}
	if g.WindrosePoints < 1 {
		return fmt.Errorf("gauge_data: windrose_points must be positive, got %d", g.WindrosePoints)
	}
	if g.WindrosePeriod < 1 || g.MaxCacheAge < 1 || g.GracePeriod < 0 {
		return errors.New("gauge_data: windrose_period, max_cache_age and grace_period must be positive")
	}
	if g.QueueSize < 1 {
		return fmt.Errorf("gauge_data: queue_size must be positive, got %d", g.QueueSize)
	}

	h := c.History
	switch {
	case h.SQLitePath == "" && h.TimescaleDB == nil:
		return errors.New("history: one of sqlite_path or timescaledb must be set")
	case h.SQLitePath != "" && h.TimescaleDB != nil:
		return errors.New("history: sqlite_path and timescaledb are mutually exclusive")
	case h.TimescaleDB != nil && h.TimescaleDB.ConnectionString == "":
		return errors.New("history: timescaledb.connection_string is required")
	}

	if c.MQTT != nil && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		return errors.New("mqtt: broker and topic are required")
	}
	if c.MQTT != nil && c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: invalid qos %d", c.MQTT.QoS)
	}
	if c.HTTPPost != nil && c.HTTPPost.URL == "" {
		return errors.New("http_post: url is required")
	}
	return nil
}
