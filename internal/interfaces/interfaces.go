// Package interfaces defines common interface types used across the application.
package interfaces

import "github.com/chrissnell/gaugedata/internal/types"

// PacketSink receives packets from the weather stations. The gauge data
// controller is the only implementation.
type PacketSink interface {
	NewLoopPacket(p types.Packet) error
	NewArchiveRecord(rec types.Packet) error
}

// WeatherStationManager starts the configured packet sources
type WeatherStationManager interface {
	StartWeatherStations() error
	StopWeatherStations()
}
