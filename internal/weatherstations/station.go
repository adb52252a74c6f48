package weatherstations

// WeatherStation is a source of loop packets and archive records
type WeatherStation interface {
	StartWeatherStation() error
	StopWeatherStation() error
	StationName() string
}
