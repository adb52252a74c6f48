package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/interfaces"
	"github.com/chrissnell/gaugedata/internal/weatherstations"
	"github.com/chrissnell/gaugedata/internal/weatherstations/mqtt"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// NewWeatherStationManager creates a WeatherStationManager holding every
// configured packet source. Without one, packets only arrive through the
// controller API.
func NewWeatherStationManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sink interfaces.PacketSink, logger *zap.SugaredLogger) (interfaces.WeatherStationManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	wsm := &weatherStationManager{logger: logger}
	if cfgData.MQTT != nil {
		wsm.stations = append(wsm.stations, mqtt.NewStation(ctx, wg, *cfgData.MQTT, sink, logger))
	}
	if len(wsm.stations) == 0 {
		logger.Warn("no packet source configured")
	}
	return wsm, nil
}

type weatherStationManager struct {
	logger   *zap.SugaredLogger
	stations []weatherstations.WeatherStation
}

func (w *weatherStationManager) StartWeatherStations() error {
	for _, station := range w.stations {
		w.logger.Infof("Starting weather station [%v]...", station.StationName())
		if err := station.StartWeatherStation(); err != nil {
			return fmt.Errorf("failed to start weather station [%s]: %w", station.StationName(), err)
		}
	}
	return nil
}

// StopWeatherStations stops every station so that no more packets arrive.
func (w *weatherStationManager) StopWeatherStations() {
	for _, station := range w.stations {
		if err := station.StopWeatherStation(); err != nil {
			w.logger.Errorf("failed to stop weather station [%s]: %v", station.StationName(), err)
		}
	}
}
