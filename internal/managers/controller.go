// Package managers builds and starts the application's components from
// the configuration.
package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/controllers/gaugedata"
	"github.com/chrissnell/gaugedata/internal/controllers/restserver"
	"github.com/chrissnell/gaugedata/internal/history"
	"github.com/chrissnell/gaugedata/internal/interfaces"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
	Sink() interfaces.PacketSink
	Shutdown()
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates the gauge data controller and, when
// configured, the REST server reading from it.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store history.Store, logger *zap.SugaredLogger) (ControllerManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}

	gc, err := gaugedata.NewController(ctx, wg, configProvider, store, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating gauge data controller: %w", err)
	}

	cm := &controllerManager{
		logger:      logger,
		gauge:       gc,
		controllers: []Controller{gc},
	}

	if cfgData.REST != nil {
		rc, err := restserver.NewController(ctx, wg, *cfgData.REST, gc.Worker(), logger)
		if err != nil {
			return nil, fmt.Errorf("error creating REST server: %w", err)
		}
		cm.controllers = append(cm.controllers, rc)
	}

	return cm, nil
}

type controllerManager struct {
	logger      *zap.SugaredLogger
	gauge       *gaugedata.Controller
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// Sink returns the controller that accepts packets.
func (c *controllerManager) Sink() interfaces.PacketSink {
	return c.gauge
}

// Shutdown drains and stops the gauge data worker.
func (c *controllerManager) Shutdown() {
	c.gauge.Shutdown()
}
