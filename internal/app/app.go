package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/managers"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	store, err := managers.NewHistoryStore(ctx, cfgData.History)
	if err != nil {
		return err
	}
	defer store.Close()

	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, store, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	wsm, err := managers.NewWeatherStationManager(ctx, &wg, a.configProvider, cm.Sink(), a.logger)
	if err != nil {
		return err
	}
	if err := wsm.StartWeatherStations(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Stop the sources first so the worker sees every packet already
	// accepted before its stop sentinel.
	wsm.StopWeatherStations()
	cm.Shutdown()
	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
