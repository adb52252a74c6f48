// Package gaugedata is the host integration point of the gauge data
// generator. It queues the packets handed to it and owns the worker that
// turns them into gauge-data.txt.
package gaugedata

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/controllers"
	"github.com/chrissnell/gaugedata/internal/derived"
	"github.com/chrissnell/gaugedata/internal/fieldmap"
	gd "github.com/chrissnell/gaugedata/internal/gaugedata"
	"github.com/chrissnell/gaugedata/internal/history"
	"github.com/chrissnell/gaugedata/internal/interfaces"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/weatherstations"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// joinTimeout bounds how long Shutdown waits for the worker to exit.
const joinTimeout = 15 * time.Second

// Controller receives packets from the host and feeds the worker.
type Controller struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	queue  *gd.Queue
	worker *gd.Worker
	logger *zap.SugaredLogger

	done        chan struct{}
	joinTimeout time.Duration
	started     atomic.Bool
	stopOnce    sync.Once
}

var _ interfaces.PacketSink = (*Controller)(nil)

// NewController validates the gauge data configuration and builds the
// worker. Configuration errors are returned here and nowhere else.
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, store history.Store, logger *zap.SugaredLogger) (*Controller, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %v", err)
	}
	gc := cfgData.GaugeData

	opts, err := workerOptions(cfgData, logger)
	if err != nil {
		return nil, err
	}

	queue := gd.NewQueue(gc.QueueSize, time.Duration(gc.EnqueueTimeout)*time.Millisecond, logger)
	worker, err := gd.NewWorker(store, queue, opts, logger)
	if err != nil {
		return nil, err
	}

	return &Controller{
		ctx:         ctx,
		wg:          wg,
		queue:       queue,
		worker:      worker,
		logger:      logger,
		done:        make(chan struct{}),
		joinTimeout: joinTimeout,
	}, nil
}

// workerOptions compiles the configuration into worker options.
func workerOptions(cfgData *config.ConfigData, logger *zap.SugaredLogger) (gd.Options, error) {
	gc := cfgData.GaugeData

	groups, err := fieldmap.CompileGroupMap(gc.Groups)
	if err != nil {
		return gd.Options{}, err
	}
	formats, err := fieldmap.CompileFormatMap(gc.StringFormats)
	if err != nil {
		return gd.Options{}, err
	}

	// A configured field map replaces the default one; extensions are
	// merged on top of whichever is in use.
	base := fieldmap.DefaultFieldMap
	if len(gc.FieldMap) > 0 {
		base = gc.FieldMap
	}
	fields, err := fieldmap.Compile(base, groups, formats, time.Duration(gc.GracePeriod)*time.Second, gc.FieldMapExtensions)
	if err != nil {
		return gd.Options{}, err
	}

	opts := gd.Options{
		Path:            filepath.Join(gc.Path, gc.FileName),
		Fields:          fields,
		Groups:          groups,
		Formats:         formats,
		MinInterval:     time.Duration(gc.MinInterval) * time.Second,
		EveryNthPacket:  gc.EveryNthPacket,
		WindrosePoints:  gc.WindrosePoints,
		WindrosePeriod:  time.Duration(gc.WindrosePeriod) * time.Second,
		MaxCacheAge:     time.Duration(gc.MaxCacheAge) * time.Second,
		DateFormat:      gc.DateFormat,
		TimeFormat:      gc.TimeFormat,
		ScrollerText:    gc.ScrollerText,
		MonthToDateRain: gc.MonthToDateRain,
		YearToDateRain:  gc.YearToDateRain,
	}

	st := gc.Station
	if st.Latitude != 0 || st.Longitude != 0 {
		opts.Station = &derived.Station{Latitude: st.Latitude, Longitude: st.Longitude, Altitude: st.Altitude}
	}

	if gc.IgnoreLostContact {
		logger.Info("ignoring sensor contact state")
	} else if r := weatherstations.ContactReporterFor(st.Type); r != nil {
		logger.Infof("station type %s reports lost contact via %v", st.Type, r.Capabilities())
		opts.Contact = r
	}

	if hp := cfgData.HTTPPost; hp != nil {
		client := controllers.NewHTTPClient(time.Duration(hp.Timeout) * time.Second)
		opts.Exporters = append(opts.Exporters, gd.NewHTTPPostExporter(hp.URL, client, logger))
	}
	return opts, nil
}

// StartController starts the worker.
func (c *Controller) StartController() error {
	c.logger.Infof("Starting gauge data controller, writing %s...", c.worker.Path())
	c.started.Store(true)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.done)
		c.worker.Run(c.ctx)
	}()

	go func() {
		<-c.ctx.Done()
		c.Shutdown()
	}()
	return nil
}

// NewLoopPacket queues a loop packet. It returns gaugedata.ErrQueueFull
// when the worker falls behind and gaugedata.ErrStopped after Shutdown.
func (c *Controller) NewLoopPacket(p types.Packet) error {
	if p.Kind != types.Loop {
		return fmt.Errorf("expected a loop packet, got %s", p.Kind)
	}
	return c.queue.Put(p)
}

// NewArchiveRecord queues an archive record.
func (c *Controller) NewArchiveRecord(rec types.Packet) error {
	if rec.Kind != types.Archive {
		return fmt.Errorf("expected an archive record, got %s", rec.Kind)
	}
	return c.queue.Put(rec)
}

// Worker returns the worker for status and snapshot queries.
func (c *Controller) Worker() *gd.Worker {
	return c.worker
}

// Shutdown stops the worker after the packets already queued and waits a
// bounded time for it to exit. It is safe to call more than once.
func (c *Controller) Shutdown() {
	c.stopOnce.Do(func() {
		c.logger.Info("shutting down gauge data controller...")
		if err := c.queue.Stop(c.joinTimeout); err != nil {
			c.logger.Errorf("could not queue shutdown for gauge data worker: %v", err)
		}
		if !c.started.Load() {
			return
		}

		timer := time.NewTimer(c.joinTimeout)
		defer timer.Stop()
		select {
		case <-c.done:
			c.logger.Info("gauge data worker stopped")
		case <-timer.C:
			c.logger.Errorf("gauge data worker %s did not stop within %v", c.worker.ID(), c.joinTimeout)
		}
	})
}
