// Package restserver serves the latest gauge data over HTTP.
package restserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/controllers"
	"github.com/chrissnell/gaugedata/internal/gaugedata"
	"github.com/chrissnell/gaugedata/pkg/config"
)

const shutdownTimeout = 5 * time.Second

// GaugeSource is the part of the gauge data worker the handlers read.
type GaugeSource interface {
	Latest() (gaugedata.Snapshot, []byte, bool)
	Status() gaugedata.Status
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, source GaugeSource, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		logger:     logger,
	}

	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
	}

	ctrl.handlers = NewHandlers(source, logger)
	ctrl.Server.Addr = controllers.ListenAddr(rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		c.Server.Shutdown(ctx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/gauge-data.txt", c.handlers.GetGaugeData).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/snapshot", c.handlers.GetSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/healthz", c.handlers.GetHealth).Methods(http.MethodGet)
	return router
}
