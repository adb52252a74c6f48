package restserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/gaugedata"
	"github.com/chrissnell/gaugedata/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	source    GaugeSource
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
}

// NewHandlers creates a new handlers instance
func NewHandlers(source GaugeSource, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{
		source:    source,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}
}

func (h *Handlers) notYet(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Retry-After", "5")
	h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no gauge data has been published yet")
}

// GetGaugeData serves the published gauge-data.txt verbatim.
func (h *Handlers) GetGaugeData(w http.ResponseWriter, req *http.Request) {
	_, data, ok := h.source.Latest()
	if !ok {
		h.notYet(w, req)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if req.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		h.logger.Debugf("error writing gauge data: %v", err)
	}
}

// GetSnapshot returns the latest snapshot as JSON, or MessagePack with
// format=msgpack.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, req *http.Request) {
	_, data, ok := h.source.Latest()
	if !ok {
		h.notYet(w, req)
		return
	}
	status := h.source.Status()
	wrapper := &responseformat.JSONWrapper{LastUpdated: status.LastPublish.UTC().Format(time.RFC3339)}
	if err := h.formatter.WriteRawJSON(w, req, data, wrapper); err != nil {
		h.logger.Errorf("error writing snapshot: %v", err)
	}
}

// GetHealth reports the worker state. It answers 503 once the worker has
// stopped.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	status := h.source.Status()
	code := http.StatusOK
	if status.State == gaugedata.Stopped.String() {
		code = http.StatusServiceUnavailable
	}
	if err := h.formatter.WriteStatus(w, req, code, status); err != nil {
		h.logger.Errorf("error writing health status: %v", err)
	}
}
