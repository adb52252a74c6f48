// Package gaugedata turns the stream of loop packets into gauge-data.txt,
// the file read by the SteelSeries gauges.
package gaugedata

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/aggregate"
	"github.com/chrissnell/gaugedata/internal/derived"
	"github.com/chrissnell/gaugedata/internal/fieldmap"
	"github.com/chrissnell/gaugedata/internal/history"
	"github.com/chrissnell/gaugedata/internal/trend"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/internal/weatherstations"
	"github.com/chrissnell/gaugedata/internal/windrose"
)

// pollInterval bounds how long the worker blocks on the queue between
// checks of its context.
const pollInterval = time.Second

// State is the worker's position in its processing loop.
type State int32

const (
	Idle State = iota
	Draining
	Computing
	Publishing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	case Computing:
		return "computing"
	case Publishing:
		return "publishing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures a Worker.
type Options struct {
	// Path is the full path of gauge-data.txt.
	Path    string
	Fields  []fieldmap.FieldSpec
	Groups  fieldmap.GroupMap
	Formats fieldmap.FormatMap

	MinInterval    time.Duration
	EveryNthPacket int

	WindrosePoints int
	WindrosePeriod time.Duration
	MaxCacheAge    time.Duration

	DateFormat   string
	TimeFormat   string
	ScrollerText string

	MonthToDateRain bool
	YearToDateRain  bool

	// Station enables derived cloud base and clear-sky radiation.
	Station *derived.Station
	// Contact reads the station's sensor contact state. Nil means always
	// connected.
	Contact   weatherstations.ContactReporter
	Exporters []Exporter
	// Location is used for local dates and day boundaries. Nil means
	// time.Local.
	Location *time.Location
}

// Status describes a worker for health checks.
type Status struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	LastPublish time.Time `json:"last_publish"`
	Publishes   uint64    `json:"publishes"`
	QueueLength int       `json:"queue_length"`
	Dropped     uint64    `json:"dropped"`
}

// published is the most recent snapshot written.
type published struct {
	data     []byte
	snapshot Snapshot
	at       time.Time
}

// Worker owns all per-stream state: the windrose, the loop packet cache,
// recent wind and today's loop extremes. Only the goroutine running Run
// touches it; Status and Latest are safe to call from elsewhere.
type Worker struct {
	id     string
	opts   Options
	loc    *time.Location
	logger *zap.SugaredLogger

	store     history.Store
	queue     *Queue
	gate      *RateGate
	resolver  *aggregate.Resolver
	trends    *trend.Calculator
	rose      *windrose.Accumulator
	cache     *PacketCache
	wind      *windBuffer
	day       *dayStats
	publisher *Publisher

	contactLost bool
	pressLow    *types.AggregateValue
	pressHigh   *types.AggregateValue
	lastRain    *time.Time

	state     atomic.Int32
	latest    atomic.Pointer[published]
	publishes atomic.Uint64
}

// NewWorker returns a worker reading packets from queue.
func NewWorker(store history.Store, queue *Queue, opts Options, logger *zap.SugaredLogger) (*Worker, error) {
	if opts.Path == "" {
		return nil, errors.New("gauge data worker needs an output path")
	}
	rose, err := windrose.New(opts.WindrosePoints, opts.WindrosePeriod, opts.Groups[units.GroupSpeed])
	if err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	w := &Worker{
		id:        uuid.NewString(),
		opts:      opts,
		loc:       loc,
		logger:    logger,
		store:     store,
		queue:     queue,
		gate:      NewRateGate(opts.MinInterval, opts.EveryNthPacket),
		resolver:  aggregate.New(store),
		trends:    trend.New(store),
		rose:      rose,
		cache:     NewPacketCache(),
		wind:      newWindBuffer(loopRetention),
		day:       newDayStats(),
		publisher: NewPublisher(opts.Path),
	}
	return w, nil
}

// ID identifies this worker instance in logs and health checks.
func (w *Worker) ID() string {
	return w.id
}

// State returns the worker's current state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Status reports the worker's state and publish history.
func (w *Worker) Status() Status {
	st := Status{
		ID:          w.id,
		State:       w.State().String(),
		Publishes:   w.publishes.Load(),
		QueueLength: w.queue.Len(),
		Dropped:     w.queue.Dropped(),
	}
	if p := w.latest.Load(); p != nil {
		st.LastPublish = p.at
	}
	return st
}

// Latest returns the last published snapshot and its encoding.
func (w *Worker) Latest() (Snapshot, []byte, bool) {
	p := w.latest.Load()
	if p == nil {
		return nil, nil, false
	}
	return p.snapshot, p.data, true
}

// Path returns the file the worker publishes to.
func (w *Worker) Path() string {
	return w.publisher.Path()
}

// Run processes packets until it takes the stop sentinel off the queue or
// ctx is done.
func (w *Worker) Run(ctx context.Context) {
	defer w.setState(Stopped)

	w.logger.Infof("gauge data worker %s starting, writing %s", w.id, w.publisher.Path())
	w.prime(ctx, time.Now())

	for {
		w.setState(Idle)
		if ctx.Err() != nil {
			w.logger.Infof("gauge data worker %s cancelled", w.id)
			return
		}

		m, ok := w.queue.get(pollInterval)
		if !ok {
			continue
		}
		if m.stop {
			w.logger.Infof("gauge data worker %s stopping", w.id)
			return
		}
		w.handle(ctx, m.packet)
	}
}

// prime loads the state that comes from history rather than from packets.
func (w *Worker) prime(ctx context.Context, now time.Time) {
	samples, err := w.store.WindSeries(ctx, now.Add(-w.opts.WindrosePeriod), now)
	if err != nil {
		w.logger.Warnf("could not seed windrose from history: %v", err)
	} else if err := w.rose.Seed(samples); err != nil {
		w.logger.Warnf("could not seed windrose from history: %v", err)
	} else {
		w.logger.Debugf("windrose seeded with %d archive records", len(samples))
	}
	w.refreshArchiveStats(ctx)
}

func (w *Worker) refreshArchiveStats(ctx context.Context) {
	low, high, err := w.store.AllTimeRange(ctx, "barometer")
	if err != nil {
		w.logger.Warnf("could not query barometer range: %v", err)
	} else {
		w.pressLow, w.pressHigh = low, high
	}

	last, err := w.store.LastRain(ctx)
	if err != nil {
		w.logger.Warnf("could not query last rain: %v", err)
	} else if last != nil {
		w.lastRain = last
	}
}

func (w *Worker) handle(ctx context.Context, p types.Packet) {
	p.Timestamp = p.Timestamp.In(w.loc)
	if p.Kind == types.Archive {
		w.handleArchive(ctx, p)
		return
	}

	start := time.Now()
	w.setState(Draining)
	p = derived.Fill(p, w.opts.Station)
	w.cache.Update(p)
	w.wind.add(p)
	w.day.add(p)
	w.addToWindrose(p)

	if !w.gate.ShouldPublish(p.Timestamp) {
		w.logger.Debugf("packet (%d) skipped", p.Timestamp.Unix())
		return
	}

	if w.queue.Stopped() {
		w.logger.Debugf("skipping gauge data (%d), worker is stopping", p.Timestamp.Unix())
		return
	}

	w.setState(Computing)
	cached := w.cache.Packet(p.Timestamp, w.opts.MaxCacheAge)
	if lost, ok := weatherstations.ContactLost(w.opts.Contact, cached); ok {
		w.contactLost = lost
	}
	snap := w.compute(ctx, cached)

	if w.queue.Stopped() {
		w.logger.Debugf("discarding gauge data (%d), worker is stopping", p.Timestamp.Unix())
		return
	}

	w.setState(Publishing)
	if err := w.publish(ctx, snap, p.Timestamp); err != nil {
		w.logger.Errorf("gauge data (%d) not published: %v", p.Timestamp.Unix(), err)
		return
	}
	w.logger.Debugf("gauge data (%d) generated in %v", p.Timestamp.Unix(), time.Since(start))
}

func (w *Worker) handleArchive(ctx context.Context, rec types.Packet) {
	w.logger.Debugf("received archive record (%d)", rec.Timestamp.Unix())
	if lost, ok := weatherstations.ContactLost(w.opts.Contact, rec); ok {
		w.contactLost = lost
	}
	w.refreshArchiveStats(ctx)
}

// addToWindrose feeds every loop packet to the windrose, including those
// without wind, so that expired sectors are reset on time.
func (w *Worker) addToWindrose(p types.Packet) {
	speed, ok := p.Get("windSpeed")
	if !ok {
		speed = units.None(units.KmPerHour, units.GroupSpeed)
	}
	if err := w.rose.Add(p.Timestamp, speed, optional(p, "windDir")); err != nil {
		w.logger.Warnf("windrose: %v", err)
	}
}

// compute builds the snapshot. Computed fields go in first so that a
// field map entry of the same name replaces them.
func (w *Worker) compute(ctx context.Context, p types.Packet) Snapshot {
	snap := make(Snapshot, len(w.opts.Fields)+32)
	w.computed(ctx, p, snap)

	for _, f := range w.opts.Fields {
		v, err := w.resolve(ctx, f, p)
		if err != nil {
			w.logger.Warnf("%v, using default", err)
			v = w.formatDefault(f)
		}
		snap[f.Name] = v
	}
	return snap
}

func (w *Worker) publish(ctx context.Context, snap Snapshot, at time.Time) error {
	data, err := snap.Encode()
	if err != nil {
		return errors.Join(ErrPublish, err)
	}
	if err := w.publisher.Write(data); err != nil {
		return err
	}

	w.latest.Store(&published{data: data, snapshot: snap, at: at})
	w.publishes.Add(1)

	for _, e := range w.opts.Exporters {
		if err := e.Export(ctx, data); err != nil {
			w.logger.Errorf("gauge data export failed: %v", err)
		}
	}
	return nil
}
