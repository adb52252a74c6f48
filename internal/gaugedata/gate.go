package gaugedata

import "time"

// RateGate decides which packets trigger a publish. A packet publishes when
// MinInterval has passed since the last publish or when it is the
// EveryNth packet since then, whichever comes first. With both disabled
// every packet publishes. The first packet always publishes.
type RateGate struct {
	minInterval time.Duration
	everyNth    int

	last    time.Time
	count   int
	started bool
}

// NewRateGate returns a gate. Zero disables either condition.
func NewRateGate(minInterval time.Duration, everyNth int) *RateGate {
	return &RateGate{minInterval: minInterval, everyNth: everyNth}
}

// ShouldPublish counts one packet arriving at now and reports whether it
// is a publish tick. Both counters restart on publish.
func (g *RateGate) ShouldPublish(now time.Time) bool {
	g.count++

	publish := false
	switch {
	case !g.started:
		publish = true
	case g.minInterval <= 0 && g.everyNth <= 0:
		publish = true
	case g.everyNth > 0 && g.count >= g.everyNth:
		publish = true
	case g.minInterval > 0 && now.Sub(g.last) >= g.minInterval:
		publish = true
	}

	if publish {
		g.started = true
		g.last = now
		g.count = 0
	}
	return publish
}
