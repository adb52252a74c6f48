package gaugedata

import (
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// cachedObs is the last non-None value seen for an observation.
type cachedObs struct {
	value units.ValueTuple
	ts    time.Time
}

// PacketCache remembers the last value of every observation so that
// stations emitting partial packets do not blank the gauges between
// packets. It also keeps the times of recent values for counts.
type PacketCache struct {
	obs    map[string]cachedObs
	seen   map[string][]time.Time
	retain time.Duration
}

// NewPacketCache returns an empty cache.
func NewPacketCache() *PacketCache {
	return &PacketCache{
		obs:    make(map[string]cachedObs),
		seen:   make(map[string][]time.Time),
		retain: loopRetention,
	}
}

// Update records every non-None observation of p.
func (c *PacketCache) Update(p types.Packet) {
	for name, vt := range p.Observations {
		if vt.IsNone() {
			continue
		}
		c.obs[name] = cachedObs{value: vt, ts: p.Timestamp}
		c.seen[name] = append(c.seen[name], p.Timestamp)
	}
	for name, ts := range c.seen {
		i := 0
		for i < len(ts) && p.Timestamp.Sub(ts[i]) > c.retain {
			i++
		}
		if i == len(ts) {
			delete(c.seen, name)
			continue
		}
		c.seen[name] = ts[i:]
	}
}

// Last returns the last value seen for obs and when it was seen,
// regardless of age.
func (c *PacketCache) Last(obs string) (units.ValueTuple, time.Time, bool) {
	o, ok := c.obs[obs]
	return o.value, o.ts, ok
}

// Count returns how many non-None values of obs arrived in (now-age, now].
func (c *PacketCache) Count(obs string, now time.Time, age time.Duration) int {
	start := now.Add(-age)
	n := 0
	for _, ts := range c.seen[obs] {
		if ts.After(start) && !ts.After(now) {
			n++
		}
	}
	return n
}

// Packet builds a loop packet at ts from the cache. Observations last seen
// more than maxAge before ts are present but None.
func (c *PacketCache) Packet(ts time.Time, maxAge time.Duration) types.Packet {
	p := types.NewPacket(types.Loop, ts)
	for name, o := range c.obs {
		if maxAge > 0 && ts.Sub(o.ts) > maxAge {
			p.Set(name, units.None(o.value.Unit, o.value.Group))
			continue
		}
		p.Set(name, o.value)
	}
	return p
}
