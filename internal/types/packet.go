// Package types holds the data types passed between the host delivery
// adapters, the history stores and the gauge data worker.
package types

import (
	"time"

	"github.com/chrissnell/gaugedata/internal/units"
)

// PacketKind distinguishes loop packets from archive records.
type PacketKind int

const (
	// Loop is a near-instantaneous sensor reading.
	Loop PacketKind = iota
	// Archive is a periodic aggregated record persisted to history.
	Archive
)

func (k PacketKind) String() string {
	if k == Archive {
		return "archive"
	}
	return "loop"
}

// Packet is a timestamped set of observations, each carrying its own unit
// and unit group. Packets are treated as immutable once delivered.
type Packet struct {
	Kind         PacketKind
	Timestamp    time.Time
	Observations map[string]units.ValueTuple
}

// NewPacket returns an empty packet of the given kind.
func NewPacket(kind PacketKind, ts time.Time) Packet {
	return Packet{
		Kind:         kind,
		Timestamp:    ts,
		Observations: make(map[string]units.ValueTuple),
	}
}

// Get returns the observation obs. The boolean is false when the packet
// does not carry obs at all; a carried observation may still be None.
func (p Packet) Get(obs string) (units.ValueTuple, bool) {
	vt, ok := p.Observations[obs]
	return vt, ok
}

// Value returns the numeric value of obs and whether it is present and
// not None.
func (p Packet) Value(obs string) (float64, bool) {
	vt, ok := p.Observations[obs]
	if !ok || vt.IsNone() {
		return 0, false
	}
	return *vt.Value, true
}

// Set stores an observation. It is only used while a packet is being built.
func (p Packet) Set(obs string, vt units.ValueTuple) {
	p.Observations[obs] = vt
}

// FromSystem builds a packet from raw values stored in a single unit
// system, as delivered by weewx-style sources. Observations without a known
// unit group are skipped and returned in the second value.
func FromSystem(kind PacketKind, ts time.Time, system units.System, values map[string]*float64) (Packet, []string) {
	p := NewPacket(kind, ts)
	var skipped []string
	for obs, v := range values {
		vt, err := units.ObservationTuple(system, obs, v)
		if err != nil {
			skipped = append(skipped, obs)
			continue
		}
		p.Observations[obs] = vt
	}
	return p, skipped
}
