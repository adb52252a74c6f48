package weatherstations

import (
	"strings"

	"github.com/chrissnell/gaugedata/internal/log"
	"github.com/chrissnell/gaugedata/internal/types"
)

// ContactReporter is implemented by stations that can tell when they have
// lost contact with their remote sensors.
type ContactReporter interface {
	// Capabilities says which packet kinds carry the contact state.
	Capabilities() Capabilities
	// IsContactLost reads the contact state from a packet.
	IsContactLost(p types.Packet) bool
}

// vantage flags lost contact when the console received no packets from the
// ISS during the archive interval.
type vantage struct{}

func (vantage) Capabilities() Capabilities { return Capabilities(ArchiveContact) }

func (vantage) IsContactLost(p types.Packet) bool {
	v, ok := p.Value("rxCheckPercent")
	if !ok {
		log.Debug("rxCheckPercent missing, cannot determine sensor contact state")
		return true
	}
	return v == 0
}

// fineOffsetUSB sets bit 6 of the loop status byte on lost contact.
type fineOffsetUSB struct{}

func (fineOffsetUSB) Capabilities() Capabilities { return Capabilities(LoopContact) }

func (fineOffsetUSB) IsContactLost(p types.Packet) bool {
	v, ok := p.Value("status")
	if !ok {
		log.Debug("status missing, cannot determine sensor contact state")
		return true
	}
	return int(v)&0x40 != 0
}

// ContactReporterFor returns the reporter for a station type, or nil when
// the station cannot report lost contact. Nil means always connected.
func ContactReporterFor(stationType string) ContactReporter {
	switch strings.ToLower(strings.TrimSpace(stationType)) {
	case "vantage":
		return vantage{}
	case "fineoffsetusb":
		return fineOffsetUSB{}
	default:
		return nil
	}
}

// ContactLost evaluates r against a packet. The second result is false
// when the packet kind does not carry the station's contact state, in which
// case the previous state stands. A nil reporter is always connected.
func ContactLost(r ContactReporter, p types.Packet) (lost bool, reported bool) {
	if r == nil {
		return false, true
	}
	want := LoopContact
	if p.Kind == types.Archive {
		want = ArchiveContact
	}
	if !r.Capabilities().Has(want) {
		return false, false
	}
	return r.IsContactLost(p), true
}
