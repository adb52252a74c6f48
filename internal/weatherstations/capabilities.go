// Package weatherstations describes what the gauge data worker knows about
// the station feeding the host: which packets carry its sensor contact
// state and how to read it.
package weatherstations

import "strings"

// Capability represents something a station reports.
// Capabilities use a bitmask to allow stations to have multiple capabilities.
type Capability uint8

const (
	// LoopContact means the station reports sensor contact in loop packets.
	LoopContact Capability = 1 << 0 // 0x01

	// ArchiveContact means the station reports sensor contact in archive
	// records.
	ArchiveContact Capability = 1 << 1 // 0x02
)

// String returns the human-readable name of a capability.
func (c Capability) String() string {
	switch c {
	case LoopContact:
		return "LoopContact"
	case ArchiveContact:
		return "ArchiveContact"
	default:
		return "Unknown"
	}
}

// Capabilities represents a set of capabilities using a bitmask.
type Capabilities uint8

// Has checks if a specific capability is present in the set.
func (c Capabilities) Has(cap Capability) bool {
	return (uint8(c) & uint8(cap)) != 0
}

// Add adds a capability to the set.
func (c *Capabilities) Add(cap Capability) {
	*c = Capabilities(uint8(*c) | uint8(cap))
}

// List returns all capabilities in the set as a slice.
func (c Capabilities) List() []Capability {
	var caps []Capability
	if c.Has(LoopContact) {
		caps = append(caps, LoopContact)
	}
	if c.Has(ArchiveContact) {
		caps = append(caps, ArchiveContact)
	}
	return caps
}

// String returns a comma-separated string of all capabilities in the set.
func (c Capabilities) String() string {
	caps := c.List()
	if len(caps) == 0 {
		return "None"
	}

	strs := make([]string, len(caps))
	for i, cap := range caps {
		strs[i] = cap.String()
	}
	return strings.Join(strs, ", ")
}

// IsEmpty returns true if no capabilities are set.
func (c Capabilities) IsEmpty() bool {
	return uint8(c) == 0
}
