// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

// GaugeDataVersion is the format version of the generated gauge-data file.
// The downstream gauges check it, so it must be bumped whenever the set of
// output fields changes.
const GaugeDataVersion = "14"
