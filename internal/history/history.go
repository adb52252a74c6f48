// Package history defines the historical query interface the gauge data
// worker uses to reach back into the host's archive.
package history

import (
	"context"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
)

// Store is a read-only view of archived weather records. All methods are
// synchronous and are only called from the gauge data worker.
//
// A nil result with a nil error means "no data".
type Store interface {
	// RecordNear returns the archive record holding obs whose timestamp is
	// nearest ts, accepting only records within ±grace of ts.
	RecordNear(ctx context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error)

	// Aggregate computes min, max, mintime, maxtime, sum or count of obs
	// over the half-open window (start, end].
	Aggregate(ctx context.Context, obs string, op types.AggregateOp, start, end time.Time) (*types.AggregateValue, error)

	// WindSeries returns wind readings in (start, end], oldest first.
	WindSeries(ctx context.Context, start, end time.Time) ([]types.WindSample, error)

	// AllTimeRange returns the lowest and highest value of obs ever archived.
	AllTimeRange(ctx context.Context, obs string) (low, high *types.AggregateValue, err error)

	// LastRain returns the time of the most recent archive record with
	// non-zero rain.
	LastRain(ctx context.Context) (*time.Time, error)

	Close() error
}
