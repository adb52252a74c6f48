// Package trend computes the change of an observation over a lookback
// period, using the historical store for the starting value.
package trend

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// Lookup finds the historical record nearest a timestamp.
type Lookup interface {
	RecordNear(ctx context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error)
}

// Calculator computes trends. It keeps no state between calls; every call
// re-derives the starting value from history.
type Calculator struct {
	lookup Lookup
}

// New returns a Calculator reading from lookup.
func New(lookup Lookup) *Calculator {
	return &Calculator{lookup: lookup}
}

// Calc returns now minus the value of obs lookback before at, in target
// units. The historical record must lie within ±grace of at-lookback.
// A nil result means there is no trend: the current value is None, no
// record was found, or the record lacks obs.
func (c *Calculator) Calc(ctx context.Context, obs string, now units.ValueTuple, at time.Time, target units.Unit, lookback, grace time.Duration) (*float64, error) {
	if now.IsNone() {
		return nil, nil
	}

	then, err := c.lookup.RecordNear(ctx, obs, at.Add(-lookback), grace)
	if err != nil {
		return nil, fmt.Errorf("trend of %s: %w", obs, err)
	}
	if then == nil {
		return nil, nil
	}
	thenVT, ok := then.Get(obs)
	if !ok || thenVT.IsNone() {
		return nil, nil
	}

	n, err := units.Convert(*now.Value, now.Unit, target)
	if err != nil {
		return nil, fmt.Errorf("trend of %s: %w", obs, err)
	}
	t, err := units.Convert(*thenVT.Value, thenVT.Unit, target)
	if err != nil {
		return nil, fmt.Errorf("trend of %s: %w", obs, err)
	}

	delta := n - t
	return &delta, nil
}
