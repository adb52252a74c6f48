package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/gaugedata/internal/units"
)

// AggregateOp names an aggregation applied to an observation.
type AggregateOp string

const (
	OpNone    AggregateOp = ""
	OpMin     AggregateOp = "min"
	OpMax     AggregateOp = "max"
	OpMinTime AggregateOp = "mintime"
	OpMaxTime AggregateOp = "maxtime"
	OpSum     AggregateOp = "sum"
	OpVecDir  AggregateOp = "vecdir"
	OpMaxDir  AggregateOp = "maxdir"
	OpTrend   AggregateOp = "trend"

	OpLast     AggregateOp = "last"
	OpLastTime AggregateOp = "lasttime"
	OpCount    AggregateOp = "count"
	OpVecAvg   AggregateOp = "vecavg"
)

// ParseAggregateOp validates an aggregate name.
func ParseAggregateOp(s string) (AggregateOp, error) {
	op := AggregateOp(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpNone, OpMin, OpMax, OpMinTime, OpMaxTime, OpSum, OpVecDir, OpMaxDir, OpTrend,
		OpLast, OpLastTime, OpCount, OpVecAvg:
		return op, nil
	}
	return "", fmt.Errorf("unknown aggregate %q", s)
}

// IsTime reports whether the aggregate yields a timestamp rather than a value.
func (op AggregateOp) IsTime() bool {
	return op == OpMinTime || op == OpMaxTime || op == OpLastTime
}

// HasPeriod reports whether the aggregate is taken over a window. last and
// lasttime read the latest value and ignore any period.
func (op AggregateOp) HasPeriod() bool {
	return op != OpNone && op != OpLast && op != OpLastTime
}

// IsDirection reports whether the aggregate yields a compass direction.
func (op AggregateOp) IsDirection() bool {
	return op == OpVecDir || op == OpMaxDir
}

// AggregateValue is the result of an aggregate query: the value, in the
// unit it is stored in, and the time it occurred (for min/max) or the end of
// the window.
type AggregateValue struct {
	Value units.ValueTuple
	Time  time.Time
}

// WindSample is one historical wind reading. Speeds are in SpeedUnit.
type WindSample struct {
	Time          time.Time
	SpeedUnit     units.Unit
	Speed         *float64
	Direction     *float64
	Gust          *float64
	GustDirection *float64
}
