package trend

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

// archive is a lookup over a fixed set of records.
type archive struct {
	records []types.Packet
	err     error
}

func (a *archive) RecordNear(_ context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error) {
	if a.err != nil {
		return nil, a.err
	}
	var best *types.Packet
	var bestDist time.Duration
	for i := range a.records {
		d := a.records[i].Timestamp.Sub(ts)
		if d < 0 {
			d = -d
		}
		if d > grace {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = &a.records[i], d
		}
	}
	return best, nil
}

func record(ts time.Time, obs string, vt units.ValueTuple) types.Packet {
	p := types.NewPacket(types.Archive, ts)
	p.Set(obs, vt)
	return p
}

func degC(v float64) units.ValueTuple { return units.New(v, units.DegreeC, units.GroupTemperature) }
func degF(v float64) units.ValueTuple { return units.New(v, units.DegreeF, units.GroupTemperature) }

func TestCalc(t *testing.T) {
	now := time.Unix(1700003600, 0)
	then := now.Add(-time.Hour)
	const lookback, grace = time.Hour, 300 * time.Second

	tests := []struct {
		name     string
		records  []types.Packet
		current  units.ValueTuple
		target   units.Unit
		expected *float64
	}{
		{"same units", []types.Packet{record(then, "outTemp", degC(21.4))}, degC(23.5), units.DegreeC, fp(2.1)},
		{"history in F", []types.Packet{record(then, "outTemp", degF(79.4))}, degC(23.5), units.DegreeC, fp(-2.8333)},
		{"target F", []types.Packet{record(then, "outTemp", degF(79.4))}, degC(23.5), units.DegreeF, fp(-5.1)},
		{"within grace", []types.Packet{record(then.Add(299*time.Second), "outTemp", degC(21.4))}, degC(23.5), units.DegreeC, fp(2.1)},
		{"outside grace", []types.Packet{record(then.Add(301*time.Second), "outTemp", degC(21.4))}, degC(23.5), units.DegreeC, nil},
		{"current None", []types.Packet{record(then, "outTemp", degC(21.4))}, units.None(units.DegreeC, units.GroupTemperature), units.DegreeC, nil},
		{"no history", nil, degC(23.5), units.DegreeC, nil},
		{"record lacks obs", []types.Packet{record(then, "inTemp", degC(21.4))}, degC(23.5), units.DegreeC, nil},
		{"record value None", []types.Packet{record(then, "outTemp", units.None(units.DegreeC, units.GroupTemperature))}, degC(23.5), units.DegreeC, nil},
		{"no change is zero", []types.Packet{record(then, "outTemp", degC(23.5))}, degC(23.5), units.DegreeC, fp(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&archive{records: tt.records})
			got, err := c.Calc(context.Background(), "outTemp", tt.current, now, tt.target, lookback, grace)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expected == nil {
				if got != nil {
					t.Errorf("expected no trend, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a trend, got None")
			}
			if math.Abs(*got-*tt.expected) > 1e-4 {
				t.Errorf("Calc() = %.5f, want %.4f", *got, *tt.expected)
			}
		})
	}
}

func TestCalcErrors(t *testing.T) {
	c := New(&archive{err: errors.New("no such table: archive")})
	if _, err := c.Calc(context.Background(), "outTemp", degC(20), time.Now(), units.DegreeC, time.Hour, time.Minute); err == nil {
		t.Error("expected history error")
	}

	now := time.Unix(1700003600, 0)
	c = New(&archive{records: []types.Packet{record(now.Add(-time.Hour), "outTemp", degC(20))}})
	_, err := c.Calc(context.Background(), "outTemp", degC(21), now, units.HPa, time.Hour, time.Minute)
	if !errors.Is(err, units.ErrIncompatibleUnits) {
		t.Errorf("expected ErrIncompatibleUnits, got %v", err)
	}
}

func fp(v float64) *float64 { return &v }
