package gaugedata

import (
	"testing"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

func TestPacketCache(t *testing.T) {
	c := NewPacketCache()
	base := time.Unix(1700000000, 0)

	p1 := types.NewPacket(types.Loop, base)
	p1.Set("outTemp", units.New(20, units.DegreeC, units.GroupTemperature))
	p1.Set("barometer", units.New(1013.2, units.HPa, units.GroupPressure))
	c.Update(p1)

	// A partial packet with a None temperature keeps the cached value.
	p2 := types.NewPacket(types.Loop, base.Add(5*time.Minute))
	p2.Set("outTemp", units.None(units.DegreeC, units.GroupTemperature))
	p2.Set("windSpeed", units.New(12, units.KmPerHour, units.GroupSpeed))
	c.Update(p2)

	got := c.Packet(base.Add(5*time.Minute), 10*time.Minute)
	if got.Kind != types.Loop || !got.Timestamp.Equal(base.Add(5*time.Minute)) {
		t.Errorf("cached packet header = %v %v", got.Kind, got.Timestamp)
	}
	for obs, want := range map[string]float64{"outTemp": 20, "barometer": 1013.2, "windSpeed": 12} {
		if v, ok := got.Value(obs); !ok || v != want {
			t.Errorf("%s = %v, %v; want %v", obs, v, ok, want)
		}
	}

	// Past max age values are kept as None so the field still exists.
	got = c.Packet(base.Add(12*time.Minute), 10*time.Minute)
	if vt, ok := got.Get("barometer"); !ok || !vt.IsNone() || vt.Unit != units.HPa {
		t.Errorf("stale barometer = %v, %v", vt, ok)
	}
	if _, ok := got.Value("windSpeed"); !ok {
		t.Error("windSpeed should still be fresh")
	}
}

func TestPacketCacheLastAndCount(t *testing.T) {
	c := NewPacketCache()
	base := time.Unix(1700000000, 0)
	temp := func(ts time.Time, v *float64) types.Packet {
		p := types.NewPacket(types.Loop, ts)
		if v == nil {
			p.Set("outTemp", units.None(units.DegreeC, units.GroupTemperature))
		} else {
			p.Set("outTemp", units.New(*v, units.DegreeC, units.GroupTemperature))
		}
		return p
	}

	if _, _, ok := c.Last("outTemp"); ok {
		t.Error("empty cache has a last value")
	}

	c.Update(temp(base, fp(18)))
	c.Update(temp(base.Add(time.Minute), fp(19)))
	c.Update(temp(base.Add(2*time.Minute), nil))
	c.Update(temp(base.Add(9*time.Minute), fp(21)))

	vt, ts, ok := c.Last("outTemp")
	if !ok || vt.Float() != 21 || !ts.Equal(base.Add(9*time.Minute)) {
		t.Errorf("Last = %v at %v, %v", vt, ts, ok)
	}

	now := base.Add(9 * time.Minute)
	tests := []struct {
		age      time.Duration
		expected int
	}{
		{time.Minute, 1},
		{8*time.Minute + 30*time.Second, 2},
		{10 * time.Minute, 3},
	}
	for _, tt := range tests {
		if got := c.Count("outTemp", now, tt.age); got != tt.expected {
			t.Errorf("Count(%v) = %d, want %d", tt.age, got, tt.expected)
		}
	}

	// Values older than the retention are forgotten.
	later := base.Add(12 * time.Minute)
	c.Update(temp(later, fp(22)))
	if got := c.Count("outTemp", later, 20*time.Minute); got != 2 {
		t.Errorf("Count after trim = %d, want 2", got)
	}
}
