package sqlite

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
)

const createArchiveSQL = `
CREATE TABLE archive (
	dateTime INTEGER NOT NULL PRIMARY KEY,
	usUnits INTEGER NOT NULL,
	interval INTEGER NOT NULL,
	outTemp REAL,
	barometer REAL,
	rain REAL,
	windSpeed REAL,
	windDir REAL,
	windGust REAL,
	windGustDir REAL
)`

type row struct {
	ts        int64
	usUnits   units.System
	outTemp   interface{}
	barometer interface{}
	rain      interface{}
	windSpeed interface{}
	windDir   interface{}
}

func newTestStore(t *testing.T, rows []row) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "weewx.sdb")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(createArchiveSQL); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO archive (dateTime, usUnits, interval, outTemp, barometer, rain, windSpeed, windDir)
			VALUES (?, ?, 300, ?, ?, ?, ?, ?)`, r.ts, int(r.usUnits), r.outTemp, r.barometer, r.rain, r.windSpeed, r.windDir)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	s, err := New(context.Background(), path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const base = int64(1700000000)

func TestRecordNear(t *testing.T) {
	s := newTestStore(t, []row{
		{ts: base - 3600, usUnits: units.MetricWX, outTemp: 21.4},
		{ts: base - 3300, usUnits: units.US, outTemp: 70.0},
		{ts: base - 1800, usUnits: units.MetricWX, outTemp: nil},
	})
	ctx := context.Background()

	tests := []struct {
		name     string
		target   int64
		grace    time.Duration
		wantTS   int64
		wantUnit units.Unit
		wantNone bool
		wantNil  bool
	}{
		{"exact match", base - 3600, 300 * time.Second, base - 3600, units.DegreeC, false, false},
		{"nearest wins", base - 3400, 300 * time.Second, base - 3300, units.DegreeF, false, false},
		{"outside grace", base - 5000, 300 * time.Second, 0, "", false, true},
		{"null value present", base - 1800, 0, base - 1800, units.DegreeC, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := s.RecordNear(ctx, "outTemp", time.Unix(tt.target, 0), tt.grace)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if rec != nil {
					t.Fatalf("expected no record, got %+v", rec)
				}
				return
			}
			if rec == nil {
				t.Fatal("expected a record")
			}
			if rec.Timestamp.Unix() != tt.wantTS {
				t.Errorf("timestamp = %d, want %d", rec.Timestamp.Unix(), tt.wantTS)
			}
			vt, ok := rec.Get("outTemp")
			if !ok {
				t.Fatal("record lacks outTemp")
			}
			if vt.Unit != tt.wantUnit || vt.IsNone() != tt.wantNone {
				t.Errorf("unexpected tuple %v", vt)
			}
		})
	}

	rec, err := s.RecordNear(ctx, "soilTemp1", time.Unix(base-3600, 0), time.Minute)
	if err != nil || rec != nil {
		t.Errorf("expected nil record for unknown column, got %v, %v", rec, err)
	}
}

func TestAggregate(t *testing.T) {
	s := newTestStore(t, []row{
		{ts: base + 300, usUnits: units.MetricWX, outTemp: 10.0, rain: 1.0},
		{ts: base + 600, usUnits: units.MetricWX, outTemp: 4.5, rain: 0.5},
		{ts: base + 900, usUnits: units.MetricWX, outTemp: 15.2, rain: nil},
		{ts: base + 1200, usUnits: units.MetricWX, outTemp: 4.5, rain: 0.0},
		{ts: base + 1500, usUnits: units.US, outTemp: nil, rain: 0.1},
	})
	ctx := context.Background()
	start, end := time.Unix(base, 0), time.Unix(base+1500, 0)

	min, err := s.Aggregate(ctx, "outTemp", types.OpMin, start, end)
	if err != nil || min == nil {
		t.Fatalf("min: %v %v", min, err)
	}
	if min.Value.Float() != 4.5 || min.Time.Unix() != base+600 {
		t.Errorf("min = %v at %d", min.Value, min.Time.Unix())
	}

	max, err := s.Aggregate(ctx, "outTemp", types.OpMaxTime, start, end)
	if err != nil || max == nil {
		t.Fatalf("max: %v %v", max, err)
	}
	if max.Value.Float() != 15.2 || max.Time.Unix() != base+900 {
		t.Errorf("maxtime = %d", max.Time.Unix())
	}

	sum, err := s.Aggregate(ctx, "rain", types.OpSum, start, end)
	if err != nil || sum == nil {
		t.Fatalf("sum: %v %v", sum, err)
	}
	// 1.0 + 0.5 + 0.0 mm plus 0.1 inch (2.54 mm)
	if sum.Value.Unit != units.Mm || math.Abs(sum.Value.Float()-4.04) > 1e-9 {
		t.Errorf("sum = %v", sum.Value)
	}

	none, err := s.Aggregate(ctx, "outTemp", types.OpMin, time.Unix(base+5000, 0), time.Unix(base+6000, 0))
	if err != nil || none != nil {
		t.Errorf("expected no data, got %v, %v", none, err)
	}

	if _, err := s.Aggregate(ctx, "outTemp", types.OpVecDir, start, end); err == nil {
		t.Error("expected error for vecdir")
	}
}

func TestExtremeAcrossUnitSystems(t *testing.T) {
	s := newTestStore(t, []row{
		{ts: base + 300, usUnits: units.US, outTemp: 60.0, barometer: 29.50},
		{ts: base + 600, usUnits: units.MetricWX, outTemp: 20.0, barometer: 1005.0},
		{ts: base + 900, usUnits: units.MetricWX, outTemp: 17.0, barometer: 1013.0},
		{ts: base + 1200, usUnits: units.US, outTemp: 66.0, barometer: 30.20},
	})
	ctx := context.Background()
	start, end := time.Unix(base, 0), time.Unix(base+1200, 0)

	tests := []struct {
		name   string
		obs    string
		op     types.AggregateOp
		wantTS int64
		unit   units.Unit
		value  float64
	}{
		{"min temperature in F", "outTemp", types.OpMin, base + 300, units.DegreeF, 60.0},
		{"max temperature in C", "outTemp", types.OpMax, base + 600, units.DegreeC, 20.0},
		{"min pressure in inHg", "barometer", types.OpMinTime, base + 300, units.InHg, 29.50},
		{"max pressure in inHg", "barometer", types.OpMax, base + 1200, units.InHg, 30.20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := s.Aggregate(ctx, tt.obs, tt.op, start, end)
			if err != nil || av == nil {
				t.Fatalf("Aggregate: %v %v", av, err)
			}
			if av.Time.Unix() != tt.wantTS || av.Value.Unit != tt.unit || math.Abs(av.Value.Float()-tt.value) > 1e-9 {
				t.Errorf("got %v at %d, want %v %s at %d", av.Value, av.Time.Unix(), tt.value, tt.unit, tt.wantTS)
			}
		})
	}

	low, high, err := s.AllTimeRange(ctx, "barometer")
	if err != nil || low == nil || high == nil {
		t.Fatalf("AllTimeRange: %v %v %v", low, high, err)
	}
	if low.Time.Unix() != base+300 || high.Time.Unix() != base+1200 {
		t.Errorf("all-time range %d..%d", low.Time.Unix(), high.Time.Unix())
	}
}

func TestWindSeriesAndLastRain(t *testing.T) {
	s := newTestStore(t, []row{
		{ts: base + 60, usUnits: units.US, windSpeed: 10.0, windDir: 90.0, rain: 0.02},
		{ts: base + 120, usUnits: units.MetricWX, windSpeed: 3.0, windDir: nil, rain: 0.0},
		{ts: base + 180, usUnits: units.US, windSpeed: 0.0, windDir: 180.0},
	})
	ctx := context.Background()

	samples, err := s.WindSeries(ctx, time.Unix(base, 0), time.Unix(base+180, 0))
	if err != nil {
		t.Fatalf("WindSeries: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0].SpeedUnit != units.MilePerHr || *samples[0].Speed != 10 || *samples[0].Direction != 90 {
		t.Errorf("unexpected first sample %+v", samples[0])
	}
	if samples[1].SpeedUnit != units.MeterPerS || samples[1].Direction != nil {
		t.Errorf("unexpected second sample %+v", samples[1])
	}
	if samples[0].Gust != nil {
		t.Errorf("expected nil gust, got %v", *samples[0].Gust)
	}

	last, err := s.LastRain(ctx)
	if err != nil || last == nil {
		t.Fatalf("LastRain: %v %v", last, err)
	}
	if last.Unix() != base+60 {
		t.Errorf("LastRain = %d", last.Unix())
	}

	low, high, err := s.AllTimeRange(ctx, "windSpeed")
	if err != nil || low == nil || high == nil {
		t.Fatalf("AllTimeRange: %v %v %v", low, high, err)
	}
	if low.Value.Float() != 0 || high.Value.Float() != 10 {
		t.Errorf("range = %v..%v", low.Value, high.Value)
	}
}
