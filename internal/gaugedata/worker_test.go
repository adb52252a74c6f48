package gaugedata

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/fieldmap"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/internal/weatherstations"
	"github.com/chrissnell/gaugedata/pkg/config"
)

// fakeStore serves canned history. Only the worker goroutine calls it.
type fakeStore struct {
	near     map[string]types.Packet
	aggErr   map[string]error
	low      *types.AggregateValue
	high     *types.AggregateValue
	lastRain *time.Time
	queries  int
}

func (f *fakeStore) RecordNear(_ context.Context, obs string, ts time.Time, grace time.Duration) (*types.Packet, error) {
	f.queries++
	p, ok := f.near[obs]
	if !ok {
		return nil, nil
	}
	d := p.Timestamp.Sub(ts)
	if d < -grace || d > grace {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) Aggregate(_ context.Context, obs string, _ types.AggregateOp, _, _ time.Time) (*types.AggregateValue, error) {
	f.queries++
	return nil, f.aggErr[obs]
}

func (f *fakeStore) WindSeries(context.Context, time.Time, time.Time) ([]types.WindSample, error) {
	return nil, nil
}

func (f *fakeStore) AllTimeRange(context.Context, string) (*types.AggregateValue, *types.AggregateValue, error) {
	return f.low, f.high, nil
}

func (f *fakeStore) LastRain(context.Context) (*time.Time, error) {
	return f.lastRain, nil
}

func (f *fakeStore) Close() error { return nil }

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testOptions(t *testing.T, overrides ...map[string]config.FieldData) Options {
	t.Helper()
	gm, err := fieldmap.CompileGroupMap(nil)
	if err != nil {
		t.Fatal(err)
	}
	fm, err := fieldmap.CompileFormatMap(nil)
	if err != nil {
		t.Fatal(err)
	}
	fields, err := fieldmap.Compile(fieldmap.DefaultFieldMap, gm, fm, config.DefaultGracePeriod*time.Second, overrides...)
	if err != nil {
		t.Fatal(err)
	}
	return Options{
		Path:           filepath.Join(t.TempDir(), "gauge-data.txt"),
		Fields:         fields,
		Groups:         gm,
		Formats:        fm,
		WindrosePoints: 16,
		WindrosePeriod: 24 * time.Hour,
		MaxCacheAge:    10 * time.Minute,
		DateFormat:     "%Y/%m/%d",
		TimeFormat:     "%H:%M",
		ScrollerText:   "Updated %H:%M",
		Location:       time.UTC,
	}
}

func newTestWorker(t *testing.T, store *fakeStore, opts Options) (*Worker, *Queue) {
	t.Helper()
	q := NewQueue(32, time.Second, zap.NewNop().Sugar())
	w, err := NewWorker(store, q, opts, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w, q
}

// metricPacket builds a METRIC loop packet: °C, km/h.
func metricPacket(ts time.Time, values map[string]*float64) types.Packet {
	p, _ := types.FromSystem(types.Loop, ts, units.Metric, values)
	return p
}

var tenPackets = []struct {
	speed float64
	dir   *float64
}{
	{10, fp(0)},
	{5, fp(22.5)},
	{8, fp(350)},
	{0, fp(90)},
	{12, nil},
	{3, fp(90)},
	{7, fp(11.25)},
	{4, fp(180)},
	{6, fp(270)},
	{2.5, fp(93)},
}

func TestWorkerEndToEnd(t *testing.T) {
	lastRain := time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC)
	last := base.Add(18 * time.Second)
	// 70F an hour before the last packet.
	hourAgo := types.NewPacket(types.Archive, last.Add(-time.Hour))
	hourAgo.Set("outTemp", units.New(70, units.DegreeF, units.GroupTemperature))
	store := &fakeStore{
		near:     map[string]types.Packet{"outTemp": hourAgo},
		aggErr:   map[string]error{"barometer": errors.New("database is locked")},
		low:      &types.AggregateValue{Value: units.New(29.5, units.InHg, units.GroupPressure)},
		lastRain: &lastRain,
	}

	w, q := newTestWorker(t, store, testOptions(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	for i, p := range tenPackets {
		temp := 20 + float64(i)*0.5
		pkt := metricPacket(base.Add(time.Duration(i)*2*time.Second), map[string]*float64{
			"outTemp":     &temp,
			"outHumidity": fp(50),
			"barometer":   fp(1013),
			"windSpeed":   fp(p.speed),
			"windDir":     p.dir,
		})
		if err := q.Put(pkt); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for w.Status().Publishes < uint64(len(tenPackets)) {
		if time.Now().After(deadline) {
			t.Fatalf("only %d publishes", w.Status().Publishes)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := q.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if w.State() != Stopped {
		t.Errorf("state = %v", w.State())
	}

	raw, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("gauge data is not JSON: %v\n%s", err, raw)
	}

	expected := map[string]string{
		"temp":              "24.5",
		"tempTH":            "24.5",
		"tempTL":            "20.0",
		"temptrend":         "3.4",
		"press":             "1013.0",
		"pressTL":           "0.0",
		"presstrendval":     "0.0",
		"pressL":            "999.0",
		"pressH":            "1100.0",
		"bearing":           "93",
		"wspeed":            "6",
		"wgust":             "0",
		"wlatest":           "2",
		"timeUTC":           "2024,05,01,12,00,18",
		"date":              "2024/05/01 12:00",
		"dateFormat":        "y/m/d",
		"LastRainTipISO":    "2024/04/30 18:30",
		"tempunit":          "C",
		"windunit":          "km/h",
		"pressunit":         "hPa",
		"rainunit":          "mm",
		"cloudbaseunit":     "ft",
		"forecast":          "Updated 12:00",
		"hourlyrainTH":      "0.0",
		"ThourlyrainTH":     "00:00",
		"SensorContactLost": "0",
		"ver":               "14",
	}
	for field, want := range expected {
		if got[field] != want {
			t.Errorf("%s = %v, want %q", field, got[field], want)
		}
	}
	if got["domwinddir"] != nil {
		t.Errorf("domwinddir = %v, want null without history", got["domwinddir"])
	}

	rose, ok := got["WindRoseData"].([]interface{})
	if !ok || len(rose) != 16 {
		t.Fatalf("WindRoseData = %v", got["WindRoseData"])
	}
	want := map[int]float64{0: 25, 1: 5, 4: 5.5, 8: 4, 12: 6}
	for i, v := range rose {
		if math.Abs(v.(float64)-want[i]) > 1e-9 {
			t.Errorf("WindRoseData[%d] = %v, want %v", i, v, want[i])
		}
	}

	snap, data, ok := w.Latest()
	if !ok || string(data) != string(raw) || snap["temp"] != "24.5" {
		t.Error("Latest() does not match the published file")
	}
}

func TestFieldMapOverridesComputedField(t *testing.T) {
	opts := testOptions(t, map[string]config.FieldData{
		"wspeed": {Source: "windSpeed", Group: "group_speed"},
	})
	w, _ := newTestWorker(t, &fakeStore{}, opts)

	w.handle(context.Background(), metricPacket(base, map[string]*float64{"windSpeed": fp(30)}))
	w.handle(context.Background(), metricPacket(base.Add(time.Second), map[string]*float64{"windSpeed": fp(12)}))

	snap, _, ok := w.Latest()
	if !ok {
		t.Fatal("nothing published")
	}
	if snap["wspeed"] != "12" {
		t.Errorf("wspeed = %v, want the field map's instantaneous value", snap["wspeed"])
	}
}

func TestRecentAggregates(t *testing.T) {
	opts := testOptions(t, map[string]config.FieldData{
		"lastT":   {Source: "outTemp", Aggregate: "last"},
		"TlastT":  {Source: "outTemp", Aggregate: "lasttime"},
		"countT":  {Source: "outTemp", Aggregate: "count", AggregatePeriod: "600"},
		"countTD": {Source: "outTemp", Aggregate: "count", AggregatePeriod: "day"},
		"windVA":  {Source: "wind", Aggregate: "vecavg", AggregatePeriod: "600", Format: "%.2f"},
	})
	store := &fakeStore{}
	w, _ := newTestWorker(t, store, opts)
	ctx := context.Background()

	w.handle(ctx, metricPacket(base, map[string]*float64{"outTemp": fp(10), "windSpeed": fp(6), "windDir": fp(0)}))
	w.handle(ctx, metricPacket(base.Add(time.Minute), map[string]*float64{"outTemp": nil, "windSpeed": fp(8), "windDir": fp(90)}))
	w.handle(ctx, metricPacket(base.Add(400*time.Second), map[string]*float64{"outTemp": fp(12), "windSpeed": fp(0)}))

	snap, _, ok := w.Latest()
	if !ok {
		t.Fatal("nothing published")
	}
	expected := map[string]string{
		"lastT":   "12.0",
		"TlastT":  "12:06",
		"countT":  "2",
		"countTD": "0",
		"windVA":  "3.33",
	}
	for field, want := range expected {
		if snap[field] != want {
			t.Errorf("%s = %v, want %s", field, snap[field], want)
		}
	}
}

func TestTimesUseWorkerLocation(t *testing.T) {
	opts := testOptions(t, map[string]config.FieldData{
		"TlastT": {Source: "outTemp", Aggregate: "lasttime"},
	})
	opts.Location = time.FixedZone("UTC-5", -5*3600)
	w, _ := newTestWorker(t, &fakeStore{}, opts)

	w.handle(context.Background(), metricPacket(base, map[string]*float64{"outTemp": fp(10)}))
	snap, _, _ := w.Latest()
	if snap["TlastT"] != "07:00" {
		t.Errorf("TlastT = %v, want the worker's local time", snap["TlastT"])
	}
	if snap["TtempTH"] != "07:00" {
		t.Errorf("TtempTH = %v, want the worker's local time", snap["TtempTH"])
	}
}

func TestWorkerSensorContact(t *testing.T) {
	opts := testOptions(t)
	opts.Contact = weatherstations.ContactReporterFor("Vantage")
	w, _ := newTestWorker(t, &fakeStore{}, opts)
	ctx := context.Background()

	rec, _ := types.FromSystem(types.Archive, base, units.US, map[string]*float64{"rxCheckPercent": fp(0)})
	w.handle(ctx, rec)
	w.handle(ctx, metricPacket(base.Add(time.Second), map[string]*float64{"outTemp": fp(10)}))
	if snap, _, _ := w.Latest(); snap["SensorContactLost"] != "1" {
		t.Errorf("SensorContactLost = %v after a lost-contact archive record", snap["SensorContactLost"])
	}

	rec, _ = types.FromSystem(types.Archive, base.Add(time.Minute), units.US, map[string]*float64{"rxCheckPercent": fp(98)})
	w.handle(ctx, rec)
	w.handle(ctx, metricPacket(base.Add(61*time.Second), map[string]*float64{"outTemp": fp(10)}))
	if snap, _, _ := w.Latest(); snap["SensorContactLost"] != "0" {
		t.Errorf("SensorContactLost = %v after contact returned", snap["SensorContactLost"])
	}
}

func TestWorkerDiscardsAfterStop(t *testing.T) {
	store := &fakeStore{}
	w, q := newTestWorker(t, store, testOptions(t))
	q.Stop(time.Second)

	w.handle(context.Background(), metricPacket(base, map[string]*float64{"outTemp": fp(10)}))
	if w.Status().Publishes != 0 {
		t.Error("published after stop")
	}
	if store.queries != 0 {
		t.Errorf("%d history queries while stopping", store.queries)
	}
	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Errorf("file written after stop: %v", err)
	}
}

func TestWorkerPublishFailureIsContained(t *testing.T) {
	opts := testOptions(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	opts.Path = filepath.Join(blocker, "gauge-data.txt")
	w, _ := newTestWorker(t, &fakeStore{}, opts)

	w.handle(context.Background(), metricPacket(base, map[string]*float64{"outTemp": fp(10)}))
	if w.Status().Publishes != 0 {
		t.Error("publish counted despite write failure")
	}

	// The next tick goes ahead once the directory is writable.
	os.Remove(blocker)
	w.handle(context.Background(), metricPacket(base.Add(time.Second), map[string]*float64{"outTemp": fp(11)}))
	if w.Status().Publishes != 1 {
		t.Errorf("publishes = %d after recovery", w.Status().Publishes)
	}
}

func TestRunStopsOnContext(t *testing.T) {
	w, _ := newTestWorker(t, &fakeStore{}, testOptions(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(3 * pollInterval):
		t.Fatal("worker ignored cancellation")
	}
	if w.Status().State != "stopped" {
		t.Errorf("state = %s", w.Status().State)
	}
}

func TestSnapshotEncode(t *testing.T) {
	data, err := Snapshot{"ver": "14", "forecast": "<b>sunny</b>", "WindRoseData": []float64{1.5, 0}}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	const want = `{"WindRoseData":[1.5,0],"forecast":"<b>sunny</b>","ver":"14"}`
	if string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}
}
