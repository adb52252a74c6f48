package gaugedata

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	gd "github.com/chrissnell/gaugedata/internal/gaugedata"
	"github.com/chrissnell/gaugedata/internal/types"
	"github.com/chrissnell/gaugedata/internal/units"
	"github.com/chrissnell/gaugedata/pkg/config"
)

type staticProvider struct {
	cfg *config.ConfigData
}

func (p staticProvider) LoadConfig() (*config.ConfigData, error) { return p.cfg, nil }
func (p staticProvider) IsReadOnly() bool                        { return true }
func (p staticProvider) Close() error                            { return nil }

type emptyStore struct{}

func (emptyStore) RecordNear(context.Context, string, time.Time, time.Duration) (*types.Packet, error) {
	return nil, nil
}

func (emptyStore) Aggregate(context.Context, string, types.AggregateOp, time.Time, time.Time) (*types.AggregateValue, error) {
	return nil, nil
}

func (emptyStore) WindSeries(context.Context, time.Time, time.Time) ([]types.WindSample, error) {
	return nil, nil
}

func (emptyStore) AllTimeRange(context.Context, string) (*types.AggregateValue, *types.AggregateValue, error) {
	return nil, nil, nil
}

func (emptyStore) LastRain(context.Context) (*time.Time, error) { return nil, nil }
func (emptyStore) Close() error                                 { return nil }

func testConfig(t *testing.T, extra string) *config.ConfigData {
	t.Helper()
	cfg, err := config.Parse([]byte(`
gauge_data:
  path: ` + t.TempDir() + `
  station:
    type: FineOffsetUSB
` + extra + `
history:
  sqlite_path: /nonexistent/weewx.sdb
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cfg
}

func loopPacket(ts time.Time, values map[string]float64) types.Packet {
	p := types.NewPacket(types.Loop, ts)
	for obs, v := range values {
		g, _ := units.ObservationGroup(obs)
		u, _ := units.SystemUnit(units.US, g)
		p.Set(obs, units.New(v, u, g))
	}
	return p
}

func TestControllerLifecycle(t *testing.T) {
	cfg := testConfig(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	c, err := NewController(ctx, &wg, staticProvider{cfg}, emptyStore{}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := c.StartController(); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if err := c.NewLoopPacket(loopPacket(now, map[string]float64{"outTemp": 50, "status": 0x40})); err != nil {
		t.Fatalf("NewLoopPacket: %v", err)
	}
	if err := c.NewLoopPacket(types.NewPacket(types.Archive, now)); err == nil {
		t.Error("archive record accepted as a loop packet")
	}
	if err := c.NewArchiveRecord(types.NewPacket(types.Loop, now)); err == nil {
		t.Error("loop packet accepted as an archive record")
	}

	deadline := time.Now().Add(5 * time.Second)
	for c.Worker().Status().Publishes == 0 {
		if time.Now().After(deadline) {
			t.Fatal("nothing published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	snap, _, _ := c.Worker().Latest()
	if snap["SensorContactLost"] != "1" {
		t.Errorf("SensorContactLost = %v with status 0x40", snap["SensorContactLost"])
	}
	if snap["temp"] != "10.0" {
		t.Errorf("temp = %v, want 10.0 C", snap["temp"])
	}
	if _, err := os.Stat(c.Worker().Path()); err != nil {
		t.Errorf("gauge data file: %v", err)
	}

	c.Shutdown()
	c.Shutdown()
	wg.Wait()
	if c.Worker().State() != gd.Stopped {
		t.Errorf("worker state %v after shutdown", c.Worker().State())
	}
	if err := c.NewLoopPacket(loopPacket(now, nil)); !errors.Is(err, gd.ErrStopped) {
		t.Errorf("NewLoopPacket after shutdown = %v", err)
	}
}

func TestControllerIgnoresLostContact(t *testing.T) {
	opts, err := workerOptions(testConfig(t, "  ignore_lost_contact: true"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	if opts.Contact != nil {
		t.Error("contact reporter set despite ignore_lost_contact")
	}
}

func TestWorkerOptions(t *testing.T) {
	cfg := testConfig(t, `  min_interval: 10
  field_map:
    temp:
      source: outTemp
  field_map_extensions:
    soil:
      source: soilTemp1
      group: group_temperature
`)
	cfg.HTTPPost = &config.HTTPPostData{URL: "http://example.invalid/gauges", Timeout: 2}

	opts, err := workerOptions(cfg, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("workerOptions: %v", err)
	}
	if opts.MinInterval != 10*time.Second {
		t.Errorf("MinInterval = %v", opts.MinInterval)
	}
	if !strings.HasSuffix(opts.Path, "/gauge-data.txt") {
		t.Errorf("Path = %s", opts.Path)
	}
	var names []string
	for _, f := range opts.Fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "soil,temp" {
		t.Errorf("fields = %v, want the configured map plus extensions", names)
	}
	if opts.Contact == nil || len(opts.Exporters) != 1 {
		t.Errorf("contact = %v, exporters = %d", opts.Contact, len(opts.Exporters))
	}
}

func TestWorkerOptionsRejectsBadGroups(t *testing.T) {
	cfg := testConfig(t, `  groups:
    group_speed: degree_C
`)
	if _, err := workerOptions(cfg, zap.NewNop().Sugar()); err == nil {
		t.Error("expected a configuration error")
	}
}
