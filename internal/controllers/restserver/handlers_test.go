package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/chrissnell/gaugedata/internal/gaugedata"
	"github.com/chrissnell/gaugedata/pkg/config"
)

type fakeSource struct {
	data   []byte
	status gaugedata.Status
}

func (f *fakeSource) Latest() (gaugedata.Snapshot, []byte, bool) {
	if f.data == nil {
		return nil, nil, false
	}
	var s gaugedata.Snapshot
	json.Unmarshal(f.data, &s)
	return s, f.data, true
}

func (f *fakeSource) Status() gaugedata.Status { return f.status }

func newTestRouter(t *testing.T, src *fakeSource) http.Handler {
	t.Helper()
	var wg sync.WaitGroup
	c, err := NewController(context.Background(), &wg, config.RESTServerData{Port: 8080}, src, zap.NewNop().Sugar())
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Addr = %s", c.Server.Addr)
	}
	return c.Server.Handler
}

func get(h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestEndpointsBeforeFirstPublish(t *testing.T) {
	h := newTestRouter(t, &fakeSource{status: gaugedata.Status{State: "idle"}})

	for _, url := range []string{"/gauge-data.txt", "/snapshot"} {
		if rec := get(h, url); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: code %d", url, rec.Code)
		}
	}
	if rec := get(h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("/healthz: code %d", rec.Code)
	}
}

func TestEndpoints(t *testing.T) {
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		data:   []byte(`{"temp":"21.5","ver":"14"}`),
		status: gaugedata.Status{ID: "w1", State: "idle", LastPublish: published, Publishes: 3},
	}
	h := newTestRouter(t, src)

	rec := get(h, "/gauge-data.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != string(src.data) {
		t.Errorf("/gauge-data.txt: %d %q", rec.Code, rec.Body.String())
	}

	rec = get(h, "/snapshot?format=msgpack")
	var snap struct {
		LastUpdated string            `msgpack:"lastUpdated"`
		Data        map[string]string `msgpack:"data"`
	}
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("msgpack: %v", err)
	}
	if snap.LastUpdated != "2024-05-01T12:00:00Z" || snap.Data["temp"] != "21.5" {
		t.Errorf("snapshot = %+v", snap)
	}

	rec = get(h, "/healthz")
	var status gaugedata.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Publishes != 3 || !status.LastPublish.Equal(published) {
		t.Errorf("status = %+v", status)
	}

	src.status.State = "stopped"
	if rec := get(h, "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/healthz of a stopped worker: %d", rec.Code)
	}

	if rec := get(h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("/nope: %d", rec.Code)
	}
}
