package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/typeforge/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewWithRegistry(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}
	if m.Compilations == nil {
		t.Error("Compilations is nil")
	}
	if m.LiveTypes == nil {
		t.Error("LiveTypes is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
}

func TestObserveCompile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveCompile(metrics.ResultOK, 2*time.Millisecond)
	m.ObserveCompile(metrics.ResultOK, 3*time.Millisecond)
	m.ObserveCompile(metrics.ResultFailed, 0)

	if got := gatherValue(t, reg, "typeforge_compilations_total", metrics.ResultOK); got != 2 {
		t.Errorf("ok compilations = %v, want 2", got)
	}
	if got := gatherValue(t, reg, "typeforge_compilations_total", metrics.ResultFailed); got != 1 {
		t.Errorf("failed compilations = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "typeforge_compile_duration_seconds" {
			found = true
			if n := f.GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
				t.Errorf("duration samples = %d, want 2", n)
			}
		}
	}
	if !found {
		t.Error("typeforge_compile_duration_seconds metric not found")
	}
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveRequest("GET", "/types/{name}", 200, time.Millisecond)
	m.ObserveRequest("GET", "/types/{name}", 200, time.Millisecond)
	m.ObserveRequest("GET", "/types/{name}", 404, time.Millisecond)
	m.ObserveRequest("GET", "/elements/{id}", 503, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	got := make(map[string]float64)
	for _, f := range families {
		if f.GetName() != "typeforge_http_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			var route, status string
			for _, l := range metric.GetLabel() {
				switch l.GetName() {
				case "route":
					route = l.GetValue()
				case "status":
					status = l.GetValue()
				}
			}
			got[route+" "+status] = metric.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"/types/{name} 2xx":  2,
		"/types/{name} 4xx":  1,
		"/elements/{id} 5xx": 1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("requests[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestRecordReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RecordReload(nil)
	m.RecordReload(errors.New("bad yaml"))

	if got := gatherValue(t, reg, "typeforge_config_reloads_total", ""); got != 1 {
		t.Errorf("ConfigReloads = %v, want 1", got)
	}
	if got := gatherValue(t, reg, "typeforge_config_reload_errors_total", ""); got != 1 {
		t.Errorf("ConfigReloadErrors = %v, want 1", got)
	}
	if got := gatherValue(t, reg, "typeforge_config_last_reload_timestamp", ""); got == 0 {
		t.Error("ConfigLastReload not set")
	}
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.LiveTypes.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "typeforge_live_types 3") {
		t.Errorf("metrics output missing live types gauge:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output missing Go runtime collector")
	}
}

// gatherValue returns the counter or gauge value of the series of name whose
// first label equals label, or the unlabeled series when label is empty.
func gatherValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}
