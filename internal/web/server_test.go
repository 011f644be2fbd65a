package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/greenhouse/internal/cycle"
	"github.com/sweeney/greenhouse/internal/logic"
	"github.com/sweeney/greenhouse/internal/metrics"
	"github.com/sweeney/greenhouse/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *metrics.Metrics) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:      33,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Calibration: logic.DefaultCalibration(),
		Thresholds:  logic.DefaultThresholds(),
	}
	tr := status.NewTracker(start, cfg)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := New(":0", tr, reg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, m
}

func fullCycleReport() cycle.Report {
	return cycle.Report{
		From:    logic.StateToggleSprinkler,
		To:      logic.StateIdle,
		Counter: 0,
		Readings: logic.Readings{
			Temperature:     logic.Temperature{Whole: 29, Tenths: 1},
			MoisturePercent: 75,
			LightPercent:    80,
			Clock:           logic.Clock{Hours: 2, Minutes: 45},
		},
		Outputs:   logic.Outputs{Vent: true, Sprinkler: true},
		FullCycle: true,
	}
}

func getBody(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Record(fullCycleReport(), time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC))
	tr.SetMQTTConnected(true)

	resp, body := getBody(t, ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	s := sj.Status
	if !s.Ready {
		t.Error("expected Ready=true")
	}
	if s.Readings.Temperature != "29.1" {
		t.Errorf("temperature: got %q, want 29.1", s.Readings.Temperature)
	}
	if s.Readings.MoisturePercent != 75 {
		t.Errorf("moisture: got %d, want 75", s.Readings.MoisturePercent)
	}
	if s.Outputs.Vent != "ON" || s.Outputs.Bulb != "OFF" {
		t.Errorf("outputs: got %+v", s.Outputs)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Config == nil || s.Config.TickMs != 33 {
		t.Errorf("config: got %+v", s.Config)
	}
}

func TestJSONBeforeFirstCycle(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := getBody(t, ts.URL+"/index.json")
	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Ready {
		t.Error("expected Ready=false before the first full cycle")
	}
	if sj.Status.State != "IDLE" || sj.Status.Counter != logic.CycleLength {
		t.Errorf("state/counter: got %s/%d", sj.Status.State, sj.Status.Counter)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Record(fullCycleReport(), time.Now())

	resp, body := getBody(t, ts.URL+"/")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	for _, want := range []string{"02:45:00", "29.1", "75%", `class="on">ON`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, body := getBody(t, ts.URL+"/index.html")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "never") {
		t.Error("expected last full cycle to read never")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.Observe(fullCycleReport())

	resp, body := getBody(t, ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	for _, want := range []string{
		"greenhouse_full_cycles_total 1",
		`greenhouse_actuator_on{actuator="vent"} 1`,
		"greenhouse_soil_moisture_percent 75",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil).Handler())
	defer ts.Close()

	resp, _ := getBody(t, ts.URL+"/metrics")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, _ := getBody(t, ts.URL+"/nonexistent")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestRejectsWrites(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	_, body := getBody(t, ts.URL+"/index.json")
	var sj1 status.StatusJSON
	json.Unmarshal([]byte(body), &sj1)
	if sj1.Status.Outputs.Sprinkler != "OFF" {
		t.Errorf("sprinkler: got %q, want OFF", sj1.Status.Outputs.Sprinkler)
	}

	tr.Record(fullCycleReport(), time.Now())

	_, body = getBody(t, ts.URL+"/index.json")
	var sj2 status.StatusJSON
	json.Unmarshal([]byte(body), &sj2)
	if sj2.Status.Outputs.Sprinkler != "ON" {
		t.Errorf("sprinkler: got %q, want ON", sj2.Status.Outputs.Sprinkler)
	}
	if sj2.Status.FullCycles != 1 {
		t.Errorf("full_cycles: got %d, want 1", sj2.Status.FullCycles)
	}
}
