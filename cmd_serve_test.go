package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func testConfig(enforce bool) config {
	return config{
		JWTSecret:            "test-secret",
		TokenTTL:             time.Hour,
		AuthEnforce:          enforce,
		SeedDemoReservations: true,
		Simulation: simulationConfig{
			Slots:           8,
			Interval:        time.Hour,
			FlipProbability: 0.2,
			PicksPerTick:    2,
			Seed:            7,
		},
		Pricing: pricingConfig{PerHour: 50},
	}
}

func newTestApp(t *testing.T, enforce bool) *app {
	t.Helper()
	a, err := newApp(context.Background(), testConfig(enforce), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestApp_OpenRoutes(t *testing.T) {
	a := newTestApp(t, false)

	if resp := call(a.handler, http.MethodGet, "/healthz", "", ""); resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", resp.Code, resp.Body.String())
	}
	if resp := call(a.handler, http.MethodGet, "/metrics", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("metrics: %d", resp.Code)
	}

	resp := call(a.handler, http.MethodGet, "/api/v1/stats", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("stats: %d", resp.Code)
	}
	var stats struct {
		TotalSpots int `json:"totalSpots"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalSpots != 8 {
		t.Fatalf("expected 8 slots, got %d", stats.TotalSpots)
	}

	resp = call(a.handler, http.MethodGet, "/api/v1/reservations", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("reservations: %d", resp.Code)
	}
	var report struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Items) != 5 {
		t.Fatalf("expected demo reservations, got %d", len(report.Items))
	}
}

func TestApp_PaymentReservesSlot(t *testing.T) {
	a := newTestApp(t, false)

	resp := call(a.handler, http.MethodPost, "/api/payments/create", "", `{"slotId":"slot-2","hours":3}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("payment: %d %s", resp.Code, resp.Body.String())
	}
	slot, err := a.session.Slot("slot-2")
	if err != nil {
		t.Fatalf("slot: %v", err)
	}
	if slot.Status != "reserved" {
		t.Fatalf("expected slot-2 reserved, got %s", slot.Status)
	}
}

func TestApp_EnforcedAuth(t *testing.T) {
	a := newTestApp(t, true)

	if resp := call(a.handler, http.MethodGet, "/api/v1/stats", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	if resp := call(a.handler, http.MethodGet, "/healthz", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("healthz must stay open, got %d", resp.Code)
	}

	creds := `{"username":"driver","password":"pw-123"}`
	if resp := call(a.handler, http.MethodPost, "/api/auth/signup", "", creds); resp.Code != http.StatusOK {
		t.Fatalf("signup: %d %s", resp.Code, resp.Body.String())
	}
	resp := call(a.handler, http.MethodPost, "/api/auth/login", "", creds)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: %d %s", resp.Code, resp.Body.String())
	}
	var session struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if session.Token == "" || session.Role != "user" {
		t.Fatalf("unexpected session %+v", session)
	}

	if resp := call(a.handler, http.MethodGet, "/api/v1/stats", session.Token, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
	if resp := call(a.handler, http.MethodPost, "/api/v1/simulation/toggle", session.Token, ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user toggling simulation, got %d", resp.Code)
	}
	if a.session.SimulationActive() {
		t.Fatalf("simulation must not start on a forbidden request")
	}
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Errorf("wrapped writer lost http.Flusher")
		}
		w.WriteHeader(http.StatusTeapot)
	}), logger)

	call(handler, http.MethodGet, "/brew", "", "")
	if !strings.Contains(buf.String(), "http GET /brew 418") {
		t.Fatalf("unexpected log line %q", buf.String())
	}
}

func TestSimulate_FixedSeedIsReproducible(t *testing.T) {
	run := func() string {
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)
		cmd.SetContext(context.Background())
		cfg := testConfig(false).Simulation
		if err := simulate(cmd, cfg, 5, true); err != nil {
			t.Fatalf("simulate: %v", err)
		}
		return out.String()
	}

	first := run()
	if lines := strings.Count(first, "\n"); lines != 5 {
		t.Fatalf("expected 5 json lines, got %d", lines)
	}
	if second := run(); first != second {
		t.Fatalf("same seed produced different runs:\n%s\n%s", first, second)
	}
	var line tickLine
	if err := json.Unmarshal([]byte(strings.SplitN(first, "\n", 2)[0]), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line.Tick != 1 || line.Stats.TotalSpots != 8 {
		t.Fatalf("unexpected first line %+v", line)
	}
}
