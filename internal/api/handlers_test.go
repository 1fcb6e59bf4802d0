package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"homewatch/internal/alert"
	"homewatch/internal/loop"
	"homewatch/internal/report"
	"homewatch/internal/rules"
	"homewatch/internal/sensor"
)

type fixedSource struct{ value float64 }

func (s fixedSource) Read(ctx context.Context) (float64, error) { return s.value, nil }

type okSink struct{}

func (okSink) Send(ctx context.Context, batch report.Batch) error { return nil }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reader := sensor.NewReader([]sensor.Channel{
		{Name: "gas", Unit: "ppm", Source: fixedSource{value: 300}},
	}, time.Second, logger)
	eval := alert.NewEvaluator([]rules.Rule{{
		ID: "gas_high", Channel: "gas",
		Detector: rules.DetectorSpec{Type: "threshold", Threshold: &rules.ThresholdSpec{Op: ">", Value: 600}},
	}}, 8)
	reporter := report.NewReporter(report.NewQueue(4), okSink{}, 3, time.Millisecond, time.Second, logger)
	l := loop.New(reader, eval, reporter, time.Second, logger)
	l.RunCycle(context.Background())
	return &Handler{
		Reader:    reader,
		Loop:      l,
		Reporter:  reporter,
		Evaluator: eval,
		StartedAt: time.Now().Add(-time.Minute),
	}
}

func newRouter(h *Handler, secret string) chi.Router {
	r := chi.NewRouter()
	r.Use(BearerAuth(secret))
	h.RegisterRoutes(r)
	return r
}

func TestStatusEndpoint(t *testing.T) {
	r := newRouter(newTestHandler(t), "")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/status", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Cycles != 1 {
		t.Fatalf("expected 1 cycle, got %d", body.Cycles)
	}
	if body.UptimeSeconds <= 0 {
		t.Fatalf("expected positive uptime")
	}
}

func TestChannelsEndpoint(t *testing.T) {
	r := newRouter(newTestHandler(t), "")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/channels", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var health []sensor.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(health) != 1 || health[0].Channel != "gas" || health[0].Degraded {
		t.Fatalf("unexpected channel health %+v", health)
	}
}

func TestRulesEndpoint(t *testing.T) {
	r := newRouter(newTestHandler(t), "")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/rules", nil))
	var ruleSet []rules.Rule
	if err := json.NewDecoder(resp.Body).Decode(&ruleSet); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(ruleSet) != 1 || ruleSet[0].ID != "gas_high" {
		t.Fatalf("unexpected rules %+v", ruleSet)
	}
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	r := newRouter(newTestHandler(t), "agent-secret")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/status", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestBearerAuthAcceptsSignedToken(t *testing.T) {
	secret := "agent-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	r := newRouter(newTestHandler(t), secret)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", resp.Code)
	}
}

func TestBearerAuthRejectsWrongSecret(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "operator"})
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	r := newRouter(newTestHandler(t), "agent-secret")
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong secret, got %d", resp.Code)
	}
}
