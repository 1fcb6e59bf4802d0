package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"homewatch/internal/alert"
	"homewatch/internal/loop"
	"homewatch/internal/report"
	"homewatch/internal/sensor"
)

// Handler serves the local diagnostics surface. It only reads agent
// state; the control loop never depends on it.
type Handler struct {
	Reader    *sensor.Reader
	Loop      *loop.Loop
	Reporter  *report.Reporter
	Evaluator *alert.Evaluator
	StartedAt time.Time
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.healthz)
	r.Get("/status", h.status)
	r.Get("/channels", h.channels)
	r.Get("/rules", h.rules)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type statusResponse struct {
	UptimeSeconds float64      `json:"uptimeSeconds"`
	Cycles        uint64       `json:"cycles"`
	Reporter      report.Stats `json:"reporter"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		UptimeSeconds: time.Since(h.StartedAt).Seconds(),
		Cycles:        h.Loop.Cycles(),
		Reporter:      h.Reporter.Stats(),
	})
}

func (h *Handler) channels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Reader.HealthSnapshot())
}

func (h *Handler) rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Evaluator.Rules())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
