package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/admuter/admuter/internal/config"
	"github.com/admuter/admuter/internal/database"
	"github.com/admuter/admuter/internal/models"
	"github.com/admuter/admuter/internal/reporter"
	"github.com/admuter/admuter/internal/tracker"
	"github.com/admuter/admuter/pkg/utils"
)

// StatusSource provides the live tracker status.
type StatusSource interface {
	Snapshot() tracker.Status
}

type Handler struct {
	config   *config.Config
	status   StatusSource
	repo     *database.Repository
	reporter *reporter.Reporter
}

// NewHandler creates a handler. repo may be nil when history is disabled.
func NewHandler(cfg *config.Config, status StatusSource, repo *database.Repository) *Handler {
	h := &Handler{
		config: cfg,
		status: status,
		repo:   repo,
	}
	if repo != nil {
		h.reporter = reporter.New(repo)
	}
	return h
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/history", h.handleHistory)
	mux.HandleFunc("/api/history/latest", h.handleLatestEvent)
	mux.HandleFunc("/api/report", h.handleReport)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.status.Snapshot()
	respondJSON(w, map[string]interface{}{
		"tracker":       snap,
		"uptime":        uptime(snap),
		"poll_interval": h.config.Tracker.PollInterval.String(),
		"mute_retries":  h.config.Mute.Retries,
		"history":       h.repo != nil,
	})
}

func uptime(s tracker.Status) string {
	if !s.Running || s.StartedAt.IsZero() {
		return ""
	}
	return utils.FormatDuration(time.Since(s.StartedAt))
}

func (h *Handler) historyDisabled(w http.ResponseWriter) bool {
	if h.repo != nil {
		return false
	}
	http.Error(w, "History is disabled (set ADMUTER_HISTORY=true)", http.StatusNotFound)
	return true
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.historyDisabled(w) {
		return
	}

	query := r.URL.Query()
	since := time.Now().Add(-24 * time.Hour)
	if periodType := query.Get("period"); periodType != "" {
		period, err := h.reporter.Period(periodType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = period.Start
	}

	events, err := h.repo.GetEventsSince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch events: %v", err), http.StatusInternalServerError)
		return
	}

	limit := 100
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	if events == nil {
		events = []*models.PlaybackEvent{}
	}

	respondJSON(w, events)
}

func (h *Handler) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.historyDisabled(w) {
		return
	}

	event, err := h.repo.GetLatest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest event: %v", err), http.StatusInternalServerError)
		return
	}

	if event == nil {
		http.Error(w, "No events found", http.StatusNotFound)
		return
	}

	respondJSON(w, event)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.historyDisabled(w) {
		return
	}

	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}
	if _, err := h.reporter.Period(periodType); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>admuter</title>
    <style>
        body { font-family: monospace; max-width: 40rem; margin: 2rem auto; padding: 0 1rem; }
        .muted { color: #c0392b; }
        .unmuted { color: #27ae60; }
        pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>admuter</h1>
    <p>Now playing: <strong id="title">-</strong></p>
    <p>State: <strong id="state">-</strong></p>
    <h2>Today</h2>
    <pre id="report">History is disabled.</pre>
    <script>
        async function refresh() {
            const status = await fetch('/api/status').then(r => r.json());
            const t = status.tracker;
            document.getElementById('title').textContent = t.present ? t.title : '(player not found)';
            const state = document.getElementById('state');
            state.textContent = t.state;
            state.className = t.state;
            if (status.history) {
                const report = await fetch('/api/report?period=day').then(r => r.json());
                document.getElementById('report').textContent = JSON.stringify(report, null, 2);
            }
        }
        refresh();
        setInterval(refresh, 2000);
    </script>
</body>
</html>`

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Error encoding JSON")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
