package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// statusResponse is the GET /status payload.
type statusResponse struct {
	Status        string                `json:"status"`
	Monitoring    string                `json:"monitoring"`
	CheckInterval string                `json:"check_interval"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Monitor       monitor.Snapshot      `json:"monitor"`
	RecentChecks  []monitor.CheckRecord `json:"recent_checks"`
	RecentAlerts  []monitor.AlertRecord `json:"recent_alerts"`
}

// status handles GET /status?limit=. It returns the monitor snapshot plus the
// most recent check and alert records, newest first, 400 for an invalid limit.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	limit, err := parseHistoryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.state.Snapshot()
	status := "running"
	if !snap.Active {
		status = "degraded"
	}
	var uptime int64
	if !snap.StartedAt.IsZero() {
		uptime = int64(s.clock.Now().Sub(snap.StartedAt).Seconds())
	}
	resp := statusResponse{
		Status:        status,
		Monitoring:    s.cfg.Monitor.TargetURL,
		CheckInterval: s.cfg.Monitor.TickInterval.String(),
		UptimeSeconds: uptime,
		Monitor:       snap,
		RecentChecks:  []monitor.CheckRecord{},
		RecentAlerts:  []monitor.AlertRecord{},
	}
	if s.history != nil {
		resp.RecentChecks = s.history.RecentChecks(limit)
		resp.RecentAlerts = s.history.RecentAlerts(limit)
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseHistoryLimit(r *http.Request) (int, error) {
	limit := defaultHistoryLimit
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, errors.New("invalid limit")
		}
		if val > maxHistoryLimit {
			val = maxHistoryLimit
		}
		limit = val
	}
	return limit, nil
}
