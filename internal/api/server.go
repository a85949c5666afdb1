package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/keno-monitor/internal/config"
	"github.com/JakeFAU/keno-monitor/internal/history"
	"github.com/JakeFAU/keno-monitor/internal/metrics"
	"github.com/JakeFAU/keno-monitor/internal/monitor"
)

// Server wires HTTP handlers to the monitor state and history store.
type Server struct {
	router  chi.Router
	state   *monitor.State
	history *history.Store
	clock   monitor.Clock
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	state *monitor.State,
	hist *history.Store,
	clock monitor.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		state:   state,
		history: hist,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(cfg.Server.RequestTimeout))

	r.Get("/", s.home)
	r.Get("/health", s.health)
	r.Get("/status", s.status)
	r.Handle("/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// homePage is the landing page served on "/". The clock keeps ticking
// client-side so uptime checkers see a live page.
const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>Keno Monitor</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { max-width: 800px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .status { color: green; font-weight: bold; font-size: 18px; }
        .standby { color: #b58900; }
        .info { margin: 20px 0; padding: 15px; background: #e8f4fd; border-radius: 5px; }
        .live { color: #ff4444; font-weight: bold; animation: pulse 1.5s infinite; }
        @keyframes pulse { 0% { opacity: 1; } 50% { opacity: 0.7; } 100% { opacity: 1; } }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#127920; Keno Bright Numbers Monitor</h1>
        {{if .Active}}<div class="status">&#9989; <span class="live">MONITORING ACTIVE</span></div>
        {{else}}<div class="status standby">&#9208; MONITORING STANDBY</div>
        {{end}}
        <div class="info">
            <p><strong>Monitoring:</strong> {{.Target}}</p>
            <p><strong>Check Interval:</strong> every {{.Interval}}</p>
            <p><strong>Status:</strong> <span id="status">{{if .Active}}Active{{else}}Standby{{end}}</span></p>
            <p><strong>Last Check:</strong> <span id="time">{{.Now}}</span></p>
        </div>
        <p>This service detects when numbers brighten up in FlashSport Keno and sends instant Telegram notifications.</p>
        <script>
            function updateTime() {
                document.getElementById('time').textContent = new Date().toLocaleString();
            }
            setInterval(updateTime, 1000);
        </script>
    </div>
</body>
</html>
`

var homeTemplate = template.Must(template.New("home").Parse(homePage))

type homeData struct {
	Active   bool
	Target   string
	Interval string
	Now      string
}

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	data := homeData{
		Active:   snap.Active,
		Target:   s.cfg.Monitor.TargetURL,
		Interval: s.cfg.Monitor.TickInterval.String(),
		Now:      s.clock.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		s.logger.Error("home page render failed", zap.Error(err))
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	status := "healthy"
	if !snap.Active {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         status,
		"service":        "keno-monitor",
		"timestamp":      s.clock.Now().UTC().Format(time.RFC3339),
		"monitoring":     s.cfg.Monitor.TargetURL,
		"check_interval": s.cfg.Monitor.TickInterval.String(),
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		metrics.ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = 15 * time.Second
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
