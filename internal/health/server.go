package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MostProject/wslistener/internal/models"
)

// Status represents health check status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a single health check
type Check struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	LastCheck time.Time     `json:"last_check"`
}

// Response represents the health check response
type Response struct {
	Status    Status           `json:"status"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Metrics   map[string]int64 `json:"metrics,omitempty"`
}

// Checker is a function that performs a health check
type Checker func(ctx context.Context) (Status, string)

// MetricsSource reports counter totals for /metrics
type MetricsSource func() map[string]int64

// Server provides health check HTTP endpoints for the local dev server
type Server struct {
	version   string
	startTime time.Time
	server    *http.Server

	mu       sync.RWMutex
	checkers map[string]Checker
	metrics  MetricsSource

	ready int32
}

// NewServer creates a new health check server listening on addr
func NewServer(addr, version string) *Server {
	s := &Server{
		version:   version,
		startTime: time.Now(),
		checkers:  make(map[string]Checker),
		ready:     1,
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/health/live", s.livenessHandler)
	mux.HandleFunc("/health/ready", s.readinessHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	return mux
}

// RegisterChecker registers a health checker
func (s *Server) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// SetMetricsSource sets where /metrics and /health read counters from
func (s *Server) SetMetricsSource(src MetricsSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = src
}

// SetReady sets the readiness state
func (s *Server) SetReady(ready bool) {
	if ready {
		atomic.StoreInt32(&s.ready, 1)
	} else {
		atomic.StoreInt32(&s.ready, 0)
	}
}

// IsReady returns the readiness state
func (s *Server) IsReady() bool {
	return atomic.LoadInt32(&s.ready) == 1
}

// Start starts the health check server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// RunChecks runs all registered health checks concurrently
func (s *Server) RunChecks(ctx context.Context) map[string]Check {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]Check)
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			start := time.Now()
			status, msg := c(ctx)
			check := Check{
				Name:      n,
				Status:    status,
				Message:   msg,
				Duration:  time.Since(start),
				LastCheck: time.Now(),
			}
			resultsMu.Lock()
			results[n] = check
			resultsMu.Unlock()
		}(name, checker)
	}

	wg.Wait()
	return results
}

func (s *Server) snapshot() map[string]int64 {
	s.mu.RLock()
	src := s.metrics
	s.mu.RUnlock()
	if src == nil {
		return nil
	}
	return src()
}

func overall(checks map[string]Check) Status {
	status := StatusHealthy
	for _, check := range checks {
		if check.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if check.Status == StatusDegraded {
			status = StatusDegraded
		}
	}
	return status
}

// healthHandler handles /health requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := s.RunChecks(ctx)
	status := overall(checks)

	response := Response{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
		Metrics:   s.snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

// livenessHandler handles /health/live requests
func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// readinessHandler handles /health/ready requests
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "not_ready",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range s.RunChecks(ctx) {
		if check.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "not_ready",
				"reason": check.Name + ": " + check.Message,
			})
			return
		}
	}

	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

// metricsHandler handles /metrics requests (Prometheus text format)
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics := s.snapshot()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	for _, name := range names {
		fmt.Fprintf(w, "%s %d\n", name, metrics[name])
	}
}

// Common health checkers

// StoreChecker probes the record store with its existence check
func StoreChecker(existsAny func(context.Context) (bool, error)) Checker {
	return func(ctx context.Context) (Status, string) {
		exists, err := existsAny(ctx)
		if err != nil {
			return StatusUnhealthy, "store unavailable: " + err.Error()
		}
		if exists {
			return StatusHealthy, "store connected, connections present"
		}
		return StatusHealthy, "store connected, no connections"
	}
}

// RuleChecker reports the event rule state. An unreadable rule only degrades
// health since toggling may still succeed.
func RuleChecker(state func(context.Context) (models.RuleState, error)) Checker {
	return func(ctx context.Context) (Status, string) {
		st, err := state(ctx)
		if err != nil {
			return StatusDegraded, "rule unavailable: " + err.Error()
		}
		return StatusHealthy, "rule " + st.String()
	}
}
