package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).String(),
	})
}

// handleReady verifies the repository is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.repo == nil {
		checks["repository"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.repo.Ping(ctx); err != nil {
		checks["repository"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["repository"] = "ok"
	}

	if s.publisher != nil {
		checks["publisher"] = "ok"
	} else {
		checks["publisher"] = "not_configured"
	}

	checks["cache"] = map[string]any{
		"budget_entries": s.records.Size(),
		"status":         "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	security := s.detector.GetMetrics()
	limits := s.limiter.GetMetrics()
	traces := s.tracer.GetMetrics()

	var hits, misses int64
	if s.evaluator.Memo != nil {
		hits, misses = s.evaluator.Memo.Stats()
	}

	w.WriteHeader(http.StatusOK)
	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traces.TotalRequests)
	metric("http_response_time_avg_microseconds", "Average response time", "gauge", traces.AverageResponseTime)
	metric("analysis_cache_hits_total", "Derived figures served from cache", "counter", hits)
	metric("analysis_cache_misses_total", "Derived figures computed", "counter", misses)
	metric("budget_cache_entries", "Cached budget records", "gauge", s.records.Size())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", limits.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", limits.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", security.SuspiciousRequests)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", int64(s.now().Sub(s.started).Seconds()))
}
