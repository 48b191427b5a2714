package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady checks that the store answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready == nil {
		checks["store"] = "not_configured"
	} else if err := s.ready.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_response_time_average_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_average_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_average_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP records_created_total Records created through the API\n")
	fmt.Fprintf(w, "# TYPE records_created_total counter\n")
	fmt.Fprintf(w, "records_created_total{entity=\"moment\"} %d\n", atomic.LoadInt64(&s.appMetrics.momentsCreated))
	fmt.Fprintf(w, "records_created_total{entity=\"money\"} %d\n\n", atomic.LoadInt64(&s.appMetrics.moneyCreated))

	fmt.Fprintf(w, "# HELP store_failures_total Requests that failed in the store\n")
	fmt.Fprintf(w, "# TYPE store_failures_total counter\n")
	fmt.Fprintf(w, "store_failures_total %d\n\n", atomic.LoadInt64(&s.appMetrics.storeFailures))

	fmt.Fprintf(w, "# HELP rate_limit_rejections_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejections_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejections_total %d\n\n", rateLimitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", s.securityDetector.SuspiciousCount())

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

// fail maps a service error to a response. Validation errors become 400 with
// their own text; anything else is a store failure: 500 with msg and the
// underlying error as details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, component, operation, msg string, args ...any) {
	if core.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.countStoreFailure()
	fields := applog.NewFields().
		WithOperation(operation).
		WithErrorType(applog.ErrorTypeDatabase).
		WithError(err).
		ToSlice()
	applog.FromContext(r.Context()).WithComponent(component).ErrorContext(r.Context(), msg, append(fields, args...)...)
	writeError(w, http.StatusInternalServerError, msg, err.Error())
}
