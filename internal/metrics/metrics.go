// Package metrics exposes Prometheus counters for the request pipeline and
// the session refresh cycle.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// API calls by method and final HTTP status ("error" when no response).
	Requests *prometheus.CounterVec
	// Requests re-sent after a 401 and a successful refresh.
	AuthRetries prometheus.Counter
	// Refresh round trips by result (success|failure).
	Refreshes *prometheus.CounterVec
	// Sessions dropped with a redirect to the login entry point.
	Redirects prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashtrack_api_requests_total",
				Help: "Total API requests by method and status",
			},
			[]string{"method", "status"},
		),
		AuthRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cashtrack_api_auth_retries_total",
				Help: "Requests retried after an authorization failure",
			},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashtrack_token_refreshes_total",
				Help: "Access token refresh round trips by result",
			},
			[]string{"result"},
		),
		Redirects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cashtrack_login_redirects_total",
				Help: "Sessions dropped with a redirect to login",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.AuthRetries, m.Refreshes, m.Redirects)
	}
	return m
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(method, label).Inc()
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.AuthRetries.Inc()
}

func (m *Metrics) ObserveRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRedirect() {
	if m == nil {
		return
	}
	m.Redirects.Inc()
}

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
