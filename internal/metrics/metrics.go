package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/qdata-clean/internal/cleaning"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qdata_uploads_total",
			Help: "Total number of uploaded files",
		},
		[]string{"format", "status"},
	)

	UploadRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qdata_upload_rows",
			Help:    "Rows per parsed upload",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~262k
		},
	)

	CleaningRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qdata_cleaning_runs_total",
			Help: "Total number of cleaning pipeline runs",
		},
		[]string{"status"},
	)

	CleaningRowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qdata_cleaning_rows_dropped_total",
			Help: "Rows removed by cleaning steps",
		},
		[]string{"option"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qdata_exports_total",
			Help: "Total number of exports",
		},
		[]string{"format", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qdata_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qdata_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qdata_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordUpload records a parse attempt and, on success, its row count.
func RecordUpload(format string, rows int, err error) {
	UploadsTotal.WithLabelValues(format, status(err)).Inc()
	if err == nil {
		UploadRows.Observe(float64(rows))
	}
}

// RecordCleaning records a pipeline run and rows dropped per step.
func RecordCleaning(res *cleaning.Result, err error) {
	CleaningRunsTotal.WithLabelValues(status(err)).Inc()
	if res == nil {
		return
	}
	for _, s := range res.Steps {
		if d := s.Dropped(); d > 0 {
			CleaningRowsDropped.WithLabelValues(string(s.Option)).Add(float64(d))
		}
	}
}

// RecordExport records an export attempt.
func RecordExport(format string, err error) {
	ExportsTotal.WithLabelValues(format, status(err)).Inc()
}
