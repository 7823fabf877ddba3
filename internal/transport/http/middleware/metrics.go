package middleware

import (
	"net/http"
	"strconv"

	"leavedesk/internal/platform/metrics"
)

func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			collector.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(recorder.status)).Inc()
		})
	}
}
