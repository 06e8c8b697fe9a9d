package httpmw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics observes request latency labelled by the matched chi route
// pattern, which keeps meeting tokens out of the label values.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(sw.code())).
			Observe(time.Since(start).Seconds())
	})
}
