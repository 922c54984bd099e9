package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// httpMetrics holds a request-duration histogram keyed by
// handler/method/code, registered against a caller-owned registry and
// exposed at /metrics via promhttp in server.go.
type httpMetrics struct {
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "stamd_http_request_duration_seconds",
			Help: "A histogram of duration for stamd HTTP requests.",
		}, []string{"code", "handler", "method"}),
	}
	if reg != nil {
		reg.MustRegister(m.duration)
	}
	return m
}

// instrument wraps a gin handler, recording request duration under the
// given route label.
func (m *httpMetrics) instrument(label string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		h(c)
		m.duration.WithLabelValues(strconv.Itoa(c.Writer.Status()), label, c.Request.Method).
			Observe(time.Since(start).Seconds())
	}
}
