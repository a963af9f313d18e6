package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"covidsignal/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// Slow marks access log lines as warn at or above this duration, 0 disables
	Slow time.Duration
	// Timeout bounds each request, 0 means 30s
	Timeout time.Duration
	// CORS origins, empty allows none
	AllowedOrigins []string
	// HealthPath is the full request path answered by the heartbeat, default /health
	HealthPath string
}

// CommonStack returns the baseline API middleware slice
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.HealthPath == "" {
		o.HealthPath = "/health"
	}
	return []func(http.Handler) http.Handler{
		// correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow, Skip: []string{o.HealthPath}}),

		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.AllowedOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat(o.HealthPath),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}
