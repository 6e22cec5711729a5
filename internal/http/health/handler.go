package health

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-generator/internal/platform/logging"
	"github.com/janisto/portfolio-generator/internal/platform/timeutil"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency, such as the draft store backend.
type Check func(ctx context.Context) error

// Response is the payload for the health endpoint.
type Response struct {
	Status string            `json:"status"`
	Time   timeutil.Time     `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewHandler returns a plain HTTP handler that runs every check and answers
// 503 when any of them fails.
func NewHandler(checks map[string]Check) http.HandlerFunc {
	names := slices.Sorted(maps.Keys(checks))
	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: "healthy", Time: timeutil.Now()}
		status := http.StatusOK

		if len(names) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			resp.Checks = make(map[string]string, len(names))
			for _, name := range names {
				if err := checks[name](ctx); err != nil {
					applog.LogWarn(r.Context(), "health check failed", zap.String("check", name), zap.Error(err))
					resp.Checks[name] = "unavailable"
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
