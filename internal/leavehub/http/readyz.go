package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/authsdk"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// readyzTimeout bounds the backend probe.
const readyzTimeout = 3 * time.Second

// HealthProber checks the backend.
type HealthProber interface {
	Health(ctx context.Context) (*authsdk.HealthResponse, error)
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	200 when the backend answers its health route, 503 otherwise. The probe never
//	@Description	carries the session credential.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ProbeResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	ProbeResponse	"backend unreachable or unhealthy"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, clock clockwork.Clock, backend HealthProber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		resp := ProbeResponse{
			Status:  "ok",
			Uptime:  clock.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  &ProbeChecks{Backend: "ok"},
		}
		code := http.StatusOK

		health, err := backend.Health(ctx)
		if err != nil {
			slogx.FromContext(r.Context()).Warn("backend not ready", "error", err)
			resp.Status = "degraded"
			resp.Checks.Backend = "error: " + err.Error()
			code = http.StatusServiceUnavailable
		} else if health.Status != "ok" {
			resp.Checks.Backend = health.Status
		}

		httpx.WriteJSON(w, code, resp)
	}
}
