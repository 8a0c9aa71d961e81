package http

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/httpx"
)

// ProbeResponse is the body of /livez and /readyz.
type ProbeResponse struct {
	Status  string       `json:"status"`
	Uptime  string       `json:"uptime"`
	Version string       `json:"version"`
	Checks  *ProbeChecks `json:"checks,omitempty"`
}

// ProbeChecks reports the dependencies /readyz looked at.
type ProbeChecks struct {
	Backend string `json:"backend"`
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the agent process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	ProbeResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string, clock clockwork.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, ProbeResponse{
			Status:  "ok",
			Uptime:  clock.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}
