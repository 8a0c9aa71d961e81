package authsdk

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// DefaultHealthPath is the backend route probed by /readyz.
const DefaultHealthPath = "/health"

// HealthResponse is the agent's view of a backend health probe.
type HealthResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Health probes the backend. Any 2xx is healthy; the body's "status"
// field is reported when present. It never sends a credential.
func (c *SDKClient) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.HealthPath)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	health := &HealthResponse{Status: "ok", StatusCode: resp.StatusCode()}
	if s := gjson.GetBytes(resp.Body(), "status"); s.Type == gjson.String && s.String() != "" {
		health.Status = s.String()
	}

	if !resp.IsSuccess() {
		return health, fmt.Errorf("backend unhealthy: HTTP %d", resp.StatusCode())
	}
	return health, nil
}
