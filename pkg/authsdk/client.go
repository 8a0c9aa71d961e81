package authsdk

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTokenPath is the code exchange route on the backend.
	DefaultTokenPath = "/auth/token"
	// DefaultRefreshPath is the refresh route on the backend.
	DefaultRefreshPath = "/auth/refresh"
)

// SDKClient talks to the backend token service. It performs the code
// exchange and the refresh grant and nothing else; resource traffic goes
// through the Dispatcher.
type SDKClient struct {
	BaseURL     string
	ClientID    string
	TokenPath   string
	RefreshPath string
	HealthPath  string

	http *resty.Client
}

// NewSDKClient creates a token service client. A nil httpClient gets a
// client with a 10 second timeout; that timeout is the only bound on a
// refresh call.
func NewSDKClient(baseURL, clientID string, httpClient *http.Client) *SDKClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	client := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SDKClient{
		BaseURL:     baseURL,
		ClientID:    clientID,
		TokenPath:   DefaultTokenPath,
		RefreshPath: DefaultRefreshPath,
		HealthPath:  DefaultHealthPath,
		http:        client,
	}
}
