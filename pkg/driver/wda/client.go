// Package wda talks to a running WebDriverAgent's HTTP endpoint.
//
// Sessions go through Appium; this client only answers "is WDA up and
// ready", which every diagnostic needs before a session is attempted.
package wda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/shop-e2e/pkg/core"
	"github.com/devicelab-dev/shop-e2e/pkg/logger"
	"github.com/devicelab-dev/shop-e2e/pkg/wait"
)

// DefaultPort is where WebDriverAgent listens on a simulator.
const DefaultPort = 8100

// Client is an HTTP client for WebDriverAgent.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a WDA client for baseURL, e.g. http://127.0.0.1:8100.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientForPort creates a WDA client on localhost.
func NewClientForPort(port uint16) *Client {
	return NewClient(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// BaseURL returns the endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status is the value of GET /status.
type Status struct {
	Ready   bool   `json:"ready"`
	State   string `json:"state"`
	Message string `json:"message"`
	OS      struct {
		Name       string `json:"name"`
		Version    string `json:"version"`
		SDKVersion string `json:"sdkVersion"`
	} `json:"os"`
	IOS struct {
		IP string `json:"ip"`
	} `json:"ios"`
	Build struct {
		Time     string `json:"time"`
		BundleID string `json:"productBundleIdentifier"`
	} `json:"build"`
}

// Status returns WDA status.
func (c *Client) Status() (*Status, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/status")
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WDA status: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Value Status `json:"value"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, string(body))
	}
	return &envelope.Value, nil
}

// Ready reports whether WDA answers /status with ready=true.
func (c *Client) Ready() (bool, error) {
	st, err := c.Status()
	if err != nil {
		return false, err
	}
	return st.Ready, nil
}

// WaitReady polls /status until WDA is ready or opts.Timeout elapses.
func (c *Client) WaitReady(ctx context.Context, opts wait.Options) (*Status, error) {
	if opts.What == "" {
		opts.What = "WebDriverAgent at " + c.baseURL
	}
	attempt := 0
	return wait.For(ctx, opts, func() (*Status, error) {
		attempt++
		st, err := c.Status()
		if err != nil {
			logger.Debug("WDA not reachable (attempt %d): %v", attempt, err)
			return nil, err
		}
		if !st.Ready {
			return nil, fmt.Errorf("WDA responded but is not ready (state %q)", st.State)
		}
		return st, nil
	})
}
