package switchmon

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"encoding/json"
)

// DefaultAPIVersion is the AOS-CX REST API version the client targets.
const DefaultAPIVersion = "v10.12"

// PortOverview is the per-port state subset shown on the dashboard.
type PortOverview struct {
	IfIndex        int    `json:"ifindex"`
	AdminState     string `json:"admin_state"`
	LinkState      string `json:"link_state"`
	Duplex         string `json:"duplex"`
	LinkSpeedBps   int64  `json:"link_speed_bps"`
	MACInUse       string `json:"mac_in_use"`
	FlapsPerformed int    `json:"flaps_performed"`
}

// SystemInfo is the subset of switch system attributes the assistant
// reports on.
type SystemInfo struct {
	Hostname        string `json:"hostname"`
	PlatformName    string `json:"platform_name"`
	SoftwareVersion string `json:"software_version"`
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	// BaseURL overrides the https://<ip> default, for tests.
	BaseURL string

	// APIVersion selects the REST version path segment.
	APIVersion string

	// InsecureTLS skips certificate verification. Lab switches ship with
	// self-signed certificates.
	InsecureTLS bool
}

// Client talks to one AOS-CX switch. Authentication is cookie-based;
// Login must succeed before any other call.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// NewClient creates a REST client for the given switch.
func NewClient(ip string, cfg ClientConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + ip
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		httpClient: &http.Client{Jar: jar, Transport: transport},
	}, nil
}

// restURL builds a versioned REST path.
func (c *Client) restURL(path string) string {
	return c.baseURL + "/rest/" + c.apiVersion + path
}

// Login authenticates with the switch. The session cookie is kept in the
// client's jar for subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL("/login"), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("switch login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("switch login returned %s: %s", resp.Status, string(body))
	}
	return nil
}

// Logout ends the switch session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL("/logout"), nil)
	if err != nil {
		return fmt.Errorf("create logout request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("switch logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("switch logout returned %s", resp.Status)
	}
	return nil
}

// System fetches switch system information.
func (c *Client) System(ctx context.Context) (*SystemInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL("/system"), nil)
	if err != nil {
		return nil, fmt.Errorf("create system request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get system: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get system returned %s", resp.Status)
	}

	var info SystemInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse system response: %w", err)
	}
	return &info, nil
}

// portAttributes is the attribute projection requested per port.
const portAttributes = "ifindex,admin_state,link_state,duplex,link_speed_bps,mac_in_use,flaps_performed"

// PortOverview fetches the dashboard state for one port, e.g. "1/1/7".
// The port name is percent-encoded into the interface path.
func (c *Client) PortOverview(ctx context.Context, port string) (*PortOverview, error) {
	path := "/system/interfaces/" + url.PathEscape(port) + "?attributes=" + portAttributes

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("create interface request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get interface %s: %w", port, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get interface %s returned %s", port, resp.Status)
	}

	var overview PortOverview
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, fmt.Errorf("parse interface response: %w", err)
	}
	return &overview, nil
}
