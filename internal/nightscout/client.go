// Package nightscout provides a read-only client for the Nightscout API:
// profile store documents and the treatments doseview derives time windows
// from.
package nightscout

import (
	"context"
	"crypto/sha1" //nolint:gosec // Nightscout's legacy API authenticates with a SHA1-hashed secret
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkrenz/doseview/internal/profile"
)

// Client handles communication with the Nightscout API.
type Client struct {
	baseURL    string
	apiSecret  string
	apiToken   string
	useToken   bool
	httpClient *http.Client
}

// New creates a Nightscout client.
func New(baseURL, apiSecret, apiToken string, useToken bool) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiSecret: apiSecret,
		apiToken:  apiToken,
		useToken:  useToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// hashSecret generates the SHA1 hash the legacy API expects.
func hashSecret(secret string) string {
	hasher := sha1.New() //nolint:gosec
	hasher.Write([]byte(secret))
	return hex.EncodeToString(hasher.Sum(nil))
}

// buildRequest creates an HTTP request with proper authentication.
func (c *Client) buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	fullURL := c.baseURL + endpoint
	if params != nil {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	if c.useToken && c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	} else if c.apiSecret != "" {
		req.Header.Set("API-SECRET", hashSecret(c.apiSecret))
	}

	return req, nil
}

// doRequest executes an HTTP request and returns the response body.
func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// GetProfileStore retrieves and parses the current profile store document.
func (c *Client) GetProfileStore(ctx context.Context) (*profile.Store, []byte, error) {
	req, err := c.buildRequest(ctx, "/api/v1/profile.json", nil)
	if err != nil {
		return nil, nil, err
	}

	body, err := c.doRequest(req)
	if err != nil {
		return nil, nil, err
	}

	st, err := profile.ParseStore(body)
	if err != nil {
		return nil, nil, err
	}
	return st, body, nil
}

// GetTreatments retrieves the most recent treatments of one event type,
// newest first.
func (c *Client) GetTreatments(ctx context.Context, eventType string, count int) ([]Treatment, error) {
	params := url.Values{}
	params.Set("find[eventType]", eventType)
	if count > 0 {
		params.Set("count", fmt.Sprintf("%d", count))
	}

	req, err := c.buildRequest(ctx, "/api/v1/treatments.json", params)
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	var treatments []Treatment
	if err := json.Unmarshal(body, &treatments); err != nil {
		return nil, fmt.Errorf("parsing treatments: %w", err)
	}
	return treatments, nil
}

// TestConnection checks whether the server answers the status endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := c.buildRequest(ctx, "/api/v1/status.json", nil)
	if err != nil {
		return err
	}
	_, err = c.doRequest(req)
	return err
}
