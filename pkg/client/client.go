package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dprint/plugins/pkg/registry"
)

type ErrorResponse struct {
	StatusCode int
	ErrorMsg   string `json:"error"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("unexpected status code: %d, error: %s", e.StatusCode, e.ErrorMsg)
}

type Client struct {
	registryURL string
	httpClient  *http.Client
}

func New(registryURL string) *Client {
	return &Client{
		registryURL: registryURL,
		httpClient: &http.Client{
			Timeout: time.Minute,
			// resolved plugin urls are returned instead of followed
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) sendRequest(ctx context.Context, method, endpoint string) (*http.Response, error) {
	apiEndpoint, err := url.JoinPath(c.registryURL, endpoint)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, apiEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	return c.httpClient.Do(req)
}

func decodeError(resp *http.Response) error {
	errResp := &ErrorResponse{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return err
	}
	if json.Unmarshal(body, errResp) != nil || errResp.ErrorMsg == "" {
		errResp.ErrorMsg = strings.TrimSpace(string(body))
	}
	return errResp
}

func (c *Client) decodeResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil {
		return err
	}
	return nil
}

// GetLatest returns the latest.json descriptor of owner/repo.
func (c *Client) GetLatest(ctx context.Context, owner, repo string) (*registry.LatestJSON, error) {
	resp, err := c.sendRequest(ctx, http.MethodGet, fmt.Sprintf("%s/%s/latest.json", owner, repo))
	if err != nil {
		return nil, err
	}
	var latest registry.LatestJSON
	err = c.decodeResponse(resp, &latest)
	if err != nil {
		return nil, err
	}
	return &latest, nil
}

func (c *Client) GetInfo(ctx context.Context) (*registry.PluginsInfo, error) {
	resp, err := c.sendRequest(ctx, http.MethodGet, "info.json")
	if err != nil {
		return nil, err
	}
	var info registry.PluginsInfo
	err = c.decodeResponse(resp, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetCLIInfo(ctx context.Context) (*registry.CLIInfo, error) {
	resp, err := c.sendRequest(ctx, http.MethodGet, "cli.json")
	if err != nil {
		return nil, err
	}
	var info registry.CLIInfo
	err = c.decodeResponse(resp, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Resolve returns the upstream url the registry redirects path to.
func (c *Client) Resolve(ctx context.Context, path string) (string, error) {
	resp, err := c.sendRequest(ctx, http.MethodHead, path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		return "", decodeError(resp)
	}
	return resp.Header.Get("Location"), nil
}
