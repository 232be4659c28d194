// Package client talks to a running parsevideod over its HTTP API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/database"
)

const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	client *resty.Client
}

// New creates a client for the server at baseURL, e.g.
// "http://127.0.0.1:8687". A bare host:port is accepted.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	c := resty.New()
	c.SetBaseURL(strings.TrimRight(baseURL, "/") + "/api/v1")
	c.SetTimeout(DefaultTimeout)
	c.SetHeader("Accept", "application/json")

	return &Client{client: c}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.client.SetTimeout(d)
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(result).
		SetError(&api.ErrorResponse{}).
		Get(path)
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode()}
	if e, ok := resp.Error().(*api.ErrorResponse); ok && e != nil {
		apiErr.Code = e.Code
		apiErr.Message = e.Message
	}
	return apiErr
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var out api.HealthResponse
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Parse parses one filename on the server. A nil roman uses the server's
// setting.
func (c *Client) Parse(ctx context.Context, filename string, roman *bool) (*api.ParseResult, error) {
	q := url.Values{"filename": {filename}}
	if roman != nil {
		q.Set("roman", strconv.FormatBool(*roman))
	}

	var out api.ParseResult
	if err := c.get(ctx, "/parse", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParseBatch parses filenames in chunks of api.MaxBatchSize, keeping order.
func (c *Client) ParseBatch(ctx context.Context, filenames []string, roman *bool) ([]api.ParseResult, error) {
	results := make([]api.ParseResult, 0, len(filenames))

	for start := 0; start < len(filenames); start += api.MaxBatchSize {
		end := start + api.MaxBatchSize
		if end > len(filenames) {
			end = len(filenames)
		}

		var out api.ParseBatchResponse
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(api.ParseRequest{Filenames: filenames[start:end], Roman: roman}).
			SetResult(&out).
			SetError(&api.ErrorResponse{}).
			Post("/parse")
		if err := check(resp, err); err != nil {
			return nil, err
		}
		results = append(results, out.Results...)
	}

	return results, nil
}

func (c *Client) Rules(ctx context.Context) ([]api.RuleInfo, error) {
	var out []api.RuleInfo
	if err := c.get(ctx, "/rules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Roman(ctx context.Context, numeral string) (int, error) {
	var out api.RomanResult
	if err := c.get(ctx, "/roman/"+url.PathEscape(numeral), nil, &out); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// Files lists stored parse results matching filter.
func (c *Client) Files(ctx context.Context, filter database.ListFilter) ([]api.FileInfo, error) {
	q := url.Values{}
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.Movie != "" {
		q.Set("movie", filter.Movie)
	}
	if filter.Rule != "" {
		q.Set("rule", filter.Rule)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var out []api.FileInfo
	if err := c.get(ctx, "/files", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Scans(ctx context.Context, limit int) ([]api.ScanInfo, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []api.ScanInfo
	if err := c.get(ctx, "/scans", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
