package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/markmdev/networking-copilot/internal/resilience"
)

// Default base URL for the Bright Data datasets v3 API.
const defaultBaseURL = "https://api.brightdata.com/datasets/v3"

// ErrNotReady is returned by Download while the snapshot is still being built.
var ErrNotReady = errors.New("brightdata: snapshot not ready")

// Client defines the Bright Data datasets API operations.
type Client interface {
	Trigger(ctx context.Context, datasetID string, inputs []Input) (string, error)
	Progress(ctx context.Context, snapshotID string) (*ProgressResponse, error)
	Download(ctx context.Context, snapshotID string) ([]json.RawMessage, error)
}

// Input is one row of a trigger request. Profile collection only sets URL;
// people search also sets the name fields.
type Input struct {
	URL       string `json:"url"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// TriggerResponse is the response from POST /trigger.
type TriggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// ProgressResponse is the response from GET /progress/{id}.
type ProgressResponse struct {
	SnapshotID string `json:"snapshot_id"`
	DatasetID  string `json:"dataset_id"`
	Status     string `json:"status"`
	Records    int    `json:"records,omitempty"`
	Errors     int    `json:"errors,omitempty"`
}

// APIError is returned when Bright Data responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brightdata: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

// WithCircuitBreaker fails requests fast while the API keeps returning
// transient errors.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// NewClient creates a new Bright Data client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Trigger(ctx context.Context, datasetID string, inputs []Input) (string, error) {
	q := url.Values{}
	q.Set("dataset_id", datasetID)
	q.Set("include_errors", "true")

	var resp TriggerResponse
	if _, err := c.call(ctx, http.MethodPost, "/trigger?"+q.Encode(), inputs, &resp); err != nil {
		return "", eris.Wrapf(err, "brightdata: trigger dataset %s", datasetID)
	}
	if resp.SnapshotID == "" {
		return "", eris.Errorf("brightdata: trigger dataset %s: response missing snapshot_id", datasetID)
	}
	return resp.SnapshotID, nil
}

func (c *httpClient) Progress(ctx context.Context, snapshotID string) (*ProgressResponse, error) {
	var resp ProgressResponse
	if _, err := c.call(ctx, http.MethodGet, "/progress/"+url.PathEscape(snapshotID), nil, &resp); err != nil {
		return nil, eris.Wrapf(err, "brightdata: progress %s", snapshotID)
	}
	return &resp, nil
}

func (c *httpClient) Download(ctx context.Context, snapshotID string) ([]json.RawMessage, error) {
	var raw json.RawMessage
	status, err := c.call(ctx, http.MethodGet, "/snapshot/"+url.PathEscape(snapshotID)+"?format=json", nil, &raw)
	if err != nil {
		return nil, eris.Wrapf(err, "brightdata: download %s", snapshotID)
	}
	// 202 means the snapshot is still building; the body is a status object.
	if status == http.StatusAccepted {
		return nil, ErrNotReady
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, eris.Wrapf(err, "brightdata: download %s: response is not a list of records", snapshotID)
	}
	return records, nil
}

func (c *httpClient) call(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, eris.Wrap(err, "rate limit wait")
		}
	}

	if c.breaker == nil {
		return c.do(req, out)
	}
	var status int
	err = c.breaker.Execute(ctx, func(context.Context) error {
		var err error
		status, err = c.do(req, out)
		return err
	})
	return status, err
}

func (c *httpClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resp.StatusCode, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return resp.StatusCode, apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, eris.Wrap(err, "decode response")
	}
	return resp.StatusCode, nil
}
