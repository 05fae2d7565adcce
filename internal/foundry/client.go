// Package foundry implements the HTTP client for the remote agent
// service. It satisfies core.Client and owns the wire details: bearer
// auth, cursor paging, and the error taxonomy the retry policy consumes.
package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/barysiuk/agentsync/internal/core"
)

const (
	defaultTimeout = 30 * time.Second
	pageLimit      = 100
)

// Options configures a Client.
type Options struct {
	// Endpoint is the service base URL, e.g. https://foundry.example.com/v1.
	Endpoint string
	// Token is the bearer token sent with every request. Optional; some
	// deployments authenticate at the network layer.
	Token string
	// HTTPClient overrides the underlying transport. Nil selects a client
	// with a 30 second timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the agent service over HTTP.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a client. The endpoint is required.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("service endpoint is required (set %s or configure it)", core.EnvEndpoint)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := opts.Endpoint
	for len(endpoint) > 0 && endpoint[len(endpoint)-1] == '/' {
		endpoint = endpoint[:len(endpoint)-1]
	}
	return &Client{endpoint: endpoint, token: opts.Token, http: hc, logger: logger}, nil
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Message)
}

// Transient reports whether the failure is worth retrying: rate limits
// and server-side errors are, client errors are not.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// transportError wraps a network-level failure. Always transient.
type transportError struct {
	err error
}

func (e *transportError) Error() string   { return e.err.Error() }
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Transient() bool { return true }

type listResponse struct {
	Data    []map[string]any `json:"data"`
	HasMore bool             `json:"has_more"`
	LastID  string           `json:"last_id"`
}

// ListAgents returns every agent on the service, following the paging
// cursor until exhausted.
func (c *Client) ListAgents(ctx context.Context) ([]core.RemoteAgent, error) {
	var agents []core.RemoteAgent
	after := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(pageLimit)}}
		if after != "" {
			q.Set("after", after)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, "/agents?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, fields := range page.Data {
			agents = append(agents, remoteFromFields(fields))
		}
		if !page.HasMore || page.LastID == "" {
			return agents, nil
		}
		after = page.LastID
	}
}

// CreateAgent registers a new agent from the given payload.
func (c *Client) CreateAgent(ctx context.Context, fields map[string]any) (core.RemoteAgent, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/agents", fields, &out); err != nil {
		return core.RemoteAgent{}, err
	}
	return remoteFromFields(out), nil
}

// UpdateAgent replaces the definition of an existing agent.
func (c *Client) UpdateAgent(ctx context.Context, id string, fields map[string]any) (core.RemoteAgent, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/agents/"+url.PathEscape(id), fields, &out); err != nil {
		return core.RemoteAgent{}, err
	}
	return remoteFromFields(out), nil
}

// GetAgent fetches a single agent by id.
func (c *Client) GetAgent(ctx context.Context, id string) (core.RemoteAgent, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/agents/"+url.PathEscape(id), nil, &out); err != nil {
		return core.RemoteAgent{}, err
	}
	return remoteFromFields(out), nil
}

// DeleteAgent removes an agent by id.
func (c *Client) DeleteAgent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/agents/"+url.PathEscape(id), nil, nil)
}

// do performs one request. A 404 maps to core.ErrNotFound, other non-2xx
// statuses to *APIError, and network failures to a transient wrapper.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("service request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorMessage extracts a message from an error response body, falling
// back to the raw body.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(raw)
}

// remoteFromFields builds a RemoteAgent handle from a raw service object.
func remoteFromFields(fields map[string]any) core.RemoteAgent {
	id, _ := fields["id"].(string)
	name, _ := fields["name"].(string)
	return core.RemoteAgent{ID: id, Name: name, Fields: fields}
}
