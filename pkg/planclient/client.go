// Package planclient talks to the plan API that backs the database creation
// form: the plans offered for an engine and the environments offered for a
// plan.
package planclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

// RequestIDHeader carries the id generated for every outgoing request.
const RequestIDHeader = "X-Request-ID"

// Client implements formdeps.OptionSource over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ formdeps.OptionSource = (*Client)(nil)

// NewClient creates a client. A nil cfg uses DefaultClientConfig.
func NewClient(cfg *ClientConfig, logger *slog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.baseURL(),
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// errorPayload is the body of an application-level failure. An empty
// message counts as no error.
type errorPayload struct {
	Error string `json:"error"`
}

func (p errorPayload) failed() bool { return p.Error != "" }

type planDetail struct {
	errorPayload
	Environments []formdeps.Option `json:"environments"`
}

// PlansForEngine performs GET /plan/?engine_id={engineID}.
func (c *Client) PlansForEngine(ctx context.Context, engineID formdeps.ID) ([]formdeps.Option, error) {
	path := "/plan/?" + url.Values{"engine_id": {engineID.String()}}.Encode()
	return c.getOptionList(ctx, path)
}

// EnvironmentsForPlan performs GET /plan/{planID}/.
func (c *Client) EnvironmentsForPlan(ctx context.Context, planID formdeps.ID) ([]formdeps.Option, error) {
	path := fmt.Sprintf("/plan/%s/", planID)
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var detail planDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &formdeps.TransportError{Op: "GET " + path, Err: fmt.Errorf("decode error: %w", err)}
	}
	if detail.failed() {
		return nil, &formdeps.ApplicationError{Message: detail.Error}
	}
	if detail.Environments == nil {
		return nil, &formdeps.TransportError{Op: "GET " + path, Err: errors.New("response has no environments")}
	}
	return detail.Environments, nil
}

// Engines performs GET /engine/ and returns the engines the form offers.
func (c *Client) Engines(ctx context.Context) ([]formdeps.Option, error) {
	return c.getOptionList(ctx, "/engine/")
}

// Health performs GET /healthz.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.getStatus(ctx, "/healthz")
}

// Ready performs GET /readyz. A server that is not ready answers 503, which
// is returned as a TransportError.
func (c *Client) Ready(ctx context.Context) (map[string]any, error) {
	return c.getStatus(ctx, "/readyz")
}

func (c *Client) getStatus(ctx context.Context, path string) (map[string]any, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &formdeps.TransportError{Op: "GET " + path, Err: fmt.Errorf("decode error: %w", err)}
	}
	return result, nil
}

// getOptionList decodes a body that is either a list of options or an error
// payload.
func (c *Client) getOptionList(ctx context.Context, path string) ([]formdeps.Option, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload errorPayload
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, &formdeps.TransportError{Op: "GET " + path, Err: fmt.Errorf("decode error: %w", err)}
		}
		if payload.failed() {
			return nil, &formdeps.ApplicationError{Message: payload.Error}
		}
		return nil, &formdeps.TransportError{Op: "GET " + path, Err: errors.New("expected a list")}
	}

	var opts []formdeps.Option
	if err := json.Unmarshal(trimmed, &opts); err != nil {
		return nil, &formdeps.TransportError{Op: "GET " + path, Err: fmt.Errorf("decode error: %w", err)}
	}
	if opts == nil {
		opts = []formdeps.Option{}
	}
	return opts, nil
}

// get performs a GET request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	op := "GET " + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &formdeps.TransportError{Op: op, Err: fmt.Errorf("request creation failed: %w", err)}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &formdeps.TransportError{Op: op, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &formdeps.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("plan api response", "path", path, "status", resp.StatusCode, "requestId", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &formdeps.TransportError{Op: op, Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))}
	}
	return body, nil
}
