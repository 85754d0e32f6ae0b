package zaobao

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Client issues briefing fetches against a single endpoint. It holds no
// mutable state, so one Client may be shared across goroutines and
// every call is independent.
type Client struct {
	cfg        Config
	render     RenderOptions
	httpClient *http.Client
}

// NewClient creates a Client for the given config. Endpoint defaults to
// the production API and Timeout to 10 seconds when unset.
func NewClient(cfg Config, render RenderOptions) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		render:     render,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch performs the single POST and returns the validated payload.
// All failures come back as *FetchError carrying the fixed user-facing
// message for the failure class.
func (c *Client) Fetch(ctx context.Context) (*Payload, *FetchError) {
	reqBody, err := json.Marshal(map[string]string{
		"token":  c.cfg.Token,
		"format": "json",
	})
	if err != nil {
		return nil, malformedError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection errors, DNS failures and timeouts all land here
		// and are treated identically.
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, malformedError(err)
	}
	if env.Code == nil {
		return nil, malformedError(errMissingCode)
	}

	if *env.Code != 200 {
		return nil, upstreamError(*env.Code, env.Msg)
	}

	payload := env.Data
	if payload.Date == "" {
		return nil, missingFieldError("date")
	}
	if !payload.News.Present {
		return nil, missingFieldError("news")
	}
	if payload.Weiyu == "" {
		return nil, missingFieldError("weiyu")
	}

	return &payload, nil
}

// FetchAndRender runs the full pipeline and always returns a string:
// the rendered brief on success, the failure message otherwise. This is
// the surface chat deployments call directly.
func (c *Client) FetchAndRender(ctx context.Context) string {
	payload, ferr := c.Fetch(ctx)
	if ferr != nil {
		return ferr.Message
	}

	text, ferr := Render(payload, c.render)
	if ferr != nil {
		return ferr.Message
	}
	return text
}
