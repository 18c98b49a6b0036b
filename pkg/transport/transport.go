// Package transport opens the upstream chat-completion stream.
//
// It only deals with the HTTP leg:
//
//	deepstream --POST JSON--> upstream provider --text/event-stream--> deepstream
//
// The returned body is handed to pkg/stream unread.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/papercomputeco/deepstream/pkg/llm"
	"github.com/papercomputeco/deepstream/pkg/llm/provider"
	"github.com/papercomputeco/deepstream/pkg/logger"
)

// maxErrorBody caps how much of a non-2xx response body is kept on StatusError.
const maxErrorBody = 1024

// Config is the configuration for a Client.
type Config struct {
	// BaseURL is the upstream API root, e.g. "https://api.deepseek.com".
	BaseURL string

	// APIKey is sent as a bearer token. Empty disables the Authorization header.
	APIKey string

	// Provider supplies the chat path.
	Provider provider.Provider

	// Headers are extra request headers. Headers the transport owns are skipped.
	Headers map[string]string

	// HTTPClient defaults to a client with no timeout; the request context
	// governs cancellation.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client posts streaming chat requests to one upstream.
type Client struct {
	url     string
	apiKey  string
	headers http.Header
	http    *http.Client
	logger  *slog.Logger
}

// New validates c and returns a Client.
func New(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if c.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		url:     strings.TrimSuffix(c.BaseURL, "/") + c.Provider.ChatPath(),
		apiKey:  c.APIKey,
		headers: filterHeaders(c.Headers),
		http:    httpClient,
		logger:  log,
	}, nil
}

// URL returns the full chat endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Open sends req and returns the response body once a 2xx status is received.
// The caller must close the body. Non-2xx responses are returned as
// *StatusError with the body already consumed.
func (c *Client) Open(ctx context.Context, req *llm.ChatRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range c.headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("opening upstream stream",
		"url", c.url,
		"model", req.Model,
		"message_count", len(req.Messages),
		"temperature", req.Temperature,
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request upstream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return resp.Body, nil
}
