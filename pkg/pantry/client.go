// Package pantry is a small REST client for the pantry document store: the
// source of truth for taste observation documents and their change feed.
package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configures the pantry API client.
type ClientOptions struct {
	// BaseURL is the base URL of the pantry service. Do not include /api/v1.
	BaseURL string
	// APIKey is the pantry API key.
	APIKey string
	// RetryMax is the maximum number of retries (default: 3).
	RetryMax int
	// Timeout is the HTTP client timeout (default: 30 seconds).
	Timeout time.Duration
}

// Client is the pantry API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a pantry API client with default settings.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}

// NewClientWithOptions creates a pantry API client with custom options.
func NewClientWithOptions(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/api/v1")

	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

func (c *Client) v1URL() string {
	return c.baseURL + "/api/v1"
}

// ListDocumentsOptions contains options for listing taste documents.
type ListDocumentsOptions struct {
	// Cursor resumes a paginated listing from a previous response.
	Cursor string
	// Limit caps the page size when positive.
	Limit int
}

// ListDocuments retrieves one page of taste observation documents.
func (c *Client) ListDocuments(ctx context.Context, opts ListDocumentsOptions) (*DocumentsResponse, error) {
	reqURL := fmt.Sprintf("%s/taste-documents", c.v1URL())

	params := url.Values{}
	if opts.Cursor != "" {
		params.Add("cursor", opts.Cursor)
	}

	if opts.Limit > 0 {
		params.Add("limit", strconv.Itoa(opts.Limit))
	}

	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var out DocumentsResponse
	if err := c.getJSON(ctx, reqURL, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetChangesOptions contains options for polling the change feed.
type GetChangesOptions struct {
	// Cursor resumes the feed from a previous response's NextCursor.
	Cursor string
	// Limit caps the page size when positive.
	Limit int
}

// GetChanges retrieves one page of the change feed.
func (c *Client) GetChanges(ctx context.Context, opts GetChangesOptions) (*ChangesResponse, error) {
	reqURL := fmt.Sprintf("%s/changes", c.v1URL())

	params := url.Values{}
	if opts.Cursor != "" {
		params.Add("cursor", opts.Cursor)
	}

	if opts.Limit > 0 {
		params.Add("limit", strconv.Itoa(opts.Limit))
	}

	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var out ChangesResponse
	if err := c.getJSON(ctx, reqURL, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Error("Failed to read error response body", "error", err)
		}

		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
