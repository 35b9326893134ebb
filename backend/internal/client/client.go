// Package client talks to a running bom server over its /v1 HTTP API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bom-server/backend/internal/constants"
	"bom-server/backend/internal/models"
)

// Client is an HTTP client for the parts API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the server at baseURL
func New(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
}

// WithHTTPClient swaps the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Index returns the server's usage text
func (c *Client) Index(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// ListParts lists parts matching filter; empty means all
func (c *Client) ListParts(ctx context.Context, filter string) ([]models.PartView, error) {
	return c.do(ctx, http.MethodGet, partsPath(), query(constants.QueryFilter, filter), nil)
}

// CreatePart creates a part named name
func (c *Client) CreatePart(ctx context.Context, name string) (models.PartView, error) {
	return c.one(c.do(ctx, http.MethodPost, partsPath(), nil, models.NewPartRequest{Name: name}))
}

// GetPart fetches one part
func (c *Client) GetPart(ctx context.Context, id string) (models.PartView, error) {
	return c.one(c.do(ctx, http.MethodGet, partsPath(id), nil, nil))
}

// DeletePart deletes one part and returns it as it was
func (c *Client) DeletePart(ctx context.Context, id string) (models.PartView, error) {
	return c.one(c.do(ctx, http.MethodDelete, partsPath(id), nil, nil))
}

// GetChildren lists the immediate children of id matching filter
func (c *Client) GetChildren(ctx context.Context, id, filter string) ([]models.PartView, error) {
	return c.do(ctx, http.MethodGet, partsPath(id, "children"), query(constants.QueryFilter, filter), nil)
}

// UpdateChildren applies action (add, remove, replace) with children to id
func (c *Client) UpdateChildren(ctx context.Context, id, action string, children []string) (models.PartView, error) {
	if children == nil {
		children = []string{}
	}
	return c.one(c.do(ctx, http.MethodPost, partsPath(id, "children"), query(constants.QueryAction, action),
		models.UpdateChildrenRequest{Children: children}))
}

// Contained lists every assembly that contains id
func (c *Client) Contained(ctx context.Context, id string) ([]models.PartView, error) {
	return c.do(ctx, http.MethodGet, partsPath(id, "contained"), nil, nil)
}

// Descendants lists every part below id matching filter
func (c *Client) Descendants(ctx context.Context, id, filter string) ([]models.PartView, error) {
	return c.do(ctx, http.MethodGet, partsPath(id, "descendants"), query(constants.QueryFilter, filter), nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) ([]models.PartView, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Calling bom server", zap.String("method", method), zap.String("url", u))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope models.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return nil, models.ErrResponse{Status: resp.StatusCode, Body: *envelope.Error}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	for _, p := range envelope.Data {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return envelope.Data, nil
}

func (c *Client) one(parts []models.PartView, err error) (models.PartView, error) {
	if err != nil {
		return models.PartView{}, err
	}
	if len(parts) != 1 {
		return models.PartView{}, fmt.Errorf("expected one part, got %d", len(parts))
	}
	return parts[0], nil
}

func partsPath(segments ...string) string {
	p := constants.APIVersionPrefix + constants.PartsPath
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

func query(key, value string) url.Values {
	if value == "" {
		return nil
	}
	return url.Values{key: []string{value}}
}
