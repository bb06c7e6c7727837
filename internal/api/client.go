// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the draftpad document server.
//
// This file implements the documents CRUD surface, import/export helpers,
// and the health probe. Every failure is scoped to the single call that hit
// it: there is no automatic retry anywhere in the client, a failed operation
// simply reports its error and the next user action starts fresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds non-streaming requests. Streaming exchanges are
	// bounded by the session's context instead.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps response bodies to keep a misbehaving server from
	// exhausting memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// defaultRequestsPerSecond is the client-side request limiter rate.
	defaultRequestsPerSecond = 10
	defaultRequestBurst      = 5
)

// Error variables for common server errors.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrServerUnavailable indicates the server could not be reached.
	ErrServerUnavailable = errors.New("server unavailable")
)

// APIError represents a structured error response from the server.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// apiErrorResponse is the server's error body shape: {"detail": "..."}.
type apiErrorResponse struct {
	Detail string `json:"detail"`
}

// healthResponse is the body of the health probe.
type healthResponse struct {
	Status string `json:"status"`
}

// deleteResponse is the body returned by a successful delete.
type deleteResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the draftpad document server.
//
// The base address is injected at construction; nothing in this package
// reads it from a global. One Client is shared by the TUI, the CLI REPL,
// and the session controller.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   DefaultTimeout,
		},
		// No client timeout on the streaming exchange: the long-lived
		// response is bounded by the session context.
		streamClient: &http.Client{
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestBurst),
	}
}

// WithTimeout sets the timeout for non-streaming requests.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithRateLimit sets the client-side request limiter.
func (c *Client) WithRateLimit(perSecond float64, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// DOCUMENTS CRUD
// =============================================================================

// ListDocuments returns all documents on the server.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument fetches one document by ID.
// Returns ErrNotFound (wrapped) when the document does not exist.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+id, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument creates a new document and returns the server's copy.
func (c *Client) CreateDocument(ctx context.Context, create DocumentCreate) (*Document, error) {
	var doc Document
	if err := c.doJSON(ctx, http.MethodPost, "/api/documents/", create, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument applies a partial update and returns the updated document.
func (c *Client) UpdateDocument(ctx context.Context, id string, update DocumentUpdate) (*Document, error) {
	var doc Document
	if err := c.doJSON(ctx, http.MethodPut, "/api/documents/"+id, update, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	var resp deleteResponse
	return c.doJSON(ctx, http.MethodDelete, "/api/documents/"+id, nil, &resp)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health probes the server. A failure is reported to the user as a
// dismissible notice, never treated as fatal.
func (c *Client) Health(ctx context.Context) error {
	var resp healthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/chat/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("server reported status %q", resp.Status)
	}
	return nil
}

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

// ImportFile uploads a local markdown or text file as a new document.
// The document title is the file's base name without extension.
func (c *Client) ImportFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if title == "" {
		title = "imported-" + uuid.NewString()[:8]
	}

	return c.CreateDocument(ctx, DocumentCreate{
		Title:   title,
		Content: string(data),
	})
}

// ExportFile writes a document's content to a local file.
func (c *Client) ExportFile(ctx context.Context, id, path string) error {
	doc, err := c.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// doJSON performs one JSON request/response round trip.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	requestID := req.Header.Get("X-Request-ID")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("api: %s %s [%s] failed: %v", method, path, requestID, err)
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	log.Printf("api: %s %s [%s] -> %d (%v)", method, path, requestID, resp.StatusCode, time.Since(start))

	respBody, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// setHeaders sets the headers common to every server request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "draftpad/0.3.0")
	// Request IDs correlate client log lines with server-side logs.
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// readResponse reads a response body with the size cap applied.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to typed Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	detail := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		detail = apiErr.Detail
	}

	if statusCode == http.StatusNotFound {
		if detail != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, detail)
		}
		return ErrNotFound
	}

	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	return &APIError{Status: statusCode, Detail: detail}
}
