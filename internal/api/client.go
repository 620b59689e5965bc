// Package api implements the REST client for the document/chat backend.
// The backend owns all document and retrieval state; this client only
// moves envelopes across the wire. Every response must be JSON with a
// success flag: success=false becomes an *APIError carrying the server's
// reason, anything undecodable becomes ErrDecode.
package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"paperchat/internal/logging"
)

// Backend is the surface the UI and CLI talk to. *Client implements it;
// tests substitute their own.
type Backend interface {
	ListDocuments(ctx context.Context) ([]Document, error)
	UploadDocument(ctx context.Context, path string) error
	DeleteDocument(ctx context.Context, id string) error
	Ask(ctx context.Context, question, mode string) (*AskResponse, error)
}

// APIError is an application-level failure: the backend answered, but the
// envelope carried success=false. Reason is shown to the user verbatim.
type APIError struct {
	Reason string
}

func (e *APIError) Error() string { return e.Reason }

// ErrDecode marks responses that could not be interpreted as the expected
// JSON envelope (wrong content type, HTML error pages, truncated bodies).
var ErrDecode = errors.New("undecodable backend response")

// Config holds configuration for the backend client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:5000",
		Timeout:   120 * time.Second,
		UserAgent: "paperchat",
	}
}

// Client talks to the document/chat backend.
type Client struct {
	http *resty.Client
}

var _ Backend = (*Client)(nil)

// NewClient creates a client for the given base URL with default config.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom config.
func NewClientWithConfig(cfg Config) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		hc.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Client{http: hc}
}

// ListDocuments fetches the full document list. Callers replace their view
// wholesale with the result; there is no incremental patching.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var out listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get("/api/documents")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if err := checkJSON(resp); err != nil {
		return nil, err
	}
	if err := envelope(out.Success, out.Error); err != nil {
		return nil, err
	}
	logging.APIDebug("listed %d documents", len(out.Documents))
	return out.Documents, nil
}

// UploadDocument submits one file as multipart form field "file".
func (c *Client) UploadDocument(ctx context.Context, path string) error {
	name := filepath.Base(path)
	start := time.Now()

	var out statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", path).
		SetResult(&out).
		SetError(&out).
		Post("/api/documents")
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := checkJSON(resp); err != nil {
		return err
	}
	if err := envelope(out.Success, out.Error); err != nil {
		return err
	}
	logging.API("uploaded %s in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}

// DeleteDocument removes one document by id. The backend occasionally
// answers delete routes with HTML; checkJSON turns that into ErrDecode
// instead of a silent misparse.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	var out statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&out).
		Delete("/api/documents/{id}")
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if err := checkJSON(resp); err != nil {
		return err
	}
	if err := envelope(out.Success, out.Error); err != nil {
		return err
	}
	logging.API("deleted document %s", id)
	return nil
}

// Ask sends one chat turn and returns the backend's full answer envelope.
func (c *Client) Ask(ctx context.Context, question, mode string) (*AskResponse, error) {
	start := time.Now()

	var out AskResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(AskRequest{Question: question, KnowledgeMode: mode}).
		SetResult(&out).
		SetError(&out).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("sending chat turn: %w", err)
	}
	if err := checkJSON(resp); err != nil {
		return nil, err
	}
	if err := envelope(out.Success, out.Error); err != nil {
		return nil, err
	}
	logging.API("chat turn answered in %s (mode=%s, sources=%d, results=%d)",
		time.Since(start).Round(time.Millisecond), out.KnowledgeMode,
		out.SourcesUsed, out.SearchResultsCount)
	return &out, nil
}

// checkJSON rejects responses whose content type is not JSON. Resty only
// decodes JSON bodies, so a passing check means the envelope was filled.
func checkJSON(resp *resty.Response) error {
	ct := resp.Header().Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		return fmt.Errorf("%w: content type %q (status %s)", ErrDecode, ct, resp.Status())
	}
	return nil
}

// envelope converts a decoded success/error pair into an error.
func envelope(success bool, reason string) error {
	if success {
		return nil
	}
	if reason == "" {
		reason = "backend reported failure"
	}
	return &APIError{Reason: reason}
}
