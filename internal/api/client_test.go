package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClientWithConfig(Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestListDocuments(t *testing.T) {
	want := []Document{
		{PDFID: "a1", PDFName: "thesis.pdf", ChunkCount: 42, Pages: []int{1, 2, 3}},
		{PDFID: "b2", PDFName: "notes.pdf", ChunkCount: 7, Pages: []int{1}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/documents", r.URL.Path)
		writeJSON(w, map[string]any{"success": true, "documents": want})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).ListDocuments(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document list mismatch (-want +got):\n%s", diff)
	}
}

func TestListDocuments_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": "index unavailable"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListDocuments(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %T: %v", err, err)
	assert.Equal(t, "index unavailable", apiErr.Reason)
}

func TestUploadDocument_SendsMultipartFileField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

	var gotName string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/documents", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err, "multipart field must be named 'file'")
		defer file.Close()
		gotName = header.Filename
		gotBody, _ = io.ReadAll(file)

		writeJSON(w, map[string]any{"success": true})
	}))
	defer srv.Close()

	err := newTestClient(srv).UploadDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", gotName)
	assert.Equal(t, []byte("%PDF-1.4 fake"), gotBody)
}

func TestUploadDocument_BackendRejects(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": "could not extract text"})
	}))
	defer srv.Close()

	err := newTestClient(srv).UploadDocument(context.Background(), path)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "could not extract text", apiErr.Reason)
}

func TestDeleteDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/documents/doc-123", r.URL.Path)
		writeJSON(w, map[string]any{"success": true})
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv).DeleteDocument(context.Background(), "doc-123"))
}

func TestDeleteDocument_NonJSONResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>404</body></html>"))
	}))
	defer srv.Close()

	err := newTestClient(srv).DeleteDocument(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "non-JSON must not decode into an APIError")
}

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		var req AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is in document X?", req.Question)
		assert.Equal(t, "strict", req.KnowledgeMode)

		writeJSON(w, map[string]any{
			"success":              true,
			"answer":               "Document X covers **temporal logic**.",
			"timestamp":            "2025-11-03T10:00:00Z",
			"knowledge_mode":       "strict",
			"sources_used":         3,
			"search_results_count": 0,
			"token_usage":          map[string]int{"total_tokens": 512, "prompt_tokens": 400, "completion_tokens": 112},
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Ask(context.Background(), "What is in document X?", "strict")
	require.NoError(t, err)
	assert.Equal(t, "Document X covers **temporal logic**.", resp.Answer)
	assert.Equal(t, "strict", resp.KnowledgeMode)
	assert.Equal(t, 3, resp.SourcesUsed)
	require.NotNil(t, resp.TokenUsage)
	assert.Equal(t, 512, resp.TokenUsage.TotalTokens)
}

func TestAsk_ApplicationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": "No documents"})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).Ask(context.Background(), "anything", "strict")
	assert.Nil(t, resp)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "No documents", apiErr.Reason)
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately: connection refused

	_, err := newTestClient(srv).ListDocuments(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures must not masquerade as backend refusals")
}

func TestDocumentPageCount(t *testing.T) {
	d := Document{Pages: []int{1, 2, 5}}
	assert.Equal(t, 3, d.PageCount())
	assert.Equal(t, 0, Document{}.PageCount())
}
