// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testClient(url string) *Client {
	return NewClient(url).WithTimeout(5 * time.Second).WithRateLimit(1000, 100)
}

// =============================================================================
// DOCUMENT CRUD TESTS
// =============================================================================

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/doc-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %q", r.Method)
		}
		json.NewEncoder(w).Encode(Document{ID: "doc-1", Title: "Notes", Content: "line one"})
	}))
	defer srv.Close()

	doc, err := testClient(srv.URL).GetDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetDocument error: %v", err)
	}
	if doc.Title != "Notes" || doc.Content != "line one" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Document not found"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetDocument(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/documents/" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var create DocumentCreate
		json.NewDecoder(r.Body).Decode(&create)
		json.NewEncoder(w).Encode(Document{ID: "new-id", Title: create.Title, Content: create.Content})
	}))
	defer srv.Close()

	doc, err := testClient(srv.URL).CreateDocument(context.Background(), DocumentCreate{Title: "Draft"})
	if err != nil {
		t.Fatalf("CreateDocument error: %v", err)
	}
	if doc.ID != "new-id" || doc.Title != "Draft" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Document{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	docs, err := testClient(srv.URL).ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestDeleteDocument(t *testing.T) {
	deleted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = true
		}
		w.Write([]byte(`{"message":"Document deleted"}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).DeleteDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteDocument error: %v", err)
	}
	if !deleted {
		t.Error("DELETE request never reached the server")
	}
}

// =============================================================================
// ERROR HANDLING TESTS
// =============================================================================

func TestServerErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"model backend unavailable"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetDocument(context.Background(), "doc-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 500 || apiErr.Detail != "model backend unavailable" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := testClient(srv.URL).GetDocument(context.Background(), "doc-1")
	if !errors.Is(err, ErrServerUnavailable) {
		t.Errorf("error = %v, want ErrServerUnavailable", err)
	}
}

// =============================================================================
// HEALTH TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Health(context.Background()); err != nil {
		t.Errorf("Health error: %v", err)
	}
}

func TestHealthDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Health(context.Background()); err == nil {
		t.Error("Health should fail for non-healthy status")
	}
}

// =============================================================================
// IMPORT / EXPORT TESTS
// =============================================================================

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting-notes.md")
	if err := os.WriteFile(path, []byte("# Notes\n"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var create DocumentCreate
		json.NewDecoder(r.Body).Decode(&create)
		if create.Title != "meeting-notes" {
			t.Errorf("title = %q, want 'meeting-notes'", create.Title)
		}
		if create.Content != "# Notes\n" {
			t.Errorf("content = %q", create.Content)
		}
		json.NewEncoder(w).Encode(Document{ID: "imported", Title: create.Title})
	}))
	defer srv.Close()

	doc, err := testClient(srv.URL).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile error: %v", err)
	}
	if doc.ID != "imported" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestExportFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Document{ID: "doc-1", Content: "exported content"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.md")
	if err := testClient(srv.URL).ExportFile(context.Background(), "doc-1", path); err != nil {
		t.Fatalf("ExportFile error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "exported content" {
		t.Errorf("file content = %q", data)
	}
}
