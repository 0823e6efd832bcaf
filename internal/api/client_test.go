package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/venrik/skydeck/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(newTestGateway(t, server.URL, "tok")), server
}

func TestListFilesPerProviderEndpoint(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"id":"f1","name":"a.txt","mimeType":"text/plain","size":10,"modifiedTime":"2026-08-30T10:00:00Z"}]`))
	})

	files, err := client.ListFiles(context.Background(), core.ProviderGoogleDrive)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if gotPath != "/api/files/" {
		t.Errorf("path: got %s, want /api/files/", gotPath)
	}
	if len(files) != 1 || files[0].ID != "f1" {
		t.Fatalf("unexpected files: %+v", files)
	}

	if _, err := client.ListFiles(context.Background(), core.ProviderDropbox); err != nil {
		t.Fatalf("ListFiles dropbox failed: %v", err)
	}
	if gotPath != "/api/dropbox/files/" {
		t.Errorf("path: got %s, want /api/dropbox/files/", gotPath)
	}
}

func TestListFilesRejectsNonArray(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files":[]}`))
	})

	_, err := client.ListFiles(context.Background(), core.ProviderGoogleDrive)

	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("got %v, want *ShapeError", err)
	}
}

func TestLoginReturnsToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"fresh"}`))
	})

	token, err := client.Login(context.Background(), Credentials{Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "fresh" {
		t.Errorf("token: got %q", token)
	}
}

func TestLoginMissingTokenIsShapeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Login(context.Background(), Credentials{Username: "u", Password: "p"})

	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("got %v, want *ShapeError", err)
	}
}

func TestDeleteFileEndpointShapes(t *testing.T) {
	var gotURL string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{}`))
	})

	file := core.FileEntry{ID: "abc", Name: "Report.pdf"}

	if err := client.DeleteFile(context.Background(), core.ProviderGoogleDrive, file); err != nil {
		t.Fatal(err)
	}
	if gotURL != "/api/files/abc/delete/" {
		t.Errorf("drive delete url: got %s", gotURL)
	}

	if err := client.DeleteFile(context.Background(), core.ProviderDropbox, file); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gotURL, "/api/dropbox/delete/?path=") || !strings.Contains(gotURL, "Report.pdf") {
		t.Errorf("dropbox delete url: got %s", gotURL)
	}
}

func TestFuzzySearchAcceptsBothShapes(t *testing.T) {
	responses := []string{
		`{"results":[{"id":"r1","name":"one"}]}`,
		`[{"id":"r2","name":"two"}]`,
	}
	call := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(responses[call]))
		call++
	})

	files, err := client.FuzzySearch(context.Background(), core.ProviderGoogleDrive, "one")
	if err != nil {
		t.Fatalf("wrapped shape: %v", err)
	}
	if len(files) != 1 || files[0].ID != "r1" {
		t.Fatalf("wrapped shape files: %+v", files)
	}

	files, err = client.FuzzySearch(context.Background(), core.ProviderDropbox, "two")
	if err != nil {
		t.Fatalf("bare shape: %v", err)
	}
	if len(files) != 1 || files[0].ID != "r2" {
		t.Fatalf("bare shape files: %+v", files)
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	var gotContentType string
	var gotName string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if _, header, err := r.FormFile("file"); err == nil {
				gotName = header.Filename
			}
		}
		w.Write([]byte(`{}`))
	})

	err := client.UploadFile(context.Background(), core.ProviderGoogleDrive, "notes.md", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}

	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("content type: got %q", gotContentType)
	}
	if gotName != "notes.md" {
		t.Errorf("filename: got %q", gotName)
	}
}

func TestSendChatMessageSurfacesBackendFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"document not indexed"}`))
	})

	_, err := client.SendChatMessage(context.Background(), "s1", "hello")
	if err == nil || err.Error() != "document not indexed" {
		t.Fatalf("got %v, want backend message", err)
	}
}
