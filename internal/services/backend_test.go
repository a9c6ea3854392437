package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	tu "github.com/desertthunder/protokoll/internal/testing"
)

func newTestBackend(t *testing.T, handler http.Handler) *BackendService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	b, err := NewBackendService(NewAPIService(server.URL, nil, 0, nil), 4)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	return b
}

func TestBackendService(t *testing.T) {
	ctx := context.Background()

	t.Run("Health", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"healthy","services":{"llm":true,"database":false}}`))
		}))

		h, err := b.Health(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !h.Healthy() || !h.Services.LLM || h.Services.Database {
			t.Errorf("unexpected health %+v", h)
		}
	})

	t.Run("Upload", func(t *testing.T) {
		pathA := tu.WriteTempFile(t, "probe.png", []byte("\x89PNG\r\n\x1a\n"))
		pathB := tu.WriteTempFile(t, "messwerte.csv", []byte("a,b\n"))

		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/upload" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("failed to parse multipart form: %v", err)
				return
			}

			headers := r.MultipartForm.File["files"]
			if len(headers) != 2 {
				t.Errorf("expected 2 files under one field, got %d", len(headers))
				return
			}
			if headers[0].Filename != "probe.png" || headers[1].Filename != "messwerte.csv" {
				t.Errorf("unexpected filenames %s, %s", headers[0].Filename, headers[1].Filename)
			}
			if ct := headers[0].Header.Get("Content-Type"); ct != "image/png" {
				t.Errorf("expected image/png part, got %q", ct)
			}

			w.Write([]byte(`{"success":true,"files":[
				{"original_name":"probe.png","type":"images","size":8,"extracted_text":"12,4 ml"},
				{"original_name":"messwerte.csv","type":"data","size":4}]}`))
		}))

		files := []models.SelectedFile{
			{Name: "probe.png", Path: pathA, Size: 8, MimeType: "image/png"},
			{Name: "messwerte.csv", Path: pathB, Size: 4},
		}

		descriptors, err := b.Upload(ctx, files)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(descriptors) != 2 {
			t.Fatalf("expected 2 descriptors, got %d", len(descriptors))
		}
		if descriptors[0].Type != models.FileImage || descriptors[1].Type != models.FileSpreadsheet {
			t.Errorf("unexpected types %q %q", descriptors[0].Type, descriptors[1].Type)
		}
	})

	t.Run("Upload Missing File", func(t *testing.T) {
		var hits atomic.Int32
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))

		_, err := b.Upload(ctx, []models.SelectedFile{{Name: "gone.txt", Path: "/does/not/exist.txt"}})
		if err == nil {
			t.Fatal("expected error")
		}
		if hits.Load() != 0 {
			t.Error("expected no request when a file cannot be read")
		}
	})

	t.Run("Generate", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req models.ProtocolDraftRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req.Title != "Titration" || len(req.Files) != 1 {
				t.Errorf("unexpected request %+v", req)
			}
			w.Write([]byte(`{"success":true,"protocol_id":9,"latex_file":"x.tex"}`))
		}))

		req, _ := models.NewDraftRequest("Titration", "", []models.UploadedFileDescriptor{models.ManualDescriptor("", "x")})
		handle, err := b.Generate(ctx, req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if handle.ProtocolID != "9" {
			t.Errorf("expected protocol id 9, got %q", handle.ProtocolID)
		}
	})

	t.Run("Generate Without Id", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		}))

		if _, err := b.Generate(ctx, models.ProtocolDraftRequest{Title: "x"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("ListProtocols", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"protocols":[
				{"id":1,"title":"Dichte","status":"draft","created_at":"2024-01-01T08:00:00","updated_at":"2024-01-01T08:00:00"},
				{"id":2,"title":"Titration","status":"completed","created_at":"2024-01-02T08:00:00","updated_at":"2024-01-02T08:00:00"}]}`))
		}))

		list, err := b.ListProtocols(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(list) != 2 || list[1].ID != "2" || !list[1].IsCompleted() {
			t.Errorf("unexpected list %+v", list)
		}
	})

	t.Run("GetProtocol Caches Completed", func(t *testing.T) {
		var hits atomic.Int32
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if r.URL.Path != "/protocols/2" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":2,"title":"Titration","status":"completed","created_at":"2024-01-02T08:00:00","updated_at":"2024-01-02T08:00:00"}`))
		}))

		for range 3 {
			d, err := b.GetProtocol(ctx, "2")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if d.Title != "Titration" {
				t.Errorf("unexpected title %q", d.Title)
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected one request, got %d", hits.Load())
		}

		b.Forget("2")
		if _, err := b.GetProtocol(ctx, "2"); err != nil {
			t.Fatal(err)
		}
		if hits.Load() != 2 {
			t.Errorf("expected refetch after Forget, got %d requests", hits.Load())
		}
	})

	t.Run("GetProtocol Does Not Cache Drafts", func(t *testing.T) {
		var hits atomic.Int32
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write([]byte(`{"id":1,"title":"Dichte","status":"draft"}`))
		}))

		b.GetProtocol(ctx, "1")
		b.GetProtocol(ctx, "1")
		if hits.Load() != 2 {
			t.Errorf("expected two requests, got %d", hits.Load())
		}
	})

	t.Run("GetProtocol Not Found", func(t *testing.T) {
		b := newTestBackend(t, http.NotFoundHandler())

		if _, err := b.GetProtocol(ctx, "404"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Download", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/download/3/pdf":
				w.Header().Set("Content-Type", "application/pdf")
				w.Write([]byte("%PDF-1.4"))
			default:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"Datei nicht gefunden"}`))
			}
		}))

		data, err := b.Download(ctx, "3", models.ArtifactPDF)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "%PDF-1.4" {
			t.Errorf("unexpected body %q", data)
		}

		_, err = b.Download(ctx, "3", models.ArtifactLaTeX)
		var aerr *shared.ArtifactNotFoundError
		if !errors.As(err, &aerr) {
			t.Fatalf("expected ArtifactNotFoundError, got %v", err)
		}
		if aerr.ProtocolID != "3" || aerr.Kind != "latex" {
			t.Errorf("unexpected error %+v", aerr)
		}
	})

	t.Run("Download Server Error", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := b.Download(ctx, "3", models.ArtifactPDF)
		if errors.Is(err, shared.ErrNotFound) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected a plain NetworkError, got %v", err)
		}
	})

	t.Run("RegeneratePDF", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			switch r.URL.Path {
			case "/test-pdf/3":
				w.Write([]byte(`{"success":true,"filename":"protokoll_3.pdf"}`))
			default:
				w.Write([]byte(`{"success":false,"error":"pdflatex fehlt"}`))
			}
		}))

		res, err := b.RegeneratePDF(ctx, "3")
		if err != nil || !res.Success {
			t.Fatalf("expected success, got %+v %v", res, err)
		}

		_, err = b.RegeneratePDF(ctx, "4")
		if shared.UserMessage(err) != "pdflatex fehlt" {
			t.Errorf("expected backend error message, got %v", err)
		}
	})

	t.Run("BulkDownload", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/bulk-download/latex" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/zip")
			w.Write([]byte("PK\x03\x04"))
		}))

		data, err := b.BulkDownload(ctx, models.ArtifactLaTeX)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(data) != 4 {
			t.Errorf("unexpected archive size %d", len(data))
		}
	})

	t.Run("TestLLM", func(t *testing.T) {
		b := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var req models.LLMTestRequest
			json.Unmarshal(body, &req)
			if req.ExperimentType != "Titration" {
				t.Errorf("unexpected request %s", body)
			}
			w.Write([]byte(`{"success":true,"protocol_id":11,"generated_content":"TITEL: Test","full_content_length":1200}`))
		}))

		res, err := b.TestLLM(ctx, models.DefaultLLMTestRequest())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Success || res.ProtocolID != "11" || res.FullContentLength != 1200 {
			t.Errorf("unexpected result %+v", res)
		}
	})
}
