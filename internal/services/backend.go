package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

const defaultDetailCacheSize = 128

// BackendService implements [Backend] over HTTP.
type BackendService struct {
	api     *APIService
	details *lru.Cache[models.ProtocolID, *models.ProtocolDetail]
}

// NewBackendService wraps api. cacheSize bounds the protocol detail cache.
func NewBackendService(api *APIService, cacheSize int) (*BackendService, error) {
	if cacheSize <= 0 {
		cacheSize = defaultDetailCacheSize
	}
	cache, err := lru.New[models.ProtocolID, *models.ProtocolDetail](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create detail cache: %w", err)
	}
	return &BackendService{api: api, details: cache}, nil
}

// Health calls GET /health.
func (b *BackendService) Health(ctx context.Context) (*models.Health, error) {
	resp, err := b.api.Get(ctx, "health", "/health")
	if err != nil {
		return nil, err
	}

	var h models.Health
	if err := resp.DecodeJSON(&h); err != nil {
		return nil, &shared.NetworkError{Op: "health", Err: err}
	}
	return &h, nil
}

// Upload sends files as one multipart request under the repeated "files" field.
func (b *BackendService) Upload(ctx context.Context, files []models.SelectedFile) ([]models.UploadedFileDescriptor, error) {
	body, contentType, err := multipartBody(files)
	if err != nil {
		return nil, err
	}

	resp, err := b.api.Do(ctx, "upload", http.MethodPost, "/upload", body, contentType)
	if err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, &shared.NetworkError{Op: "upload", Err: err}
	}
	return result.Files, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(files []models.SelectedFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		if err := writeFilePart(w, f); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, f models.SelectedFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer src.Close()

	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return nil
}

// Generate calls POST /generate.
func (b *BackendService) Generate(ctx context.Context, req models.ProtocolDraftRequest) (*models.GeneratedProtocolHandle, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	resp, err := b.api.Post(ctx, "generate", "/generate", data)
	if err != nil {
		return nil, err
	}

	var handle models.GeneratedProtocolHandle
	if err := resp.DecodeJSON(&handle); err != nil {
		return nil, &shared.NetworkError{Op: "generate", Err: err}
	}
	if handle.ProtocolID == "" {
		return nil, &shared.NetworkError{Op: "generate", Message: "response carried no protocol id"}
	}
	return &handle, nil
}

// ListProtocols calls GET /protocols.
func (b *BackendService) ListProtocols(ctx context.Context) ([]models.ProtocolSummary, error) {
	resp, err := b.api.Get(ctx, "list protocols", "/protocols")
	if err != nil {
		return nil, err
	}

	var list models.ProtocolList
	if err := resp.DecodeJSON(&list); err != nil {
		return nil, &shared.NetworkError{Op: "list protocols", Err: err}
	}
	return list.Protocols, nil
}

// GetProtocol calls GET /protocols/{id}.
//
// Completed protocols are cached; drafts are always fetched.
func (b *BackendService) GetProtocol(ctx context.Context, id models.ProtocolID) (*models.ProtocolDetail, error) {
	if d, ok := b.details.Get(id); ok {
		return d, nil
	}

	resp, err := b.api.Get(ctx, "get protocol", "/protocols/"+url.PathEscape(id.String()))
	if err != nil {
		var nerr *shared.NetworkError
		if errors.As(err, &nerr) && nerr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("protocol %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}

	var d models.ProtocolDetail
	if err := resp.DecodeJSON(&d); err != nil {
		return nil, &shared.NetworkError{Op: "get protocol", Err: err}
	}
	if d.IsCompleted() {
		b.details.Add(id, &d)
	}
	return &d, nil
}

// Forget drops id from the detail cache.
func (b *BackendService) Forget(id models.ProtocolID) {
	b.details.Remove(id)
}

// Download calls GET /download/{id}/{kind}. A 404 becomes [shared.ArtifactNotFoundError].
func (b *BackendService) Download(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error) {
	path := fmt.Sprintf("/download/%s/%s", url.PathEscape(id.String()), kind)

	resp, err := b.api.Get(ctx, "download", path)
	if err != nil {
		var nerr *shared.NetworkError
		if errors.As(err, &nerr) && nerr.StatusCode == http.StatusNotFound {
			return nil, &shared.ArtifactNotFoundError{ProtocolID: id.String(), Kind: string(kind)}
		}
		return nil, err
	}
	return resp.Body, nil
}

// RegeneratePDF calls POST /test-pdf/{id}. A response with success=false is an error.
func (b *BackendService) RegeneratePDF(ctx context.Context, id models.ProtocolID) (*models.PDFResult, error) {
	resp, err := b.api.Post(ctx, "regenerate pdf", "/test-pdf/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return nil, err
	}

	var result models.PDFResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, &shared.NetworkError{Op: "regenerate pdf", Err: err}
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		return &result, &shared.NetworkError{Op: "regenerate pdf", Message: msg}
	}
	return &result, nil
}

// BulkDownload calls GET /bulk-download/{kind} and returns the zip archive.
func (b *BackendService) BulkDownload(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
	resp, err := b.api.Get(ctx, "bulk download", "/bulk-download/"+string(kind))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// TestLLM calls POST /test-llm.
func (b *BackendService) TestLLM(ctx context.Context, req models.LLMTestRequest) (*models.LLMTestResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode llm test request: %w", err)
	}

	resp, err := b.api.Post(ctx, "test llm", "/test-llm", data)
	if err != nil {
		return nil, err
	}

	var result models.LLMTestResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, &shared.NetworkError{Op: "test llm", Err: err}
	}
	return &result, nil
}
