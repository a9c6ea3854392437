// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/protokoll/internal/models"
)

// FakeBackend is a test double for services.Backend.
//
// Each method calls the matching func field when set and counts the call.
// Unset funcs return zero values.
type FakeBackend struct {
	HealthFunc       func(ctx context.Context) (*models.Health, error)
	UploadFunc       func(ctx context.Context, files []models.SelectedFile) ([]models.UploadedFileDescriptor, error)
	GenerateFunc     func(ctx context.Context, req models.ProtocolDraftRequest) (*models.GeneratedProtocolHandle, error)
	ListFunc         func(ctx context.Context) ([]models.ProtocolSummary, error)
	GetFunc          func(ctx context.Context, id models.ProtocolID) (*models.ProtocolDetail, error)
	DownloadFunc     func(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error)
	RegenerateFunc   func(ctx context.Context, id models.ProtocolID) (*models.PDFResult, error)
	BulkDownloadFunc func(ctx context.Context, kind models.ArtifactKind) ([]byte, error)
	TestLLMFunc      func(ctx context.Context, req models.LLMTestRequest) (*models.LLMTestResult, error)

	mu    sync.Mutex
	calls map[string]int
}

func (f *FakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

// Calls returns how often the named method ran.
func (f *FakeBackend) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// TotalCalls returns the number of backend calls of any kind.
func (f *FakeBackend) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeBackend) Health(ctx context.Context) (*models.Health, error) {
	f.record("Health")
	if f.HealthFunc == nil {
		return &models.Health{Status: "healthy"}, nil
	}
	return f.HealthFunc(ctx)
}

func (f *FakeBackend) Upload(ctx context.Context, files []models.SelectedFile) ([]models.UploadedFileDescriptor, error) {
	f.record("Upload")
	if f.UploadFunc == nil {
		return nil, nil
	}
	return f.UploadFunc(ctx, files)
}

func (f *FakeBackend) Generate(ctx context.Context, req models.ProtocolDraftRequest) (*models.GeneratedProtocolHandle, error) {
	f.record("Generate")
	if f.GenerateFunc == nil {
		return &models.GeneratedProtocolHandle{ProtocolID: "1"}, nil
	}
	return f.GenerateFunc(ctx, req)
}

func (f *FakeBackend) ListProtocols(ctx context.Context) ([]models.ProtocolSummary, error) {
	f.record("ListProtocols")
	if f.ListFunc == nil {
		return nil, nil
	}
	return f.ListFunc(ctx)
}

func (f *FakeBackend) GetProtocol(ctx context.Context, id models.ProtocolID) (*models.ProtocolDetail, error) {
	f.record("GetProtocol")
	if f.GetFunc == nil {
		return nil, errors.New("not found")
	}
	return f.GetFunc(ctx, id)
}

func (f *FakeBackend) Download(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error) {
	f.record("Download")
	if f.DownloadFunc == nil {
		return nil, nil
	}
	return f.DownloadFunc(ctx, id, kind)
}

func (f *FakeBackend) RegeneratePDF(ctx context.Context, id models.ProtocolID) (*models.PDFResult, error) {
	f.record("RegeneratePDF")
	if f.RegenerateFunc == nil {
		return &models.PDFResult{Success: true}, nil
	}
	return f.RegenerateFunc(ctx, id)
}

func (f *FakeBackend) BulkDownload(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
	f.record("BulkDownload")
	if f.BulkDownloadFunc == nil {
		return nil, nil
	}
	return f.BulkDownloadFunc(ctx, kind)
}

func (f *FakeBackend) TestLLM(ctx context.Context, req models.LLMTestRequest) (*models.LLMTestResult, error) {
	f.record("TestLLM")
	if f.TestLLMFunc == nil {
		return &models.LLMTestResult{Success: true}, nil
	}
	return f.TestLLMFunc(ctx, req)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// WriteTempFile writes content to name inside a fresh temp dir and returns the path.
func WriteTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
