package services

import (
	"context"

	"github.com/desertthunder/protokoll/internal/models"
)

// Backend is the protocol generation service as seen by the client.
type Backend interface {
	// Health reports backend, LLM and database availability.
	Health(ctx context.Context) (*models.Health, error)

	// Upload sends all files in one multipart request and returns the server-echoed descriptors.
	Upload(ctx context.Context, files []models.SelectedFile) ([]models.UploadedFileDescriptor, error)

	// Generate creates a protocol from a draft request.
	Generate(ctx context.Context, req models.ProtocolDraftRequest) (*models.GeneratedProtocolHandle, error)

	ListProtocols(ctx context.Context) ([]models.ProtocolSummary, error)
	GetProtocol(ctx context.Context, id models.ProtocolID) (*models.ProtocolDetail, error)

	// Download fetches one artifact. A missing artifact is a [shared.ArtifactNotFoundError].
	Download(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error)

	// RegeneratePDF asks the backend to render the PDF for id again.
	RegeneratePDF(ctx context.Context, id models.ProtocolID) (*models.PDFResult, error)

	// BulkDownload fetches one zip archive with every completed protocol of kind.
	BulkDownload(ctx context.Context, kind models.ArtifactKind) ([]byte, error)

	TestLLM(ctx context.Context, req models.LLMTestRequest) (*models.LLMTestResult, error)
}

var _ Backend = (*BackendService)(nil)
