// package tasks implements the client-side workflows: upload, generation, downloads and the protocol list.
package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/protokoll/internal/models"
)

const (
	// DefaultPDFDelay is how long after a successful generate the PDF is materialized.
	DefaultPDFDelay = time.Second
	// DefaultRetryDelay is the pause between regenerating a PDF and retrying its download.
	DefaultRetryDelay = 2 * time.Second
)

// Uploader sends selected files to the backend.
type Uploader interface {
	Upload(ctx context.Context, files []models.SelectedFile) ([]models.UploadedFileDescriptor, error)
}

// PDFRegenerator asks the backend to render a protocol's PDF again.
type PDFRegenerator interface {
	RegeneratePDF(ctx context.Context, id models.ProtocolID) (*models.PDFResult, error)
}

// ArtifactFetcher downloads single protocol artifacts.
type ArtifactFetcher interface {
	PDFRegenerator
	Download(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error)
}

// Generator creates protocols and fetches their artifacts.
type Generator interface {
	ArtifactFetcher
	Generate(ctx context.Context, req models.ProtocolDraftRequest) (*models.GeneratedProtocolHandle, error)
}

// ProtocolSource lists protocols and serves their artifacts.
type ProtocolSource interface {
	ArtifactFetcher
	ListProtocols(ctx context.Context) ([]models.ProtocolSummary, error)
	BulkDownload(ctx context.Context, kind models.ArtifactKind) ([]byte, error)
}

// ArtifactSaver stores a downloaded artifact and returns where it went.
type ArtifactSaver interface {
	SaveArtifact(title string, kind models.ArtifactKind, data []byte) (string, error)
}

// BulkSaver stores a bulk archive.
type BulkSaver interface {
	SaveBulk(kind models.ArtifactKind, at time.Time, data []byte) (string, error)
}

// Saver stores single artifacts and bulk archives.
type Saver interface {
	ArtifactSaver
	BulkSaver
}

// HistoryRecorder persists generated protocols and downloads.
//
// Recording is best effort: sessions log errors and carry on.
type HistoryRecorder interface {
	RecordGenerated(title string, handle models.GeneratedProtocolHandle) error
	RecordDownload(id models.ProtocolID, kind models.ArtifactKind, path string, size int64) error
}

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

func recordGenerated(h HistoryRecorder, logger *log.Logger, title string, handle models.GeneratedProtocolHandle) {
	if h == nil {
		return
	}
	if err := h.RecordGenerated(title, handle); err != nil {
		logger.Warn("failed to record generated protocol", "protocol_id", handle.ProtocolID, "error", err)
	}
}

func recordDownload(h HistoryRecorder, logger *log.Logger, id models.ProtocolID, kind models.ArtifactKind, path string, size int64) {
	if h == nil {
		return
	}
	if err := h.RecordDownload(id, kind, path, size); err != nil {
		logger.Warn("failed to record download", "path", path, "error", err)
	}
}
