package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/protokoll/internal/models"
)

// History records generated protocols and saved artifacts.
//
// It implements tasks.HistoryRecorder on top of the two repositories.
type History struct {
	generated *GeneratedRepository
	downloads *DownloadRepository
}

// NewHistory creates a [History] backed by db. The schema must already be migrated.
func NewHistory(db *sql.DB) *History {
	return &History{
		generated: NewGeneratedRepository(db),
		downloads: NewDownloadRepository(db),
	}
}

func (h *History) Generated() *GeneratedRepository { return h.generated }
func (h *History) Downloads() *DownloadRepository  { return h.downloads }

// RecordGenerated stores a successful generate call.
func (h *History) RecordGenerated(title string, handle models.GeneratedProtocolHandle) error {
	if err := h.generated.Create(models.NewGeneratedRecord(title, handle)); err != nil {
		return fmt.Errorf("failed to record generated protocol: %w", err)
	}
	return nil
}

// RecordDownload stores a saved artifact. Bulk archives pass an empty id.
func (h *History) RecordDownload(id models.ProtocolID, kind models.ArtifactKind, path string, size int64) error {
	if err := h.downloads.Create(models.NewDownloadRecord(id, kind, path, size)); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}
