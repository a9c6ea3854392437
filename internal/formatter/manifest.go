package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// PullEntry is the outcome for one protocol of a bulk pull.
type PullEntry struct {
	ProtocolID  models.ProtocolID `json:"protocol_id"`
	Title       string            `json:"title"`
	Path        string            `json:"path,omitempty"`
	Size        int64             `json:"size,omitempty"`
	Regenerated bool              `json:"regenerated,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// PullManifest summarizes a bulk pull and is written next to the artifacts.
type PullManifest struct {
	Kind       models.ArtifactKind `json:"kind"`
	Directory  string              `json:"directory"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Total      int                 `json:"total"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Entries    []PullEntry         `json:"entries"`
}

// WritePullManifest writes m as indented JSON to path.
func WritePullManifest(m *PullManifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
