package tasks

import (
	"fmt"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProtocols Phase = iota
	PullArtifacts
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchProtocols:
		return "fetch_protocols"
	case PullArtifacts:
		return "pull_artifacts"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends without blocking; a full or nil channel drops the update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func pullStartedUpdate(total int, kind models.ArtifactKind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProtocols,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Pulling %d %s artifacts...", total, kind),
	}
}

func pullCompletedUpdate(step, total int, entry formatter.PullEntry) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, entry.Title)
	if entry.Regenerated {
		msg += " (regenerated)"
	}
	return ProgressUpdate{
		Phase:   PullArtifacts,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    entry,
	}
}

func pullFailedUpdate(step, total int, entry formatter.PullEntry) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PullArtifacts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, entry.Title, entry.Error),
		Data:    entry,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}
