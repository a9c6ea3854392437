package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// UploadState is the state of an [UploadSession].
type UploadState int

const (
	UploadIdle UploadState = iota
	UploadSelecting
	UploadUploading
	UploadUploaded
	UploadFailed
)

func (s UploadState) String() string {
	switch s {
	case UploadIdle:
		return "idle"
	case UploadSelecting:
		return "selecting"
	case UploadUploading:
		return "uploading"
	case UploadUploaded:
		return "uploaded"
	case UploadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadSession owns the local file selection and drives one upload at a time.
type UploadSession struct {
	uploader Uploader
	logger   *log.Logger

	mu       sync.Mutex
	state    UploadState
	selected []models.SelectedFile
	uploaded []models.UploadedFileDescriptor
	message  string
}

// NewUploadSession creates an idle session.
func NewUploadSession(uploader Uploader, logger *log.Logger) *UploadSession {
	return &UploadSession{uploader: uploader, logger: discardLogger(logger)}
}

// State returns the current state and the last user-facing message.
func (s *UploadSession) State() (UploadState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.message
}

// Selected returns a copy of the local selection.
func (s *UploadSession) Selected() []models.SelectedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// Uploaded returns the descriptors of the last successful upload.
func (s *UploadSession) Uploaded() []models.UploadedFileDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.uploaded)
}

// AddFiles appends files to the selection. Duplicates are allowed.
//
// Files failing the local checks are skipped and reported together;
// the valid ones are still added.
func (s *UploadSession) AddFiles(files ...models.SelectedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == UploadUploading {
		return shared.ErrBusy
	}

	var errs []error
	for _, f := range files {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		s.selected = append(s.selected, f)
	}

	if len(s.selected) > 0 {
		s.state = UploadSelecting
	}
	return errors.Join(errs...)
}

// RemoveFile drops the selection entry at index. Valid only while selecting.
func (s *UploadSession) RemoveFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != UploadSelecting {
		return fmt.Errorf("%w: cannot remove files while %s", shared.ErrInvalidState, s.state)
	}
	if index < 0 || index >= len(s.selected) {
		return fmt.Errorf("%w: no file at index %d", shared.ErrInvalidArgument, index)
	}

	s.selected = slices.Delete(s.selected, index, index+1)
	if len(s.selected) == 0 {
		s.state = UploadIdle
	}
	return nil
}

// ClearAll empties the selection and returns to idle.
func (s *UploadSession) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == UploadUploading {
		return shared.ErrBusy
	}
	s.selected = nil
	s.message = ""
	s.state = UploadIdle
	return nil
}

// Submit uploads the whole selection in one request.
//
// On success the selection is cleared and the descriptors are kept; on failure
// the selection stays so the caller can retry with another Submit.
func (s *UploadSession) Submit(ctx context.Context) ([]models.UploadedFileDescriptor, error) {
	s.mu.Lock()
	if s.state == UploadUploading {
		s.mu.Unlock()
		return nil, shared.ErrBusy
	}
	if len(s.selected) == 0 {
		s.mu.Unlock()
		return nil, shared.NewValidationError("no files selected")
	}
	if err := models.ValidateTotal(s.selected); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	files := slices.Clone(s.selected)
	s.state = UploadUploading
	s.message = ""
	s.mu.Unlock()

	s.logger.Info("uploading files", "count", len(files))
	descriptors, err := s.uploader.Upload(ctx, files)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = UploadFailed
		s.message = shared.UserMessage(err)
		s.logger.Error("upload failed", "error", err)
		return nil, err
	}

	s.state = UploadUploaded
	s.selected = nil
	s.uploaded = descriptors
	s.message = fmt.Sprintf("%d files uploaded", len(descriptors))
	return slices.Clone(descriptors), nil
}
