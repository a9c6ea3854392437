package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// GenerationState is the state of a [ProtocolGenerationSession].
type GenerationState int

const (
	GenerationEmpty GenerationState = iota
	GenerationReady
	GenerationGenerating
	GenerationGenerated
	GenerationFailed
)

func (s GenerationState) String() string {
	switch s {
	case GenerationEmpty:
		return "empty"
	case GenerationReady:
		return "ready"
	case GenerationGenerating:
		return "generating"
	case GenerationGenerated:
		return "generated"
	case GenerationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GenerationOpts configures a [ProtocolGenerationSession].
type GenerationOpts struct {
	Logger   *log.Logger
	Saver    ArtifactSaver
	History  HistoryRecorder
	PDFDelay time.Duration // delay before the background PDF request (default: 1s)
}

// ProtocolGenerationSession turns upload descriptors into a protocol.
//
// After a successful generate the session schedules a best-effort PDF render.
// Close cancels it if it has not run yet.
type ProtocolGenerationSession struct {
	backend   Generator
	saver     ArtifactSaver
	history   HistoryRecorder
	logger    *log.Logger
	pdfDelay  time.Duration
	scheduler *Scheduler

	mu          sync.Mutex
	state       GenerationState
	title       string
	description string
	handle      *models.GeneratedProtocolHandle
	message     string
}

// NewGenerationSession creates an empty session.
func NewGenerationSession(backend Generator, opts GenerationOpts) *ProtocolGenerationSession {
	if opts.PDFDelay <= 0 {
		opts.PDFDelay = DefaultPDFDelay
	}
	return &ProtocolGenerationSession{
		backend:   backend,
		saver:     opts.Saver,
		history:   opts.History,
		logger:    discardLogger(opts.Logger),
		pdfDelay:  opts.PDFDelay,
		scheduler: NewScheduler(context.Background()),
	}
}

// State returns the current state and the last user-facing message.
func (s *ProtocolGenerationSession) State() (GenerationState, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.message
}

// Handle returns the result of the last successful generate, or nil.
func (s *ProtocolGenerationSession) Handle() *models.GeneratedProtocolHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil
	}
	h := *s.handle
	return &h
}

func (s *ProtocolGenerationSession) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// SetTitle sets the protocol title. A blank title moves an idle session back to empty.
func (s *ProtocolGenerationSession) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.title = title
	switch s.state {
	case GenerationEmpty, GenerationReady:
		if strings.TrimSpace(title) == "" {
			s.state = GenerationEmpty
		} else {
			s.state = GenerationReady
		}
	}
}

func (s *ProtocolGenerationSession) SetDescription(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.description = text
}

// Generate builds a draft request from descriptors and issues one generate call.
//
// A blank title fails with [shared.ValidationError] before any request is made.
func (s *ProtocolGenerationSession) Generate(ctx context.Context, descriptors []models.UploadedFileDescriptor) (*models.GeneratedProtocolHandle, error) {
	s.mu.Lock()
	if s.state == GenerationGenerating {
		s.mu.Unlock()
		return nil, shared.ErrBusy
	}

	req, err := models.NewDraftRequest(s.title, s.description, descriptors)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.state = GenerationGenerating
	s.message = ""
	s.mu.Unlock()

	s.logger.Info("generating protocol", "title", req.Title, "files", len(req.Files))
	handle, err := s.backend.Generate(ctx, req)

	s.mu.Lock()
	if err != nil {
		s.state = GenerationFailed
		s.message = shared.UserMessage(err)
		s.mu.Unlock()
		s.logger.Error("generate failed", "error", err)
		return nil, err
	}

	s.state = GenerationGenerated
	s.handle = handle
	s.message = fmt.Sprintf("protocol %s generated", handle.ProtocolID)
	s.mu.Unlock()

	recordGenerated(s.history, s.logger, req.Title, *handle)
	s.schedulePDF(handle.ProtocolID)

	result := *handle
	return &result, nil
}

// schedulePDF requests the PDF render in the background; failures are only logged.
func (s *ProtocolGenerationSession) schedulePDF(id models.ProtocolID) {
	ok := s.scheduler.After(s.pdfDelay, func(ctx context.Context) {
		if _, err := s.backend.RegeneratePDF(ctx, id); err != nil {
			s.logger.Warn("background PDF generation failed", "protocol_id", id, "error", err)
			return
		}
		s.logger.Debug("background PDF generated", "protocol_id", id)
	})
	if !ok {
		s.logger.Debug("session closed, skipping background PDF", "protocol_id", id)
	}
}

// DownloadArtifact fetches one artifact once and saves it as "<title>_protokoll.<kind>".
func (s *ProtocolGenerationSession) DownloadArtifact(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) (string, error) {
	if s.saver == nil {
		return "", fmt.Errorf("%w: no download directory configured", shared.ErrMissingConfig)
	}

	data, err := s.backend.Download(ctx, id, kind)
	if err != nil {
		s.setMessage(shared.UserMessage(err))
		return "", err
	}

	path, err := s.saver.SaveArtifact(s.Title(), kind, data)
	if err != nil {
		s.setMessage(err.Error())
		return "", err
	}

	recordDownload(s.history, s.logger, id, kind, path, int64(len(data)))
	s.setMessage("saved " + path)
	return path, nil
}

func (s *ProtocolGenerationSession) setMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// Close cancels the pending background PDF request, if any.
func (s *ProtocolGenerationSession) Close() {
	s.scheduler.Close()
}

// Wait blocks until background work has finished.
func (s *ProtocolGenerationSession) Wait() {
	s.scheduler.Wait()
}
