package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// DownloadState is the state of an [ArtifactDownload].
type DownloadState int

const (
	DownloadIdle DownloadState = iota
	DownloadRunning
	DownloadDone
	DownloadFailed
)

func (s DownloadState) String() string {
	switch s {
	case DownloadIdle:
		return "idle"
	case DownloadRunning:
		return "downloading"
	case DownloadDone:
		return "downloaded"
	case DownloadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DownloadResult describes a saved artifact.
type DownloadResult struct {
	Path        string
	Size        int64
	Attempts    int  // download requests made (1 or 2)
	Regenerated bool // the PDF fallback ran
}

// DownloadOpts configures an [ArtifactDownload].
type DownloadOpts struct {
	Logger     *log.Logger
	History    HistoryRecorder
	RetryDelay time.Duration // pause between regeneration and retry (default: 2s)
}

// ArtifactDownload fetches one protocol artifact and saves it.
//
// A failed PDF fetch triggers exactly one regeneration, a fixed delay and one
// more download. LaTeX failures are reported immediately.
type ArtifactDownload struct {
	fetcher    ArtifactFetcher
	saver      ArtifactSaver
	history    HistoryRecorder
	logger     *log.Logger
	retryDelay time.Duration

	mu      sync.Mutex
	state   DownloadState
	message string
	result  *DownloadResult
}

// NewArtifactDownload creates an idle download.
func NewArtifactDownload(fetcher ArtifactFetcher, saver ArtifactSaver, opts DownloadOpts) *ArtifactDownload {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &ArtifactDownload{
		fetcher:    fetcher,
		saver:      saver,
		history:    opts.History,
		logger:     discardLogger(opts.Logger),
		retryDelay: opts.RetryDelay,
	}
}

// State returns the current state and the last user-facing message.
func (d *ArtifactDownload) State() (DownloadState, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.message
}

// Result returns the last successful result, or nil.
func (d *ArtifactDownload) Result() *DownloadResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

// Run downloads kind for the protocol and saves it under title.
func (d *ArtifactDownload) Run(ctx context.Context, id models.ProtocolID, title string, kind models.ArtifactKind) (*DownloadResult, error) {
	d.mu.Lock()
	if d.state == DownloadRunning {
		d.mu.Unlock()
		return nil, shared.ErrBusy
	}
	d.state = DownloadRunning
	d.message = ""
	d.mu.Unlock()

	result, err := d.fetch(ctx, id, kind)
	if err == nil {
		result.Path, err = d.saver.SaveArtifact(title, kind, result.data)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.state = DownloadFailed
		d.message = shared.UserMessage(err)
		return nil, err
	}

	recordDownload(d.history, d.logger, id, kind, result.Path, result.Size)

	d.state = DownloadDone
	d.message = "saved " + result.Path
	d.result = &result.DownloadResult
	out := result.DownloadResult
	return &out, nil
}

type fetched struct {
	DownloadResult
	data []byte
}

func (d *ArtifactDownload) fetch(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) (*fetched, error) {
	data, err := d.fetcher.Download(ctx, id, kind)
	if err == nil {
		return &fetched{DownloadResult: DownloadResult{Size: int64(len(data)), Attempts: 1}, data: data}, nil
	}
	if kind != models.ArtifactPDF || errors.Is(err, context.Canceled) {
		return nil, err
	}

	d.logger.Warn("PDF download failed, regenerating", "protocol_id", id, "error", err)

	regenerated := make(chan struct{})
	go func() {
		defer close(regenerated)
		if _, err := d.fetcher.RegeneratePDF(ctx, id); err != nil {
			d.logger.Warn("PDF regeneration failed", "protocol_id", id, "error", err)
		}
	}()
	defer func() { <-regenerated }()

	timer := time.NewTimer(d.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	data, retryErr := d.fetcher.Download(ctx, id, kind)
	if retryErr != nil {
		return nil, fmt.Errorf("download failed after regeneration: %w", retryErr)
	}
	return &fetched{DownloadResult: DownloadResult{Size: int64(len(data)), Attempts: 2, Regenerated: true}, data: data}, nil
}
