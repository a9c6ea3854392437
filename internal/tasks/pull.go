package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

const manifestName = "pull_manifest.json"

// PullOpts contains configuration for pulling every completed protocol.
type PullOpts struct {
	Kind       models.ArtifactKind // Artifact to download
	OutputDir  string              // Target directory (default: protokolle_<kind>_<epoch>)
	NumWorkers int                 // Concurrent workers (default: 4, max: 10)
	RateLimit  float64             // Download requests per second (default: 2)
	RetryDelay time.Duration       // PDF regenerate-and-retry delay (default: 2s)
	Logger     *log.Logger
	History    HistoryRecorder
}

type pullJob struct {
	index    int
	protocol models.ProtocolSummary
}

// idSaver prefixes artifact names with the protocol id so workers never collide.
type idSaver struct {
	saver *formatter.Saver
	id    models.ProtocolID
}

func (s idSaver) SaveArtifact(title string, kind models.ArtifactKind, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s", s.id, formatter.ArtifactFilename(title, kind))
	return s.saver.Save(name, data, true)
}

// Pull downloads each completed protocol individually with a worker pool and a rate limiter.
//
// Every download goes through [ArtifactDownload], so PDFs get the regenerate-and-retry fallback.
// Partial failures are recorded in the manifest rather than aborting the run.
func Pull(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	src ArtifactFetcher,
	protocols []models.ProtocolSummary,
	opts PullOpts,
) (*formatter.PullManifest, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}
	if _, err := models.ParseArtifactKind(string(opts.Kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("protokolle_%s_%d", opts.Kind, time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}
	opts.Logger = discardLogger(opts.Logger)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	completed := FilterProtocols(protocols, "", models.FilterCompleted)
	saver := formatter.NewSaver(opts.OutputDir)

	manifest := &formatter.PullManifest{
		Kind:      opts.Kind,
		Directory: opts.OutputDir,
		StartedAt: time.Now().UTC(),
		Total:     len(completed),
		Entries:   make([]formatter.PullEntry, len(completed)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan pullJob, len(completed))
	results := make(chan pullJob, len(completed))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				manifest.Entries[job.index] = pullOne(ctx, src, saver, job.protocol, opts)
				results <- job
			}
		}()
	}

	sendProgress(prog, pullStartedUpdate(len(completed), opts.Kind))

	go func() {
		defer close(jobs)
		for i, p := range completed {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- pullJob{index: i, protocol: p}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for job := range results {
		done++
		entry := manifest.Entries[job.index]
		if entry.Error == "" {
			manifest.Succeeded++
			sendProgress(prog, pullCompletedUpdate(done, len(completed), entry))
		} else {
			manifest.Failed++
			sendProgress(prog, pullFailedUpdate(done, len(completed), entry))
		}
	}

	// jobs never dispatched because ctx ended
	for i, p := range completed {
		if manifest.Entries[i].ProtocolID == "" {
			manifest.Entries[i] = formatter.PullEntry{ProtocolID: p.ID, Title: p.Title, Error: "not attempted"}
			manifest.Failed++
		}
	}
	manifest.FinishedAt = time.Now().UTC()

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := formatter.WritePullManifest(manifest, manifestPath); err != nil {
		return manifest, fmt.Errorf("pull completed but failed to write manifest: %w", err)
	}
	sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return manifest, err
	}
	return manifest, nil
}

func pullOne(ctx context.Context, src ArtifactFetcher, saver *formatter.Saver, p models.ProtocolSummary, opts PullOpts) formatter.PullEntry {
	entry := formatter.PullEntry{ProtocolID: p.ID, Title: p.Title}

	d := NewArtifactDownload(src, idSaver{saver: saver, id: p.ID}, DownloadOpts{
		Logger:     opts.Logger,
		History:    opts.History,
		RetryDelay: opts.RetryDelay,
	})

	res, err := d.Run(ctx, p.ID, p.Title, opts.Kind)
	if err != nil {
		entry.Error = shared.UserMessage(err)
		opts.Logger.Warn("pull failed", "protocol_id", p.ID, "error", err)
		return entry
	}

	entry.Path = res.Path
	entry.Size = res.Size
	entry.Regenerated = res.Regenerated
	return entry
}
