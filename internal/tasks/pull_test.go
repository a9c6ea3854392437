package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	tu "github.com/desertthunder/protokoll/internal/testing"
)

func TestPull(t *testing.T) {
	ctx := context.Background()

	protocols := []models.ProtocolSummary{
		summary(t, "1", "Titration", models.StatusCompleted, "2024-01-01T10:00:00"),
		summary(t, "2", "Dichte", models.StatusDraft, "2024-01-02T10:00:00"),
		summary(t, "3", "Leitfähigkeit", models.StatusCompleted, "2024-01-03T10:00:00"),
		summary(t, "4", "Chromatographie", models.StatusCompleted, "2024-01-04T10:00:00"),
	}

	t.Run("Mixed Results", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")

		var mu sync.Mutex
		attempts := map[models.ProtocolID]int{}
		backend := &tu.FakeBackend{
			DownloadFunc: func(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error) {
				mu.Lock()
				attempts[id]++
				n := attempts[id]
				mu.Unlock()

				switch {
				case id == "3" && n == 1:
					return nil, notFound(id, kind)
				case id == "4":
					return nil, &shared.NetworkError{Op: "download", StatusCode: 500, Message: "Interner Fehler"}
				}
				return []byte("%PDF " + id.String()), nil
			},
		}

		prog := make(chan ProgressUpdate, 16)
		manifest, err := Pull(ctx, prog, backend, protocols, PullOpts{
			Kind:       models.ArtifactPDF,
			OutputDir:  dir,
			NumWorkers: 2,
			RateLimit:  1000,
			RetryDelay: time.Millisecond,
		})
		require.NoError(t, err)

		require.Equal(t, 3, manifest.Total, "drafts are skipped")
		require.Equal(t, 2, manifest.Succeeded)
		require.Equal(t, 1, manifest.Failed)
		require.Len(t, manifest.Entries, 3)

		byID := map[models.ProtocolID]formatter.PullEntry{}
		for _, e := range manifest.Entries {
			byID[e.ProtocolID] = e
		}
		require.NotContains(t, byID, models.ProtocolID("2"))

		require.Equal(t, filepath.Join(dir, "1_Titration_protokoll.pdf"), byID["1"].Path)
		require.False(t, byID["1"].Regenerated)
		require.True(t, byID["3"].Regenerated)
		require.Equal(t, "Interner Fehler", byID["4"].Error)
		require.Equal(t, 2, backend.Calls("RegeneratePDF"), "3 and 4 each regenerate once")

		tu.AssertFileExists(t, byID["1"].Path)
		tu.AssertFileExists(t, byID["3"].Path)

		raw, err := os.ReadFile(filepath.Join(dir, manifestName))
		require.NoError(t, err)
		var written formatter.PullManifest
		require.NoError(t, json.Unmarshal(raw, &written))
		require.Equal(t, 2, written.Succeeded)

		close(prog)
		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		require.Equal(t, FetchProtocols, phases[0])
		require.Equal(t, WriteManifest, phases[len(phases)-1])
		require.Len(t, phases, 5)
	})

	t.Run("Rerun Overwrites", func(t *testing.T) {
		dir := t.TempDir()
		backend := &tu.FakeBackend{
			DownloadFunc: func(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error) {
				return []byte(`\section{` + id.String() + `}`), nil
			},
		}
		opts := PullOpts{Kind: models.ArtifactLaTeX, OutputDir: dir, RateLimit: 1000}

		_, err := Pull(ctx, nil, backend, protocols[:1], opts)
		require.NoError(t, err)
		_, err = Pull(ctx, nil, backend, protocols[:1], opts)
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2, "artifact and manifest only")
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		manifest, err := Pull(cctx, nil, &tu.FakeBackend{}, protocols, PullOpts{
			Kind:      models.ArtifactPDF,
			OutputDir: t.TempDir(),
		})
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 3, manifest.Failed)
		require.Zero(t, manifest.Succeeded)
	})

	t.Run("Invalid Kind", func(t *testing.T) {
		_, err := Pull(ctx, nil, &tu.FakeBackend{}, protocols, PullOpts{Kind: "docx"})
		require.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("Nil Source", func(t *testing.T) {
		_, err := Pull(ctx, nil, nil, protocols, PullOpts{Kind: models.ArtifactPDF})
		require.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})
}

func TestLoadDashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("Healthy", func(t *testing.T) {
		backend := &tu.FakeBackend{
			ListFunc: func(ctx context.Context) ([]models.ProtocolSummary, error) {
				return []models.ProtocolSummary{
					{ID: "1", Status: models.StatusCompleted},
					{ID: "2", Status: models.StatusDraft},
					{ID: "3", Status: models.StatusCompleted},
				}, nil
			},
		}

		d := LoadDashboard(ctx, backend, "http://127.0.0.1:5000")
		require.Equal(t, "http://127.0.0.1:5000", d.BaseURL)
		require.True(t, d.Health.Healthy())
		require.Empty(t, d.HealthError)
		require.Equal(t, models.ProtocolCounts{Total: 3, Completed: 2, Draft: 1}, d.Counts)
	})

	t.Run("Partial Failure", func(t *testing.T) {
		backend := &tu.FakeBackend{
			HealthFunc: func(ctx context.Context) (*models.Health, error) {
				return nil, &shared.TimeoutError{Op: "health", After: time.Second}
			},
		}

		d := LoadDashboard(ctx, backend, "http://lab:5000")
		require.Nil(t, d.Health)
		require.Equal(t, "health: timed out after 1s", d.HealthError)
		require.Empty(t, d.ListError)
		require.Equal(t, 1, backend.Calls("ListProtocols"))
	})
}
