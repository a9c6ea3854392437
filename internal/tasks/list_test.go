package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/desertthunder/protokoll/internal/formatter"
	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
	tu "github.com/desertthunder/protokoll/internal/testing"
)

func titles(protocols []models.ProtocolSummary) []string {
	out := make([]string, len(protocols))
	for i, p := range protocols {
		out[i] = p.Title
	}
	return out
}

func TestFilterAndSort(t *testing.T) {
	t.Run("Filter By Query", func(t *testing.T) {
		protocols := []models.ProtocolSummary{
			summary(t, "1", "Acid-Base Titration", models.StatusCompleted, "2024-01-01T10:00:00"),
			summary(t, "2", "Density Test", models.StatusCompleted, "2024-01-02T10:00:00"),
		}

		got := FilterProtocols(protocols, "acid", models.FilterAll)
		require.Equal(t, []string{"Acid-Base Titration"}, titles(got))

		require.Len(t, FilterProtocols(protocols, "", models.FilterAll), 2)
	})

	t.Run("Filter By Status", func(t *testing.T) {
		protocols := []models.ProtocolSummary{
			summary(t, "1", "Titration", models.StatusCompleted, "2024-01-01T10:00:00"),
			summary(t, "2", "Titration Entwurf", models.StatusDraft, "2024-01-02T10:00:00"),
		}

		require.Equal(t, []string{"Titration Entwurf"}, titles(FilterProtocols(protocols, "titr", models.FilterDraft)))
		require.Equal(t, []string{"Titration"}, titles(FilterProtocols(protocols, "", models.FilterCompleted)))
	})

	t.Run("Sort By Date", func(t *testing.T) {
		protocols := []models.ProtocolSummary{
			summary(t, "3", "C", models.StatusCompleted, "2024-01-03T00:00:00"),
			summary(t, "1", "A", models.StatusCompleted, "2024-01-01T00:00:00"),
			summary(t, "2", "B", models.StatusCompleted, "2024-01-02T00:00:00"),
		}

		require.Equal(t, []string{"A", "B", "C"}, titles(SortProtocols(protocols, models.SortOldest, language.German)))
		require.Equal(t, []string{"C", "B", "A"}, titles(SortProtocols(protocols, models.SortNewest, language.German)))
		require.Equal(t, []string{"C", "A", "B"}, titles(protocols), "input must not be reordered")
	})

	t.Run("Sort By Title Uses Collation", func(t *testing.T) {
		protocols := []models.ProtocolSummary{
			summary(t, "1", "Zinkbestimmung", models.StatusCompleted, "2024-01-01T00:00:00"),
			summary(t, "2", "Öl-Analyse", models.StatusCompleted, "2024-01-02T00:00:00"),
			summary(t, "3", "Ammoniak", models.StatusCompleted, "2024-01-03T00:00:00"),
		}

		got := SortProtocols(protocols, models.SortTitle, language.German)
		require.Equal(t, []string{"Ammoniak", "Öl-Analyse", "Zinkbestimmung"}, titles(got))
	})

	t.Run("Sort Is Stable", func(t *testing.T) {
		protocols := []models.ProtocolSummary{
			summary(t, "1", "Erste", models.StatusCompleted, "2024-01-01T00:00:00"),
			summary(t, "2", "Zweite", models.StatusCompleted, "2024-01-01T00:00:00"),
		}

		require.Equal(t, []string{"Erste", "Zweite"}, titles(SortProtocols(protocols, models.SortOldest, language.German)))
		require.Equal(t, []string{"Erste", "Zweite"}, titles(SortProtocols(protocols, models.SortNewest, language.German)))
	})
}

func TestProtocolListView(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("Load", func(t *testing.T) {
		backend := &tu.FakeBackend{
			ListFunc: func(ctx context.Context) ([]models.ProtocolSummary, error) {
				return []models.ProtocolSummary{
					summary(t, "1", "Titration", models.StatusCompleted, "2024-01-01T10:00:00"),
					summary(t, "2", "Dichte", models.StatusDraft, "2024-01-02T10:00:00"),
				}, nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(t.TempDir()), ListOpts{})

		applied, err := v.Load(ctx)
		require.NoError(t, err)
		require.True(t, applied)
		require.Len(t, v.Protocols(), 2)
		require.Equal(t, "2 protocols loaded", v.Message())

		visible := v.Visible("", models.FilterAll, models.SortNewest)
		require.Equal(t, []string{"Dichte", "Titration"}, titles(visible))
		require.Equal(t, []string{"Titration", "Dichte"}, titles(v.Protocols()), "views must not reorder the collection")

		p, ok := v.Find("2")
		require.True(t, ok)
		require.Equal(t, "Dichte", p.Title)
	})

	t.Run("Load Failure Keeps Collection", func(t *testing.T) {
		fail := false
		backend := &tu.FakeBackend{
			ListFunc: func(ctx context.Context) ([]models.ProtocolSummary, error) {
				if fail {
					return nil, &shared.NetworkError{Op: "list protocols", Err: errors.New("connection refused")}
				}
				return []models.ProtocolSummary{summary(t, "1", "Titration", models.StatusCompleted, "2024-01-01T10:00:00")}, nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(t.TempDir()), ListOpts{})

		_, err := v.Load(ctx)
		require.NoError(t, err)

		fail = true
		applied, err := v.Load(ctx)
		require.ErrorIs(t, err, shared.ErrAPIRequest)
		require.True(t, applied)
		require.Len(t, v.Protocols(), 1)
		require.Equal(t, "list protocols: connection refused", v.Message())
	})

	t.Run("Stale Load Is Discarded", func(t *testing.T) {
		firstStarted := make(chan struct{})
		releaseFirst := make(chan struct{})
		calls := 0

		backend := &tu.FakeBackend{
			ListFunc: func(ctx context.Context) ([]models.ProtocolSummary, error) {
				calls++
				if calls == 1 {
					close(firstStarted)
					<-releaseFirst
					return []models.ProtocolSummary{summary(t, "1", "Alt", models.StatusCompleted, "2024-01-01T10:00:00")}, nil
				}
				return []models.ProtocolSummary{summary(t, "2", "Neu", models.StatusCompleted, "2024-01-02T10:00:00")}, nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(t.TempDir()), ListOpts{})

		type loadResult struct {
			applied bool
			err     error
		}
		first := make(chan loadResult, 1)
		go func() {
			applied, err := v.Load(ctx)
			first <- loadResult{applied, err}
		}()
		<-firstStarted

		applied, err := v.Load(ctx)
		require.NoError(t, err)
		require.True(t, applied)

		close(releaseFirst)
		res := <-first
		require.NoError(t, res.err)
		require.False(t, res.applied)
		require.Equal(t, []string{"Neu"}, titles(v.Protocols()))
	})

	t.Run("Download Uses Title", func(t *testing.T) {
		dir := t.TempDir()
		backend := &tu.FakeBackend{
			ListFunc: func(ctx context.Context) ([]models.ProtocolSummary, error) {
				return []models.ProtocolSummary{summary(t, "7", "Acid Base", models.StatusCompleted, "2024-01-01T10:00:00")}, nil
			},
			DownloadFunc: func(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) ([]byte, error) {
				return []byte("\\documentclass{article}"), nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(dir), ListOpts{})
		_, err := v.Load(ctx)
		require.NoError(t, err)

		res, err := v.Download(ctx, "7", models.ArtifactLaTeX)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "Acid_Base_protokoll.latex"), res.Path)
		require.Equal(t, "saved "+res.Path, v.Message())

		res, err = v.Download(ctx, "99", models.ArtifactLaTeX)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "protokoll_99_protokoll.latex"), res.Path)
	})

	t.Run("BulkDownload", func(t *testing.T) {
		dir := t.TempDir()
		history := &fakeHistory{}
		backend := &tu.FakeBackend{
			BulkDownloadFunc: func(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
				return []byte("PK\x03\x04"), nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(dir), ListOpts{
			History: history,
			Now:     func() time.Time { return now },
		})

		path, err := v.BulkDownload(ctx, models.ArtifactPDF)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "protokolle_pdf_2024-03-15.zip"), path)
		tu.AssertFileExists(t, path)
		require.Equal(t, []string{path}, history.Downloads())
	})

	t.Run("BulkDownload Failure", func(t *testing.T) {
		backend := &tu.FakeBackend{
			BulkDownloadFunc: func(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
				return nil, &shared.NetworkError{Op: "bulk download", StatusCode: 500}
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(t.TempDir()), ListOpts{Now: func() time.Time { return now }})

		_, err := v.BulkDownload(ctx, models.ArtifactLaTeX)
		require.ErrorIs(t, err, shared.ErrAPIRequest)
		require.Equal(t, "bulk latex download failed", v.Message())
	})

	t.Run("BulkDownload Busy", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		backend := &tu.FakeBackend{
			BulkDownloadFunc: func(ctx context.Context, kind models.ArtifactKind) ([]byte, error) {
				close(entered)
				<-release
				return []byte("PK"), nil
			},
		}
		v := NewProtocolListView(backend, formatter.NewSaver(t.TempDir()), ListOpts{})

		done := make(chan error, 1)
		go func() {
			_, err := v.BulkDownload(ctx, models.ArtifactPDF)
			done <- err
		}()
		<-entered

		_, err := v.BulkDownload(ctx, models.ArtifactPDF)
		require.ErrorIs(t, err, shared.ErrBusy)

		close(release)
		require.NoError(t, <-done)
	})
}
