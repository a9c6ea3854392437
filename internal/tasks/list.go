package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// ListOpts configures a [ProtocolListView].
type ListOpts struct {
	Logger     *log.Logger
	History    HistoryRecorder
	RetryDelay time.Duration    // forwarded to per-protocol downloads
	Language   language.Tag     // collation for title sort (default: German)
	Now        func() time.Time // clock for bulk archive names
}

// ProtocolListView holds the loaded protocol collection and derives filtered, sorted views from it.
//
// Loads are tagged with a monotonically increasing token; a completion whose token is older
// than the last applied one is discarded.
type ProtocolListView struct {
	source ProtocolSource
	saver  Saver
	opts   ListOpts

	mu        sync.Mutex
	issued    uint64
	applied   uint64
	protocols []models.ProtocolSummary
	loadedAt  time.Time
	message   string
	bulkBusy  bool
}

// NewProtocolListView creates an empty view.
func NewProtocolListView(source ProtocolSource, saver Saver, opts ListOpts) *ProtocolListView {
	opts.Logger = discardLogger(opts.Logger)
	if opts.Language == language.Und {
		opts.Language = language.German
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ProtocolListView{source: source, saver: saver, opts: opts}
}

// Load fetches the full collection and replaces the local copy.
//
// It reports whether the result was applied; a stale completion returns false and a nil error.
func (v *ProtocolListView) Load(ctx context.Context) (bool, error) {
	v.mu.Lock()
	v.issued++
	token := v.issued
	v.mu.Unlock()

	protocols, err := v.source.ListProtocols(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if token < v.applied {
		v.opts.Logger.Debug("discarding stale protocol list", "token", token, "applied", v.applied)
		return false, nil
	}
	v.applied = token

	if err != nil {
		v.message = shared.UserMessage(err)
		return true, err
	}

	v.protocols = slices.Clone(protocols)
	v.loadedAt = v.opts.Now()
	v.message = fmt.Sprintf("%d protocols loaded", len(protocols))
	return true, nil
}

// Protocols returns a copy of the loaded collection in backend order.
func (v *ProtocolListView) Protocols() []models.ProtocolSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.protocols)
}

// Message returns the last user-facing message.
func (v *ProtocolListView) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

// Filter returns protocols whose title contains query (case-insensitive) and whose status passes.
func (v *ProtocolListView) Filter(query string, status models.StatusFilter) []models.ProtocolSummary {
	return FilterProtocols(v.Protocols(), query, status)
}

// Sort returns the loaded collection ordered by key.
func (v *ProtocolListView) Sort(key models.SortKey) []models.ProtocolSummary {
	return SortProtocols(v.Protocols(), key, v.opts.Language)
}

// Visible filters then sorts, the way the list is rendered.
func (v *ProtocolListView) Visible(query string, status models.StatusFilter, key models.SortKey) []models.ProtocolSummary {
	return SortProtocols(FilterProtocols(v.Protocols(), query, status), key, v.opts.Language)
}

// Find returns the loaded summary for id.
func (v *ProtocolListView) Find(id models.ProtocolID) (models.ProtocolSummary, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.protocols {
		if p.ID == id {
			return p, true
		}
	}
	return models.ProtocolSummary{}, false
}

// FilterProtocols returns the matching subset of protocols in their original order.
func FilterProtocols(protocols []models.ProtocolSummary, query string, status models.StatusFilter) []models.ProtocolSummary {
	out := make([]models.ProtocolSummary, 0, len(protocols))
	for _, p := range protocols {
		if p.MatchesQuery(query) && status.Matches(p.Status) {
			out = append(out, p)
		}
	}
	return out
}

// SortProtocols returns a sorted copy. Titles compare with the collation rules of lang.
func SortProtocols(protocols []models.ProtocolSummary, key models.SortKey, lang language.Tag) []models.ProtocolSummary {
	out := slices.Clone(protocols)

	switch key {
	case models.SortOldest:
		slices.SortStableFunc(out, func(a, b models.ProtocolSummary) int {
			return a.CreatedAt.Compare(b.CreatedAt.Time)
		})
	case models.SortTitle:
		c := collate.New(lang)
		slices.SortStableFunc(out, func(a, b models.ProtocolSummary) int {
			return c.CompareString(a.Title, b.Title)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.ProtocolSummary) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	}
	return out
}

// Download runs an [ArtifactDownload] for a loaded protocol, with the PDF fallback.
func (v *ProtocolListView) Download(ctx context.Context, id models.ProtocolID, kind models.ArtifactKind) (*DownloadResult, error) {
	title := "protokoll_" + id.String()
	if p, ok := v.Find(id); ok {
		title = p.Title
	}

	d := NewArtifactDownload(v.source, v.saver, DownloadOpts{
		Logger:     v.opts.Logger,
		History:    v.opts.History,
		RetryDelay: v.opts.RetryDelay,
	})

	res, err := d.Run(ctx, id, title, kind)
	_, msg := d.State()
	v.mu.Lock()
	v.message = msg
	v.mu.Unlock()
	return res, err
}

// BulkDownload fetches one archive with every completed protocol of kind and saves it.
func (v *ProtocolListView) BulkDownload(ctx context.Context, kind models.ArtifactKind) (string, error) {
	v.mu.Lock()
	if v.bulkBusy {
		v.mu.Unlock()
		return "", shared.ErrBusy
	}
	v.bulkBusy = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.bulkBusy = false
		v.mu.Unlock()
	}()

	path, size, err := v.bulk(ctx, kind)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.message = fmt.Sprintf("bulk %s download failed", kind)
		v.opts.Logger.Error("bulk download failed", "kind", kind, "error", err)
		return "", fmt.Errorf("bulk %s download failed: %w", kind, err)
	}

	recordDownload(v.opts.History, v.opts.Logger, "", kind, path, size)
	v.message = "saved " + path
	return path, nil
}

func (v *ProtocolListView) bulk(ctx context.Context, kind models.ArtifactKind) (string, int64, error) {
	data, err := v.source.BulkDownload(ctx, kind)
	if err != nil {
		return "", 0, err
	}
	path, err := v.saver.SaveBulk(kind, v.opts.Now(), data)
	if err != nil {
		return "", 0, err
	}
	return path, int64(len(data)), nil
}
