// package formatter renders protocol data for the terminal and writes downloaded artifacts to disk
package formatter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/protokoll/internal/models"
	"github.com/desertthunder/protokoll/internal/shared"
)

// maxTitleBytes leaves room within the 255-byte name limit for the
// "_protokoll.latex" suffix, a " (n)" collision suffix and a pull id prefix.
const maxTitleBytes = 200

// ArtifactFilename returns "<title>_protokoll.<kind>" with the title made filesystem-safe.
//
// Titles longer than maxTitleBytes are cut at a rune boundary.
func ArtifactFilename(title string, kind models.ArtifactKind) string {
	return fmt.Sprintf("%s_protokoll.%s", truncateTitle(shared.SanitizeFilename(title)), kind)
}

func truncateTitle(s string) string {
	if len(s) <= maxTitleBytes {
		return s
	}
	cut := 0
	for i := range s {
		if i > maxTitleBytes {
			break
		}
		cut = i
	}
	if out := strings.TrimRight(s[:cut], "_."); out != "" {
		return out
	}
	return "protokoll"
}

// BulkFilename returns the date-stamped archive name for a bulk download.
func BulkFilename(kind models.ArtifactKind, at time.Time) string {
	return fmt.Sprintf("protokolle_%s_%s.zip", kind, at.Format(time.DateOnly))
}

// Saver writes downloaded payloads into a directory.
type Saver struct {
	dir string
}

// NewSaver creates a saver rooted at dir. An empty dir means the working directory.
func NewSaver(dir string) *Saver {
	if dir == "" {
		dir = "."
	}
	return &Saver{dir: dir}
}

func (s *Saver) Dir() string { return s.dir }

// Save writes data to name inside the saver's directory and returns the final path.
//
// Without overwrite an existing file is kept and a " (n)" suffix is added, the way browsers do it.
// The write goes through a temp file so a failed download never leaves a partial artifact.
func (s *Saver) Save(name string, data []byte, overwrite bool) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if !overwrite {
		var err error
		if path, err = uniquePath(path); err != nil {
			return "", err
		}
	}

	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	return path, nil
}

// SaveArtifact saves a single protocol rendition under its artifact filename.
func (s *Saver) SaveArtifact(title string, kind models.ArtifactKind, data []byte) (string, error) {
	return s.Save(ArtifactFilename(title, kind), data, false)
}

// SaveBulk saves a bulk archive under its date-stamped filename.
func (s *Saver) SaveBulk(kind models.ArtifactKind, at time.Time, data []byte) (string, error) {
	return s.Save(BulkFilename(kind, at), data, false)
}

func uniquePath(path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	candidate := path
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
}
