// package models defines the data model for the protocol client
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persisted history records.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the data access operations for a history record type.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	List(limit int) ([]T, error) // List returns the newest models first
	Delete(id string) error      // Delete removes a model from the database by its ID
}

// ArtifactKind is a downloadable rendition of a protocol.
type ArtifactKind string

const (
	ArtifactPDF   ArtifactKind = "pdf"
	ArtifactLaTeX ArtifactKind = "latex"
)

// ParseArtifactKind validates s as an [ArtifactKind].
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch k := ArtifactKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ArtifactPDF, ArtifactLaTeX:
		return k, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q (want pdf or latex)", s)
	}
}

// Status is the lifecycle state of a protocol on the backend.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDraft     Status = "draft"
)

// StatusFilter selects protocols by [Status] in the list view.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterCompleted StatusFilter = "completed"
	FilterDraft     StatusFilter = "draft"
)

// ParseStatusFilter validates s as a [StatusFilter]; empty means [FilterAll].
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterDraft:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q (want all, completed or draft)", s)
	}
}

// Matches reports whether a protocol with status st passes the filter.
func (f StatusFilter) Matches(st Status) bool {
	return f == FilterAll || f == "" || Status(f) == st
}

// SortKey orders protocols in the list view.
type SortKey string

const (
	SortNewest SortKey = "newest"
	SortOldest SortKey = "oldest"
	SortTitle  SortKey = "title"
)

// ParseSortKey validates s as a [SortKey]; empty means [SortNewest].
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortTitle:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want newest, oldest or title)", s)
	}
}

// ProtocolID is an opaque backend identifier.
//
// The backend encodes ids as JSON numbers; strings are accepted as well.
type ProtocolID string

func (id *ProtocolID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProtocolID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("protocol id: %w", err)
	}
	*id = ProtocolID(n.String())
	return nil
}

func (id ProtocolID) String() string { return string(id) }

// Timestamp decodes the backend's ISO-8601 timestamps, which may lack a zone.
//
// Zone-less values are interpreted as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses s using the layouts the backend is known to emit.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
