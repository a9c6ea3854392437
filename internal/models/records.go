package models

import (
	"errors"
	"time"
)

// GeneratedRecord is a local history entry for a successful generate call.
type GeneratedRecord struct {
	id            string
	protocolID    ProtocolID
	title         string
	contentLength int
	createdAt     time.Time
}

// NewGeneratedRecord records handle under title. The id is assigned on insert.
func NewGeneratedRecord(title string, handle GeneratedProtocolHandle) *GeneratedRecord {
	return &GeneratedRecord{
		protocolID:    handle.ProtocolID,
		title:         title,
		contentLength: handle.GeneratedContentLength,
		createdAt:     time.Now().UTC(),
	}
}

// RestoreGeneratedRecord rebuilds a record from stored columns.
func RestoreGeneratedRecord(id string, protocolID ProtocolID, title string, contentLength int, createdAt time.Time) *GeneratedRecord {
	return &GeneratedRecord{id: id, protocolID: protocolID, title: title, contentLength: contentLength, createdAt: createdAt}
}

func (r *GeneratedRecord) ID() string             { return r.id }
func (r *GeneratedRecord) SetID(id string)        { r.id = id }
func (r *GeneratedRecord) CreatedAt() time.Time   { return r.createdAt }
func (r *GeneratedRecord) ProtocolID() ProtocolID { return r.protocolID }
func (r *GeneratedRecord) Title() string          { return r.title }
func (r *GeneratedRecord) ContentLength() int     { return r.contentLength }

func (r *GeneratedRecord) Validate() error {
	if r.protocolID == "" {
		return errors.New("protocol id is required")
	}
	if r.contentLength < 0 {
		return errors.New("content length must not be negative")
	}
	return nil
}

// DownloadRecord is a local history entry for a saved artifact.
type DownloadRecord struct {
	id         string
	protocolID ProtocolID
	kind       ArtifactKind
	path       string
	size       int64
	createdAt  time.Time
}

// NewDownloadRecord records an artifact saved at path.
func NewDownloadRecord(protocolID ProtocolID, kind ArtifactKind, path string, size int64) *DownloadRecord {
	return &DownloadRecord{
		protocolID: protocolID,
		kind:       kind,
		path:       path,
		size:       size,
		createdAt:  time.Now().UTC(),
	}
}

// RestoreDownloadRecord rebuilds a record from stored columns.
func RestoreDownloadRecord(id string, protocolID ProtocolID, kind ArtifactKind, path string, size int64, createdAt time.Time) *DownloadRecord {
	return &DownloadRecord{id: id, protocolID: protocolID, kind: kind, path: path, size: size, createdAt: createdAt}
}

func (r *DownloadRecord) ID() string             { return r.id }
func (r *DownloadRecord) SetID(id string)        { r.id = id }
func (r *DownloadRecord) CreatedAt() time.Time   { return r.createdAt }
func (r *DownloadRecord) ProtocolID() ProtocolID { return r.protocolID }
func (r *DownloadRecord) Kind() ArtifactKind     { return r.kind }
func (r *DownloadRecord) Path() string           { return r.path }
func (r *DownloadRecord) Size() int64            { return r.size }

// Validate allows an empty protocol id for bulk archives.
func (r *DownloadRecord) Validate() error {
	if _, err := ParseArtifactKind(string(r.kind)); err != nil {
		return err
	}
	if r.path == "" {
		return errors.New("path is required")
	}
	if r.size < 0 {
		return errors.New("size must not be negative")
	}
	return nil
}
