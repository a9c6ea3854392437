package models

import (
	"encoding/json"
	"strings"
)

// GeneratedProtocolHandle is the result of a successful generate call.
type GeneratedProtocolHandle struct {
	ProtocolID             ProtocolID `json:"protocol_id"`
	GeneratedContentLength int        `json:"full_content_length,omitempty"`
	ContentPreview         string     `json:"generated_content,omitempty"`
}

// ProtocolSummary is one row of GET /protocols.
type ProtocolSummary struct {
	ID        ProtocolID `json:"id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"`
}

// IsCompleted reports whether the backend finished generating the protocol.
func (p ProtocolSummary) IsCompleted() bool { return p.Status == StatusCompleted }

// MatchesQuery does a case-insensitive substring match on the title.
//
// The query is used as typed, so surrounding spaces must match too.
// An empty query matches everything.
func (p ProtocolSummary) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), strings.ToLower(query))
}

// ProtocolList is the body of GET /protocols.
type ProtocolList struct {
	Protocols []ProtocolSummary `json:"protocols"`
}

// ProtocolDetail is the body of GET /protocols/{id}.
type ProtocolDetail struct {
	ProtocolSummary
	InputFiles       []DraftFile     `json:"input_files"`
	GeneratedContent string          `json:"generated_content"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

// Description returns metadata.description when the backend stored one.
func (d ProtocolDetail) Description() string {
	if len(d.Metadata) == 0 {
		return ""
	}
	var meta DraftMetadata
	if err := json.Unmarshal(d.Metadata, &meta); err != nil {
		return ""
	}
	return meta.Description
}

// ServiceStatus lists backend dependencies reported by /health.
type ServiceStatus struct {
	LLM      bool `json:"llm"`
	Database bool `json:"database"`
}

// Health is the body of GET /health.
type Health struct {
	Status   string        `json:"status"`
	Services ServiceStatus `json:"services"`
}

func (h Health) Healthy() bool { return h.Status == "healthy" }

// LLMTestRequest is the body of POST /test-llm.
type LLMTestRequest struct {
	Title          string `json:"title"`
	Author         string `json:"author"`
	ExperimentType string `json:"experiment_type"`
}

// DefaultLLMTestRequest mirrors the sample the dashboard sends.
func DefaultLLMTestRequest() LLMTestRequest {
	return LLMTestRequest{
		Title:          "Test-Protokoll: Säure-Base-Titration",
		Author:         "CTA-Auszubildende",
		ExperimentType: "Titration",
	}
}

// LLMTestResult is the body of POST /test-llm.
type LLMTestResult struct {
	Success           bool       `json:"success"`
	ProtocolID        ProtocolID `json:"protocol_id,omitempty"`
	GeneratedContent  string     `json:"generated_content,omitempty"`
	FullContentLength int        `json:"full_content_length,omitempty"`
	Error             string     `json:"error,omitempty"`
	Message           string     `json:"message,omitempty"`
}

// PDFResult is the body of POST /test-pdf/{id}.
type PDFResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// UploadResult is the body of POST /upload.
type UploadResult struct {
	Files   []UploadedFileDescriptor `json:"files"`
	Message string                   `json:"message,omitempty"`
}

// ProtocolCounts tallies a protocol list by status.
type ProtocolCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Draft     int `json:"draft"`
}

// CountProtocols tallies protocols. Unknown statuses only count towards Total.
func CountProtocols(protocols []ProtocolSummary) ProtocolCounts {
	c := ProtocolCounts{Total: len(protocols)}
	for _, p := range protocols {
		switch p.Status {
		case StatusCompleted:
			c.Completed++
		case StatusDraft:
			c.Draft++
		}
	}
	return c
}

// Dashboard is a snapshot of backend availability and protocol counts.
//
// Either half may fail independently; the matching error string is then set.
type Dashboard struct {
	BaseURL     string         `json:"base_url"`
	Health      *Health        `json:"health,omitempty"`
	HealthError string         `json:"health_error,omitempty"`
	Counts      ProtocolCounts `json:"counts"`
	ListError   string         `json:"list_error,omitempty"`
}
