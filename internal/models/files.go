package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/desertthunder/protokoll/internal/shared"
)

// MaxFileSize is the largest single file the backend accepts.
const MaxFileSize int64 = 16 * 1024 * 1024

// MaxRequestSize caps the combined size of all files sent in one upload request.
const MaxRequestSize int64 = 16 * 1024 * 1024

// FileType is the category the backend assigns to an uploaded file.
type FileType string

const (
	FileImage       FileType = "image"
	FilePDF         FileType = "pdf"
	FileSpreadsheet FileType = "spreadsheet"
	FileDocument    FileType = "document"
)

var allowedExtensions = map[string]FileType{
	".png": FileImage, ".jpg": FileImage, ".jpeg": FileImage, ".gif": FileImage, ".bmp": FileImage, ".tiff": FileImage,
	".pdf": FilePDF,
	".doc": FileDocument, ".docx": FileDocument, ".txt": FileDocument, ".rtf": FileDocument,
	".csv": FileSpreadsheet, ".xlsx": FileSpreadsheet, ".xls": FileSpreadsheet, ".json": FileSpreadsheet,
	".zip": FileDocument, ".rar": FileDocument,
}

// NormalizeFileType maps the backend's declared category onto a [FileType].
//
// The backend echoes plural folder names (images, documents, data, other); a .pdf name always wins.
func NormalizeFileType(declared, name string) FileType {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return FilePDF
	}

	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "image", "images":
		return FileImage
	case "pdf":
		return FilePDF
	case "spreadsheet", "data":
		return FileSpreadsheet
	default:
		return FileDocument
	}
}

// SelectedFile is a local file picked for upload.
type SelectedFile struct {
	Name     string
	Path     string
	Size     int64
	MimeType string
}

// NewSelectedFile stats the file at path and sniffs its MIME type.
func NewSelectedFile(path string) (SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return SelectedFile{}, shared.NewValidationError("%s is a directory", path)
	}

	mime := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		mime = mt.String()
	}

	return SelectedFile{
		Name:     filepath.Base(path),
		Path:     path,
		Size:     info.Size(),
		MimeType: mime,
	}, nil
}

// Validate applies the backend's extension and size limits locally.
func (f SelectedFile) Validate() error {
	if f.Name == "" {
		return shared.NewValidationError("file has no name")
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(f.Name))]; !ok {
		return shared.NewValidationError("file type not allowed: %s", f.Name)
	}
	if f.Size < 0 {
		return shared.NewValidationError("negative size for %s", f.Name)
	}
	if f.Size > MaxFileSize {
		return shared.NewValidationError("%s exceeds the 16MB upload limit", f.Name)
	}
	return nil
}

// ValidateTotal checks that files fit into a single upload request together.
func ValidateTotal(files []SelectedFile) error {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > MaxRequestSize {
		return shared.NewValidationError("selected files total %s, more than the %s upload limit",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(MaxRequestSize)))
	}
	return nil
}

// UploadedFileDescriptor is the server-echoed result of a successful upload.
type UploadedFileDescriptor struct {
	Name          string   `json:"name"`
	Type          FileType `json:"type"`
	Size          int64    `json:"size"`
	ExtractedText string   `json:"extracted_text,omitempty"`
}

func (d *UploadedFileDescriptor) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name          string `json:"name"`
		OriginalName  string `json:"original_name"`
		Type          string `json:"type"`
		Size          int64  `json:"size"`
		ExtractedText string `json:"extracted_text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	name := aux.Name
	if name == "" {
		name = aux.OriginalName
	}

	*d = UploadedFileDescriptor{
		Name:          name,
		Type:          NormalizeFileType(aux.Type, name),
		Size:          aux.Size,
		ExtractedText: aux.ExtractedText,
	}
	return nil
}

// HasText reports whether the server extracted text from the file.
func (d UploadedFileDescriptor) HasText() bool {
	return strings.TrimSpace(d.ExtractedText) != ""
}

// ManualDescriptor wraps hand-entered notes so they can be generated like an uploaded file.
func ManualDescriptor(name, content string) UploadedFileDescriptor {
	if name == "" {
		name = "notizen.txt"
	}
	return UploadedFileDescriptor{
		Name:          name,
		Type:          FileDocument,
		Size:          int64(len(content)),
		ExtractedText: content,
	}
}

// DraftFile is one entry of a generate request.
type DraftFile struct {
	Name    string   `json:"name"`
	Type    FileType `json:"type"`
	Content string   `json:"content"`
	Size    int64    `json:"size"`
}

// DraftMetadata carries the optional free-form fields of a generate request.
type DraftMetadata struct {
	Description string `json:"description"`
}

// ProtocolDraftRequest is the body of POST /generate.
type ProtocolDraftRequest struct {
	Title    string        `json:"title"`
	Metadata DraftMetadata `json:"metadata"`
	Files    []DraftFile   `json:"files"`
}

// placeholderContent stands in for files the server could not extract text from.
func placeholderContent(d UploadedFileDescriptor) string {
	return fmt.Sprintf("[Datei %s (%s, %d Bytes) ohne extrahierten Text]", d.Name, d.Type, d.Size)
}

// NewDraftRequest builds a generate request, keeping descriptor order.
//
// Title is trimmed and must be non-empty.
func NewDraftRequest(title, description string, descriptors []UploadedFileDescriptor) (ProtocolDraftRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ProtocolDraftRequest{}, shared.NewValidationError("title is required")
	}

	files := make([]DraftFile, 0, len(descriptors))
	for _, d := range descriptors {
		content := d.ExtractedText
		if !d.HasText() {
			content = placeholderContent(d)
		}
		files = append(files, DraftFile{Name: d.Name, Type: d.Type, Content: content, Size: d.Size})
	}

	return ProtocolDraftRequest{
		Title:    title,
		Metadata: DraftMetadata{Description: strings.TrimSpace(description)},
		Files:    files,
	}, nil
}
