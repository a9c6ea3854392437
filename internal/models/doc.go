// Package models defines the data types shared by the protocol client.
//
// The package contains three groups of types:
//
// 1. Session data: values moving through the upload and generation workflow
//   - [SelectedFile] : a local file picked for upload (client only)
//   - [UploadedFileDescriptor] : server-echoed metadata for an uploaded file
//   - [ProtocolDraftRequest] : the body of a generate call
//   - [GeneratedProtocolHandle] : the identifier returned by a successful generate call
//
// 2. Backend DTOs: [ProtocolSummary], [ProtocolDetail], [Health], [LLMTestResult], [PDFResult]
//
// 3. Persistent records: [GeneratedRecord] and [DownloadRecord], written by the opt-in history database.
//
// Closed sets ([ArtifactKind], [StatusFilter], [SortKey]) come with Parse functions
// so CLI flags are validated in one place. [NormalizeFileType] folds the backend's upload categories.
package models
