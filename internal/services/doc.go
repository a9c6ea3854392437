// Package services implements the HTTP client for the protocol generation backend.
//
// # Transport
//
// [APIService] owns the base URL, the [http.Client] and the per-request timeout.
// Every call runs under context.WithTimeout; an expired deadline is reported as [shared.TimeoutError].
// Non-2xx responses become [shared.NetworkError] carrying the status code and the message from the
// body ({"error": ...}, then {"message": ...}, then the status text).
//
// # Backend
//
// [BackendService] implements [Backend] on top of the transport:
//   - GET  /health
//   - POST /upload (multipart, repeated "files" field)
//   - POST /generate
//   - GET  /protocols and GET /protocols/{id}
//   - GET  /download/{id}/{pdf|latex} (404 becomes [shared.ArtifactNotFoundError])
//   - POST /test-pdf/{id}
//   - GET  /bulk-download/{pdf|latex}
//   - POST /test-llm
//
// Completed protocol details are kept in an LRU cache so download filenames can be resolved by id
// without refetching.
package services
