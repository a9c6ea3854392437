// Package tasks implements the client-side workflows as independent state machines.
//
// # Sessions
//
//  1. [UploadSession] : Idle → Selecting → Uploading → Uploaded | Failed
//     - keeps the local selection (duplicates allowed, backend limits checked locally)
//     - sends all files in one request; clears the selection only on success
//
//  2. [ProtocolGenerationSession] : Empty → Ready → Generating → Generated | Failed
//     - builds the draft request from upload descriptors or hand-entered notes
//     - schedules a background PDF render on its own [Scheduler]; Close cancels it
//
//  3. [ArtifactDownload] : Idle → Downloading → Downloaded | Failed
//     - a failed PDF fetch regenerates once, waits, and retries once
//
//  4. [ProtocolListView] : load, filter, sort and bulk-download over the protocol collection
//     - loads carry a monotonic token; stale completions are discarded
//
// Every session guards its in-flight request with [shared.ErrBusy] and records a user-facing
// message next to its state. Errors are returned typed ([shared.ValidationError],
// [shared.NetworkError], [shared.ArtifactNotFoundError], [shared.TimeoutError]).
//
// # Bulk pull
//
// [Pull] downloads every completed protocol individually with a worker pool and a rate limiter,
// then writes a JSON manifest. Progress is reported through a non-blocking [ProgressUpdate] channel.
//
// # Dependencies
//
// Sessions depend on narrow capability interfaces ([Uploader], [Generator], [ProtocolSource])
// satisfied by services.BackendService, and optionally on a [HistoryRecorder]
// (repositories.History). History errors are logged and ignored.
package tasks
