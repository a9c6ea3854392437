// Package repositories implements SQLite persistence for the local history.
//
// The history is optional bookkeeping on the client side: which protocols this machine
// generated and which artifacts it saved, and where. The backend stays the source of truth
// for the protocols themselves.
//
// Key Implementations:
//   - [GeneratedRepository] : one row per successful generate call
//   - [DownloadRepository] : one row per saved artifact or bulk archive
//   - [History] : adapts both repositories to the recorder the workflows write to
//
// Records use UUID ids and are listed newest first. Deletes are hard deletes.
package repositories
