// Package state persists delivery records and per-author check times to a
// single JSON file. Every mutation is flushed atomically (temp file, fsync,
// rename) before the call returns, so a crash immediately after a mutation
// never loses it. The process owns the file exclusively.
package state
