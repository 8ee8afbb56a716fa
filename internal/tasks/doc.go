// Package tasks exports the catalogue to files with real-time progress reporting.
//
// # Export
//
// [ExportEngine.Run] takes one [Source] per collection (albums, singers, songs) and:
//
//  1. Hands each source to a bounded worker pool (3 workers by default, at most 10)
//  2. Walks the collection page by page sorted by id, following the rel="next" link until it is absent
//  3. Waits on a shared [rate.Limiter] before every page request
//  4. Writes {dir}/{collection}.{ext} through the formatter and finishes with export_manifest.json
//
// A failing collection is recorded in the manifest and does not stop the others.
//
// [CollectionSource] adapts any [listing.Collection] whose entities render as table rows, so the same client
// services that back the list screens feed the export.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
