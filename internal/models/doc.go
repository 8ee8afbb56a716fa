// Package models defines the catalogue entities and persistence interfaces for jukebox.
//
// The catalogue has three entities:
//   - [Singer] : a performer
//   - [Song] : a single track with a free-form play time
//   - [Album] : a published record referencing at most one [Singer] and one [Song]
//
// [User] is an API account used by the backend's authentication endpoint.
//
// Entities implement [Model] (numeric identity + validation through go-playground/validator struct tags) and
// [Tabular] so they can be rendered by the formatter and the TUI. Columns double as the whitelist of sort
// fields the list screens may request.
//
// [PageRequest], [Order] and [ParseOrder] model Spring-style paging: zero-based pages, a page size and repeated
// "field,direction" sort keys.
package models
