// Package repositories implements SQLite persistence for the catalogue and for API accounts.
//
// Key Implementations:
//   - [SingerRepository] : singers
//   - [SongRepository] : songs
//   - [AlbumRepository] : albums, read back joined with their singer and song
//   - [UserRepository] : accounts with login lookups
//
// Listing takes a [models.PageRequest]. Sort fields are the API's field names (e.g. "publishedAt",
// "singer.id") and are translated through a per-repository whitelist; anything else is
// [shared.ErrInvalidSortField]. The id column is appended as a tiebreaker so pages never overlap.
//
// Foreign keys are enforced. Deleting a singer or song that an album still references fails with
// [shared.ErrConflict]; writing an album that references a missing singer or song fails with
// [shared.ErrValidation].
package repositories
