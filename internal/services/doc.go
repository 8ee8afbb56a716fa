// Package services is the HTTP client for the jukebox REST API.
//
// [APIService] sends raw requests and returns whole responses. Non-2xx responses are turned into an
// [*APIError] by [APIResponse.Err], carrying the decoded problem document when the server sent one.
//
// [EntityService] wraps one collection (/api/albums, /api/singers, /api/songs) and implements
// [listing.Collection], so it can back a [listing.Controller] directly:
//   - Retrieve sends page (zero-based), size and one sort parameter per key
//   - X-Total-Count gives the total, Link gives the first/prev/next/last pages
//
// [AuthService] exchanges credentials for a bearer token, and [TokenStore] keeps it on disk between runs.
// [NewHTTPClient] attaches the token to every request through an oauth2 static token source.
//
// # Error Handling
//
//   - [shared.ErrTransport] : the server could not be reached or the response could not be read
//   - [shared.ErrAPIRequest] : the server answered with an error status
//   - [shared.ErrAuthFailed] : bad credentials
//   - [shared.ErrNotAuthenticated], [shared.ErrTokenExpired] : no usable stored token
package services
