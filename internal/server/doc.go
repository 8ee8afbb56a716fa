// Package server provides the HTTP routing, middleware and handlers of the jukebox REST backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/songs/{id}").
// [BasicRouter.Use] middleware wraps the whole mux, so unmatched routes and CORS preflights pass through it too.
// [BasicRouter.With] returns a router whose handlers get extra middleware, which is how authentication is applied
// to the resource routes only.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [EntityHandler] serves one catalogue resource over any [models.Repository]:
//   - GET /api/{plural}?page=&size=&sort= lists a page with X-Total-Count and Link headers
//   - POST, PUT and PATCH (merge patch) write, GET /{id} reads and DELETE /{id} removes
//
// Writes answer with X-jukeboxApp-alert / X-jukeboxApp-params headers naming the action and id.
//
// # Errors
//
// Failures are written as application/problem+json documents ([models.Problem]). Repository errors map to
// 400 ([shared.ErrValidation], [shared.ErrInvalidSortField]), 404 ([shared.ErrNotFound]) and 409
// ([shared.ErrConflict], a referenced entity).
//
// # Authentication
//
// POST /api/authenticate checks a bcrypt password hash and returns an HS512 JWT whose auth claim lists the
// user's authorities. [Authenticate] verifies it on every resource request.
package server
