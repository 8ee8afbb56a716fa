package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Route is a parsed screen path: "/album" for a list or "/album/5/view" for one entity.
type Route struct {
	Entity string
	ID     int64 // zero for list routes
}

func (r Route) String() string {
	if r.ID == 0 {
		return "/" + r.Entity
	}
	return fmt.Sprintf("/%s/%d/view", r.Entity, r.ID)
}

// Details reports whether r points at a single entity.
func (r Route) Details() bool { return r.ID != 0 }

// ParseRoute parses path. A bare entity name is accepted for the list route.
func ParseRoute(path string) (Route, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return Route{}, fmt.Errorf("%w: empty route", shared.ErrInvalidArgument)
	}

	r := Route{Entity: parts[0]}
	switch len(parts) {
	case 1:
		return r, nil
	case 3:
		if parts[2] != "view" {
			break
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || id <= 0 {
			return Route{}, fmt.Errorf("%w: bad id in route %q", shared.ErrInvalidArgument, path)
		}
		r.ID = id
		return r, nil
	}
	return Route{}, fmt.Errorf("%w: unknown route %q", shared.ErrInvalidArgument, path)
}

// Guard decides whether a route may be entered.
type Guard func(r Route) error

// AllowAll is a [Guard] that lets everything through.
func AllowAll(Route) error { return nil }

// TokenGuard checks the stored token for authority before every route. The token is not verified here; the
// backend does that on every request.
func TokenGuard(store *services.TokenStore, authority string) Guard {
	return func(r Route) error {
		tok, err := store.Load()
		if err != nil {
			if errors.Is(err, shared.ErrTokenExpired) {
				return fmt.Errorf("%w: session expired, run jukebox auth login", shared.ErrAccessDenied)
			}
			return fmt.Errorf("%w: %w", shared.ErrAccessDenied, err)
		}

		claims, err := services.ParseClaims(tok.AccessToken)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAccessDenied, err)
		}
		if !claims.HasAuthority(authority) {
			return fmt.Errorf("%w: %s requires %s", shared.ErrAccessDenied, r, authority)
		}
		return nil
	}
}

// UserGuard is [TokenGuard] for [models.RoleUser], which every screen requires.
func UserGuard(store *services.TokenStore) Guard {
	return TokenGuard(store, models.RoleUser)
}
