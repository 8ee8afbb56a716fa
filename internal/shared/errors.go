package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidToken     = fmt.Errorf("invalid token")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrAccessDenied     = fmt.Errorf("access denied")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrTransport          = fmt.Errorf("transport error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Persistence errors
	ErrNotFound   = fmt.Errorf("entity not found")
	ErrConflict   = fmt.Errorf("entity is referenced by another entity")
	ErrValidation = fmt.Errorf("validation failed")
	ErrInvalidID  = fmt.Errorf("invalid id")

	// List controller errors
	ErrNoPendingDelete  = fmt.Errorf("no entity pending removal")
	ErrInvalidPage      = fmt.Errorf("invalid page")
	ErrInvalidSortField = fmt.Errorf("invalid sort field")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
