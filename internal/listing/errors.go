package listing

import (
	"context"
	"errors"

	"github.com/desertthunder/jukebox/internal/shared"
)

// Kind classifies controller failures.
type Kind int

const (
	UnknownError   Kind = iota
	TransportError      // network unreachable, timeout, request cancelled
	ServerError         // non-2xx response
	LogicError          // caller misuse, e.g. removing with nothing pending
)

func (k Kind) String() string {
	switch k {
	case TransportError:
		return "transport"
	case ServerError:
		return "server"
	case LogicError:
		return "logic"
	default:
		return "unknown"
	}
}

// KindOf classifies err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return UnknownError
	case errors.Is(err, shared.ErrNoPendingDelete),
		errors.Is(err, shared.ErrInvalidPage),
		errors.Is(err, shared.ErrInvalidSortField):
		return LogicError
	case errors.Is(err, shared.ErrAPIRequest):
		return ServerError
	case errors.Is(err, shared.ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return TransportError
	default:
		return UnknownError
	}
}
