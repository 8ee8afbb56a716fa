// package listing implements the paginated, sortable, delete-capable list controller shared by every entity screen
package listing

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
)

// Entity is anything with a numeric identifier.
type Entity interface {
	Identity() int64
}

// Query is what the controller asks a [Collection] for. Page is the zero-based page index.
type Query struct {
	Page int
	Size int
	Sort []string
}

// Page is one page of entities plus the server-reported total.
type Page[E Entity] struct {
	Items []E
	Total int
	Links map[string]int // rel (first, prev, next, last) to zero-based page index
}

// Collection is the remote collection service for one entity type.
type Collection[E Entity] interface {
	Retrieve(ctx context.Context, q Query) (*Page[E], error)
	Delete(ctx context.Context, id int64) error
}

// Level classifies a [Notification].
type Level int

const (
	Info Level = iota
	Success
	Warning
	Danger
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	default:
		return ""
	}
}

// Notification is a user-visible message (a toast).
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to a logger; used when no view is attached, e.g. from the CLI.
func LogNotifier(l *log.Logger) Notifier {
	return NotifierFunc(func(n Notification) {
		switch n.Level {
		case Danger:
			l.Error(n.Message, "title", n.Title)
		case Warning:
			l.Warn(n.Message, "title", n.Title)
		default:
			l.Info(n.Message, "title", n.Title)
		}
	})
}

// Status is the loading state of a controller.
type Status int

const (
	Idle Status = iota
	Loading
)

func (s Status) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// State is a read-only snapshot of a controller.
type State[E Entity] struct {
	Items        []E
	CurrentPage  int // 1-based
	PreviousPage int // last page fetched via LoadPage; 0 when unset
	PropOrder    string
	Reverse      bool
	TotalItems   int
	ItemsPerPage int
	Pending      *E // pending-delete candidate
	Status       Status
}

// TotalPages returns the page count for TotalItems; at least one.
func (s State[E]) TotalPages() int {
	return models.TotalPages(s.TotalItems, s.ItemsPerPage)
}

// HasPending reports whether an entity is staged for removal.
func (s State[E]) HasPending() bool {
	return s.Pending != nil
}

// SortKeys builds the sort key list for prop and direction. A non-id property gets "id" appended so pages
// have a total order.
func SortKeys(prop string, reverse bool) []string {
	dir := models.Asc
	if reverse {
		dir = models.Desc
	}

	primary := fmt.Sprintf("%s,%s", prop, dir)
	if prop == "id" {
		return []string{primary}
	}
	return []string{primary, "id"}
}
