package listing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/shared"
)

const DefaultItemsPerPage = 20

// Options configures a [Controller].
type Options struct {
	Name         string   // entity display name used in notifications, e.g. "Album"
	ItemsPerPage int      // defaults to [DefaultItemsPerPage]
	SortFields   []string // when set, ChangeOrder rejects other fields
	Notifier     Notifier // defaults to [LogNotifier]
	Logger       *log.Logger
}

// Controller drives one entity list: which page is shown, how it is sorted and which entity is staged for
// removal. All methods are safe for concurrent use; the lock is never held across a network call.
//
// Every fetch takes a sequence number when issued. Only the response to the most recently issued fetch is
// applied, so a slow response can't overwrite a newer one.
type Controller[E Entity] struct {
	name       string
	collection Collection[E]
	notifier   Notifier
	logger     *log.Logger
	sortFields []string

	mu       sync.Mutex
	state    State[E]
	issued   uint64
	inflight int
	subs     map[int]chan State[E]
	nextSub  int
	closed   bool
}

// NewController creates a controller for collection showing page 1 sorted by id ascending.
func NewController[E Entity](collection Collection[E], opts Options) *Controller[E] {
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = DefaultItemsPerPage
	}
	if opts.Name == "" {
		opts.Name = "Entity"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier(opts.Logger)
	}

	return &Controller[E]{
		name:       opts.Name,
		collection: collection,
		notifier:   opts.Notifier,
		logger:     shared.WithLogger(opts.Logger, "entity", opts.Name),
		sortFields: opts.SortFields,
		state: State[E]{
			CurrentPage:  1,
			PreviousPage: 1,
			PropOrder:    "id",
			ItemsPerPage: opts.ItemsPerPage,
		},
		subs: make(map[int]chan State[E]),
	}
}

// Name returns the entity display name.
func (c *Controller[E]) Name() string { return c.name }

// Activate is the entry point when the list screen is opened. It starts from a fresh state (page 1, sorted
// by id ascending, nothing staged) and loads the first page, after which the view can render.
func (c *Controller[E]) Activate(ctx context.Context) error {
	return c.retrieve(ctx, func(s *State[E]) bool {
		*s = State[E]{
			CurrentPage:  1,
			PreviousPage: 1,
			PropOrder:    "id",
			ItemsPerPage: s.ItemsPerPage,
		}
		return true
	})
}

// State returns a snapshot of the current state.
func (c *Controller[E]) State() State[E] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Sort returns the sort keys for the current order.
func (c *Controller[E]) Sort() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SortKeys(c.state.PropOrder, c.state.Reverse)
}

// RetrieveAll fetches the current page with the current order.
func (c *Controller[E]) RetrieveAll(ctx context.Context) error {
	return c.retrieve(ctx, nil)
}

// LoadPage moves to page and fetches it, unless page was the last one loaded. The page is recorded before
// the fetch, so after a failed fetch the same page is skipped until [Controller.Clear] or a new order.
func (c *Controller[E]) LoadPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", shared.ErrInvalidPage, page)
	}

	return c.retrieve(ctx, func(s *State[E]) bool {
		if page == s.PreviousPage {
			return false
		}
		s.PreviousPage = page
		s.CurrentPage = page
		return true
	})
}

// ChangeOrder sorts by field, flipping the direction when field is already the sort field, and goes back
// to the first page.
func (c *Controller[E]) ChangeOrder(ctx context.Context, field string) error {
	if len(c.sortFields) > 0 && !slices.Contains(c.sortFields, field) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidSortField, field)
	}

	return c.retrieve(ctx, func(s *State[E]) bool {
		if field == s.PropOrder {
			s.Reverse = !s.Reverse
		} else {
			s.PropOrder = field
			s.Reverse = false
		}
		s.CurrentPage = 1
		s.PreviousPage = 1
		return true
	})
}

// Clear returns to the first page and forgets the last loaded page.
func (c *Controller[E]) Clear(ctx context.Context) error {
	return c.retrieve(ctx, func(s *State[E]) bool {
		s.CurrentPage = 1
		s.PreviousPage = 0
		return true
	})
}

// PrepareRemove stages entity for removal.
func (c *Controller[E]) PrepareRemove(entity E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Pending = &entity
	c.publish()
}

// CancelRemove drops the staged entity.
func (c *Controller[E]) CancelRemove() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Pending == nil {
		return
	}
	c.state.Pending = nil
	c.publish()
}

// RemoveEntity deletes the staged entity and refreshes the current page. The page isn't moved back when
// the deletion empties it.
func (c *Controller[E]) RemoveEntity(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Pending == nil {
		c.mu.Unlock()
		return shared.ErrNoPendingDelete
	}
	id := (*c.state.Pending).Identity()
	c.mu.Unlock()

	c.logger.Debug("deleting", "id", id)
	if err := c.collection.Delete(ctx, id); err != nil {
		c.logger.Error("delete failed", "id", id, "error", err)
		c.notifier.Notify(Notification{Level: Danger, Title: "Error", Message: err.Error()})
		return fmt.Errorf("failed to delete %s %d: %w", c.name, id, err)
	}

	c.mu.Lock()
	if c.state.Pending != nil && (*c.state.Pending).Identity() == id {
		c.state.Pending = nil
		c.publish()
	}
	c.mu.Unlock()

	c.notifier.Notify(Notification{
		Level:   Info,
		Title:   "Info",
		Message: fmt.Sprintf("%s deleted with identifier %d", c.name, id),
	})

	return c.RetrieveAll(ctx)
}

// Subscribe returns a channel receiving a snapshot after every state change and a function that ends the
// subscription. Slow receivers only see the latest snapshot.
func (c *Controller[E]) Subscribe() (<-chan State[E], func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State[E], 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends all subscriptions. The controller keeps working but publishes nothing.
func (c *Controller[E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// retrieve applies mutate to the state and, if it returns true (or is nil), fetches the resulting page.
func (c *Controller[E]) retrieve(ctx context.Context, mutate func(*State[E]) bool) error {
	c.mu.Lock()
	if mutate != nil && !mutate(&c.state) {
		c.mu.Unlock()
		return nil
	}

	q := Query{
		Page: c.state.CurrentPage - 1,
		Size: c.state.ItemsPerPage,
		Sort: SortKeys(c.state.PropOrder, c.state.Reverse),
	}
	c.issued++
	seq := c.issued
	c.inflight++
	c.state.Status = Loading
	c.publish()
	c.mu.Unlock()

	c.logger.Debug("retrieving", "page", q.Page, "size", q.Size, "sort", q.Sort, "seq", seq)
	page, err := c.collection.Retrieve(ctx, q)

	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.state.Status = Idle
	}

	stale := seq != c.issued
	if err == nil && page != nil && !stale {
		c.state.Items = page.Items
		c.state.TotalItems = page.Total
	}
	c.publish()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("retrieve failed", "page", q.Page, "error", err)
		c.notifier.Notify(Notification{Level: Danger, Title: "Error", Message: err.Error()})
		return fmt.Errorf("failed to retrieve %s page %d: %w", c.name, q.Page+1, err)
	}
	if stale {
		c.logger.Debug("discarded stale response", "seq", seq, "latest", c.latest())
	}
	return nil
}

func (c *Controller[E]) latest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued
}

// snapshot copies the state; c.mu must be held.
func (c *Controller[E]) snapshot() State[E] {
	s := c.state
	s.Items = slices.Clone(c.state.Items)
	if c.state.Pending != nil {
		pending := *c.state.Pending
		s.Pending = &pending
	}
	return s
}

// publish sends the current snapshot to every subscriber, replacing any snapshot still unread; c.mu must
// be held.
func (c *Controller[E]) publish() {
	if len(c.subs) == 0 {
		return
	}

	snap := c.snapshot()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
