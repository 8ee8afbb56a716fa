package ui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
)

const maxColumnWidth = 40

// Record is an entity the list screen can show.
type Record interface {
	listing.Entity
	models.Tabular
}

// Finder loads a single entity for the details view.
type Finder[E any] func(ctx context.Context, id int64) (*E, error)

// Screen is the list and details views of one entity type.
type Screen interface {
	Entity() string // route segment, e.g. "album"
	Title() string
	Route() Route
	Init(ctx context.Context) tea.Cmd
	Update(ctx context.Context, msg Msg) tea.Cmd
	HandleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd
	OpenDetails(ctx context.Context, id int64) tea.Cmd
	SetSize(width, height int)
	View(spinner string) string
	Help() []key.Binding
	Close()
}

// ListScreen renders a [listing.Controller] as a table. All list actions run on the controller from a command;
// the table is redrawn from the controller's subscription.
type ListScreen[E Record] struct {
	entity  string
	title   string
	ctrl    *listing.Controller[E]
	find    Finder[E]
	keys    keyMap
	columns []models.Column

	states      <-chan listing.State[E]
	unsubscribe func()
	state       listing.State[E]
	activated   bool

	table  table.Model
	pager  paginator.Model
	width  int
	height int

	detailsID  int64
	details    *E
	detailsErr error
}

var _ Screen = (*ListScreen[models.Album])(nil)

// NewListScreen creates the screen for route /entity.
func NewListScreen[E Record](entity, title string, ctrl *listing.Controller[E], find Finder[E]) *ListScreen[E] {
	var zero E
	pager := paginator.New()
	pager.Type = paginator.Dots

	s := &ListScreen[E]{
		entity:  entity,
		title:   title,
		ctrl:    ctrl,
		find:    find,
		keys:    newKeyMap(),
		columns: zero.Columns(),
		state:   ctrl.State(),
		table:   table.New(table.WithFocused(true), table.WithKeyMap(tableKeys())),
		pager:   pager,
	}
	s.apply(s.state)
	return s
}

func (s *ListScreen[E]) Entity() string { return s.entity }
func (s *ListScreen[E]) Title() string  { return s.title }
func (s *ListScreen[E]) Route() Route   { return Route{Entity: s.entity, ID: s.detailsID} }

// State returns the last state the screen rendered.
func (s *ListScreen[E]) State() listing.State[E] { return s.state }

// Confirming reports whether the delete dialog is open.
func (s *ListScreen[E]) Confirming() bool { return s.state.HasPending() && s.detailsID == 0 }

// Init subscribes to the controller, once, and activates it. Every entry starts the list over from page 1
// sorted by id; the table is shown after the first activation completes.
func (s *ListScreen[E]) Init(ctx context.Context) tea.Cmd {
	s.closeDetails()
	s.table.SetCursor(0)

	var watch tea.Cmd
	if s.states == nil {
		s.states, s.unsubscribe = s.ctrl.Subscribe()
		watch = s.waitForState()
	}

	activate := func() tea.Msg {
		return activatedMsg(s.entity, s.ctrl.Activate(ctx))
	}
	return tea.Batch(watch, activate)
}

// waitForState delivers the next controller snapshot.
func (s *ListScreen[E]) waitForState() tea.Cmd {
	ch := s.states
	entity := s.entity
	return func() tea.Msg {
		st, ok := <-ch
		return stateChangedMsg(entity, st, ok)
	}
}

func (s *ListScreen[E]) Update(ctx context.Context, msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgActivated:
		s.activated = true
		s.apply(s.ctrl.State())

	case MsgStateChanged:
		data := msg.data.(struct {
			state any
			ok    bool
		})
		if !data.ok {
			s.states = nil
			return nil
		}
		if st, ok := data.state.(listing.State[E]); ok {
			s.apply(st)
		}
		return s.waitForState()

	case MsgDetailsFetched:
		data := msg.data.(struct {
			id     int64
			record any
			err    error
		})
		if data.id != s.detailsID {
			return nil
		}
		s.detailsErr = data.err
		if e, ok := data.record.(*E); ok {
			s.details = e
		}

	case MsgActionDone:
		s.apply(s.ctrl.State())
	}
	return nil
}

func (s *ListScreen[E]) HandleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	if s.detailsID != 0 {
		if key.Matches(msg, s.keys.back) {
			s.closeDetails()
		}
		return nil
	}

	if s.Confirming() {
		switch {
		case key.Matches(msg, s.keys.yes):
			return s.run(ctx, "delete", s.ctrl.RemoveEntity)
		case key.Matches(msg, s.keys.no):
			s.ctrl.CancelRemove()
			s.apply(s.ctrl.State())
		}
		return nil
	}

	if !s.activated {
		return nil
	}

	switch {
	case key.Matches(msg, s.keys.prev):
		if s.state.CurrentPage <= 1 {
			return nil
		}
		page := s.state.CurrentPage - 1
		return s.run(ctx, "page", func(ctx context.Context) error { return s.ctrl.LoadPage(ctx, page) })

	case key.Matches(msg, s.keys.next):
		if s.state.CurrentPage >= s.state.TotalPages() {
			return nil
		}
		page := s.state.CurrentPage + 1
		return s.run(ctx, "page", func(ctx context.Context) error { return s.ctrl.LoadPage(ctx, page) })

	case key.Matches(msg, s.keys.sort):
		i := int(msg.String()[0] - '1')
		if i < 0 || i >= len(s.columns) || s.columns[i].Field == "" {
			return nil
		}
		field := s.columns[i].Field
		return s.run(ctx, "sort", func(ctx context.Context) error { return s.ctrl.ChangeOrder(ctx, field) })

	case key.Matches(msg, s.keys.clear):
		return s.run(ctx, "clear", s.ctrl.Clear)

	case key.Matches(msg, s.keys.remove):
		if e, ok := s.selected(); ok {
			s.ctrl.PrepareRemove(e)
			s.apply(s.ctrl.State())
		}
		return nil

	case key.Matches(msg, s.keys.enter):
		if e, ok := s.selected(); ok {
			return s.OpenDetails(ctx, e.Identity())
		}
		return nil
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return cmd
}

// run executes a blocking controller action in a command. Failures have already been sent to the notifier
// by the controller.
func (s *ListScreen[E]) run(ctx context.Context, action string, fn func(context.Context) error) tea.Cmd {
	entity := s.entity
	return func() tea.Msg {
		return actionDoneMsg(entity, action, fn(ctx))
	}
}

// OpenDetails switches to /entity/id/view and fetches the entity.
func (s *ListScreen[E]) OpenDetails(ctx context.Context, id int64) tea.Cmd {
	s.detailsID = id
	s.details = nil
	s.detailsErr = nil
	if s.find == nil {
		return nil
	}

	find, entity := s.find, s.entity
	return func() tea.Msg {
		e, err := find(ctx, id)
		return detailsFetchedMsg(entity, id, e, err)
	}
}

func (s *ListScreen[E]) closeDetails() {
	s.detailsID = 0
	s.details = nil
	s.detailsErr = nil
}

func (s *ListScreen[E]) selected() (E, bool) {
	var zero E
	i := s.table.Cursor()
	if i < 0 || i >= len(s.state.Items) {
		return zero, false
	}
	return s.state.Items[i], true
}

func (s *ListScreen[E]) SetSize(width, height int) {
	s.width, s.height = width, height
	s.table.SetHeight(max(height-10, 3))
	s.table.SetWidth(max(width-4, 20))
}

// apply redraws the table from st.
func (s *ListScreen[E]) apply(st listing.State[E]) {
	s.state = st

	rows := make([]table.Row, len(st.Items))
	for i, item := range st.Items {
		rows[i] = item.Record()
	}

	widths := make([]int, len(s.columns))
	cols := make([]table.Column, len(s.columns))
	for i, c := range s.columns {
		title := c.Title
		if c.Field != "" && c.Field == st.PropOrder {
			title += sortIndicator(st.Reverse)
		}
		widths[i] = utf8.RuneCountInString(title)
		for _, r := range rows {
			if i < len(r) {
				widths[i] = max(widths[i], utf8.RuneCountInString(r[i]))
			}
		}
		cols[i] = table.Column{Title: title, Width: min(widths[i]+1, maxColumnWidth)}
	}

	s.table.SetColumns(cols)
	s.table.SetRows(rows)
	if c := s.table.Cursor(); c >= len(rows) {
		s.table.SetCursor(max(len(rows)-1, 0))
	} else if c < 0 && len(rows) > 0 {
		s.table.SetCursor(0)
	}

	s.pager.SetTotalPages(st.TotalPages())
	s.pager.Page = min(max(st.CurrentPage-1, 0), s.pager.TotalPages-1)
}

func sortIndicator(reverse bool) string {
	if reverse {
		return " ▼"
	}
	return " ▲"
}

func (s *ListScreen[E]) View(spinner string) string {
	if !s.activated {
		return fmt.Sprintf("%s Loading %s...", spinner, strings.ToLower(s.title))
	}
	if s.detailsID != 0 {
		return s.renderDetails(spinner)
	}

	var b strings.Builder
	status := fmt.Sprintf("%d total", s.state.TotalItems)
	if s.state.Status == listing.Loading {
		status = spinner + " " + status
	}
	b.WriteString(styles.title.Render(fmt.Sprintf("%s  %s", s.title, styles.help.Render(status))))
	b.WriteString("\n")

	if len(s.state.Items) == 0 {
		b.WriteString(styles.help.Render(fmt.Sprintf("No %s found", strings.ToLower(s.title))))
		b.WriteString("\n")
	} else {
		b.WriteString(s.table.View())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s  page %d/%d", s.pager.View(), s.state.CurrentPage, s.state.TotalPages())

	if s.Confirming() {
		prompt := fmt.Sprintf("Delete %s %d?\n\n%s",
			strings.ToLower(s.ctrl.Name()), (*s.state.Pending).Identity(), styles.help.Render("y confirm • n cancel"))
		b.WriteString("\n\n")
		b.WriteString(styles.dialog.Render(prompt))
	}
	return b.String()
}

func (s *ListScreen[E]) renderDetails(spinner string) string {
	title := styles.title.Render(fmt.Sprintf("%s %d", s.ctrl.Name(), s.detailsID))

	switch {
	case s.detailsErr != nil:
		return fmt.Sprintf("%s\n%s", title, styles.err.Render(s.detailsErr.Error()))
	case s.details == nil:
		return fmt.Sprintf("%s\n%s Loading...", title, spinner)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	record := (*s.details).Record()
	for i, c := range s.columns {
		var v string
		if i < len(record) {
			v = record[i]
		}
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(c.Title), v)
	}
	return b.String()
}

func (s *ListScreen[E]) Help() []key.Binding {
	switch {
	case s.detailsID != 0:
		return []key.Binding{s.keys.back, s.keys.tab, s.keys.quit}
	case s.Confirming():
		return []key.Binding{s.keys.yes, s.keys.no}
	default:
		return s.keys.ShortHelp()
	}
}

// Close ends the controller subscription.
func (s *ListScreen[E]) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
