package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Options configures a [Model].
type Options struct {
	Screens []Screen    // in tab order; the first is the default route
	Route   string      // initial route, e.g. "/album" or "/song/3/view"
	Guard   Guard       // defaults to [AllowAll]
	Toasts  *ToastQueue // the notifier the screens' controllers were built with
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	screens  []Screen
	index    map[string]int
	current  int
	initial  Route
	guard    Guard
	guardErr error

	toasts    *ToastQueue
	shown     []toast
	nextToast int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
	height  int
}

// NewModel creates the TUI over screens. It fails when the initial route names no screen.
func NewModel(ctx context.Context, opts Options) (*Model, error) {
	if len(opts.Screens) == 0 {
		return nil, fmt.Errorf("%w: no screens", shared.ErrMissingArgument)
	}
	if opts.Guard == nil {
		opts.Guard = AllowAll
	}
	if opts.Toasts == nil {
		opts.Toasts = NewToastQueue()
	}

	m := &Model{
		ctx:     ctx,
		screens: opts.Screens,
		index:   make(map[string]int, len(opts.Screens)),
		guard:   opts.Guard,
		toasts:  opts.Toasts,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
	for i, s := range opts.Screens {
		m.index[s.Entity()] = i
	}

	m.initial = Route{Entity: opts.Screens[0].Entity()}
	if opts.Route != "" {
		r, err := ParseRoute(opts.Route)
		if err != nil {
			return nil, err
		}
		if _, ok := m.index[r.Entity]; !ok {
			return nil, fmt.Errorf("%w: no screen for route %s", shared.ErrInvalidArgument, r)
		}
		m.initial = r
	}
	m.current = m.index[m.initial.Entity]
	return m, nil
}

// Route returns the route currently shown.
func (m *Model) Route() Route { return m.screens[m.current].Route() }

// Init enters the initial route and starts the spinner and toast queue.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.toasts.wait(), m.enter(m.initial))
}

// enter runs the guard for r and, when it passes, activates the screen. Entering is two-phase: the screen
// shows a spinner until its controller has loaded the first page.
func (m *Model) enter(r Route) tea.Cmd {
	m.current = m.index[r.Entity]
	if err := m.guard(r); err != nil {
		m.guardErr = err
		return nil
	}
	m.guardErr = nil

	s := m.screens[m.current]
	cmds := []tea.Cmd{s.Init(m.ctx)}
	if r.Details() {
		cmds = append(cmds, s.OpenDetails(m.ctx, r.ID))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for _, s := range m.screens {
			s.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgToast:
			return m, m.pushToast(msg)
		case MsgToastExpired:
			m.dropToast(msg.data.(int))
			return m, nil
		}
		if i, ok := m.index[msg.entity]; ok {
			return m, m.screens[i].Update(m.ctx, msg)
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		next := m.screens[(m.current+1)%len(m.screens)]
		return m, m.enter(Route{Entity: next.Entity()})
	}

	if m.guardErr != nil {
		return m, nil
	}
	return m, m.screens[m.current].HandleKey(m.ctx, msg)
}

func (m *Model) pushToast(msg Msg) tea.Cmd {
	m.nextToast++
	t := toast{id: m.nextToast, Notification: msg.data.(listing.Notification)}
	m.shown = append(m.shown, t)
	if len(m.shown) > maxToasts {
		m.shown = m.shown[len(m.shown)-maxToasts:]
	}
	return tea.Batch(expireToast(t.id), m.toasts.wait())
}

func (m *Model) dropToast(id int) {
	for i, t := range m.shown {
		if t.id == id {
			m.shown = append(m.shown[:i], m.shown[i+1:]...)
			return
		}
	}
}

// View renders the current screen with tabs, toasts and help.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	s := m.screens[m.current]
	if m.guardErr != nil {
		b.WriteString(styles.err.Render("Access denied"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render(m.guardErr.Error()))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.tab, m.keys.quit}))
		return b.String()
	}

	b.WriteString(s.View(m.spinner.View()))
	b.WriteString("\n")

	if len(m.shown) > 0 {
		toasts := make([]string, len(m.shown))
		for i, t := range m.shown {
			toasts[i] = styles.Toast(t.Level).Render(fmt.Sprintf("%s: %s", t.Title, t.Message))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, toasts...))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(s.Help()))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.screens))
	for i, s := range m.screens {
		if i == m.current {
			tabs[i] = styles.ok.Render("[" + s.Title() + "]")
		} else {
			tabs[i] = styles.help.Render(" " + s.Title() + " ")
		}
	}
	return fmt.Sprintf("%s  %s", strings.Join(tabs, " "), styles.help.Render(m.Route().String()))
}

// Close ends every screen's controller subscription.
func (m *Model) Close() {
	for _, s := range m.screens {
		s.Close()
	}
}
