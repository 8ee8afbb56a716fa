package ui

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	th "github.com/desertthunder/jukebox/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func singerScreen(t *testing.T, n int, notifier listing.Notifier) (*ListScreen[models.Singer], *th.StubCollection[models.Singer]) {
	t.Helper()

	items := make([]models.Singer, n)
	for i := range n {
		items[i] = models.Singer{ID: int64(i + 1), Name: string(rune('A' + i))}
	}
	stub := &th.StubCollection[models.Singer]{Items: items}
	ctrl := listing.NewController[models.Singer](stub, listing.Options{
		Name:         "Singer",
		ItemsPerPage: 2,
		Notifier:     notifier,
		Logger:       shared.NewLogger(io.Discard),
	})
	find := func(ctx context.Context, id int64) (*models.Singer, error) {
		for _, s := range items {
			if s.ID == id {
				return &s, nil
			}
		}
		return nil, shared.ErrNotFound
	}
	return NewListScreen("singer", "Singers", ctrl, find), stub
}

// activate runs the controller's first fetch the way Init's command would.
func activate(t *testing.T, s *ListScreen[models.Singer]) {
	t.Helper()
	err := s.ctrl.Activate(context.Background())
	s.Update(context.Background(), activatedMsg(s.Entity(), err))
}

// exec runs cmd synchronously and feeds the resulting message back into the screen.
func exec(t *testing.T, s *ListScreen[models.Singer], cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(Msg)
	if !ok {
		t.Fatal("expected a ui message")
	}
	s.Update(context.Background(), msg)
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path    string
		want    Route
		wantErr bool
	}{
		{path: "/album", want: Route{Entity: "album"}},
		{path: "song", want: Route{Entity: "song"}},
		{path: "/singer/12/view", want: Route{Entity: "singer", ID: 12}},
		{path: "/singer/12/view/", want: Route{Entity: "singer", ID: 12}},
		{path: "", wantErr: true},
		{path: "/", wantErr: true},
		{path: "/singer/0/view", wantErr: true},
		{path: "/singer/abc/view", wantErr: true},
		{path: "/singer/12/edit", wantErr: true},
		{path: "/singer/12", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseRoute(tt.path)
		if tt.wantErr {
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("ParseRoute(%q) expected ErrInvalidArgument, got %v", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRoute(%q) failed: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRoute(%q) = %+v, want %+v", tt.path, got, tt.want)
		}
	}

	if s := (Route{Entity: "album", ID: 3}).String(); s != "/album/3/view" {
		t.Errorf("String() = %s", s)
	}
}

func TestTokenGuard(t *testing.T) {
	sign := func(t *testing.T, auth string, exp time.Time) *oauth2.Token {
		t.Helper()
		claims := models.Claims{
			Auth:             auth,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "admin", ExpiresAt: jwt.NewNumericDate(exp)},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return &oauth2.Token{AccessToken: raw, TokenType: "Bearer", Expiry: exp}
	}

	route := Route{Entity: "album"}

	t.Run("Allowed", func(t *testing.T) {
		store := services.NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
		if err := store.Save(sign(t, "ROLE_ADMIN,ROLE_USER", time.Now().Add(time.Hour))); err != nil {
			t.Fatal(err)
		}
		if err := UserGuard(store)(route); err != nil {
			t.Errorf("expected access, got %v", err)
		}
	})

	t.Run("MissingAuthority", func(t *testing.T) {
		store := services.NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
		if err := store.Save(sign(t, "ROLE_GUEST", time.Now().Add(time.Hour))); err != nil {
			t.Fatal(err)
		}
		err := UserGuard(store)(route)
		if !errors.Is(err, shared.ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", err)
		}
	})

	t.Run("NoToken", func(t *testing.T) {
		store := services.NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
		err := UserGuard(store)(route)
		if !errors.Is(err, shared.ErrAccessDenied) || !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrAccessDenied wrapping ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		store := services.NewTokenStore(filepath.Join(t.TempDir(), "token.json"))
		if err := store.Save(sign(t, "ROLE_USER", time.Now().Add(-time.Hour))); err != nil {
			t.Fatal(err)
		}
		err := UserGuard(store)(route)
		if !errors.Is(err, shared.ErrAccessDenied) || !strings.Contains(err.Error(), "expired") {
			t.Errorf("expected expired session error, got %v", err)
		}
	})
}

func TestToastQueue(t *testing.T) {
	q := NewToastQueue()
	for i := range queueDepth + 5 {
		q.Notify(listing.Notification{Level: listing.Info, Message: string(rune('a' + i%26))})
	}

	msg := q.wait()().(Msg)
	if msg.kind != MsgToast {
		t.Fatalf("kind = %d, want MsgToast", msg.kind)
	}
	if n := msg.data.(listing.Notification); n.Message != "a" {
		t.Errorf("first toast = %q, want a", n.Message)
	}
}

func TestListScreen(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadingUntilActivated", func(t *testing.T) {
		s, _ := singerScreen(t, 3, nil)
		if v := s.View("*"); !strings.Contains(v, "Loading singers") {
			t.Errorf("expected loading view, got %q", v)
		}
		if cmd := s.HandleKey(ctx, runes("l")); cmd != nil {
			t.Error("keys should be ignored before activation")
		}

		activate(t, s)
		v := s.View("*")
		for _, want := range []string{"Singers", "3 total", "ID ▲", "page 1/2"} {
			if !strings.Contains(v, want) {
				t.Errorf("view missing %q:\n%s", want, v)
			}
		}
	})

	t.Run("CursorOnFirstRow", func(t *testing.T) {
		s, _ := singerScreen(t, 3, nil)
		activate(t, s)

		if c := s.table.Cursor(); c != 0 {
			t.Fatalf("Cursor = %d, want 0", c)
		}
		s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyDown})
		if c := s.table.Cursor(); c != 1 {
			t.Errorf("Cursor after down = %d, want 1", c)
		}
	})

	t.Run("ReEntryStartsOver", func(t *testing.T) {
		s, stub := singerScreen(t, 3, nil)
		activate(t, s)

		exec(t, s, s.HandleKey(ctx, runes("1")))
		exec(t, s, s.HandleKey(ctx, runes("l")))
		s.HandleKey(ctx, runes("d"))
		if st := s.State(); st.CurrentPage != 2 || !st.Reverse || !st.HasPending() {
			t.Fatalf("unexpected state before re-entry: %+v", st)
		}

		if cmd := s.Init(ctx); cmd == nil {
			t.Fatal("expected activation command")
		}
		activate(t, s)

		st := s.State()
		if st.CurrentPage != 1 || st.PreviousPage != 1 || st.PropOrder != "id" || st.Reverse || st.HasPending() {
			t.Errorf("re-entry should start from a fresh state, got %+v", st)
		}
		last := stub.Queries()[stub.RetrieveCount()-1]
		if last.Page != 0 || strings.Join(last.Sort, ";") != "id,asc" {
			t.Errorf("re-entry query = %+v", last)
		}
		if s.Confirming() {
			t.Error("delete dialog should not survive re-entry")
		}
	})

	t.Run("Paging", func(t *testing.T) {
		s, stub := singerScreen(t, 3, nil)
		activate(t, s)

		if cmd := s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyLeft}); cmd != nil {
			t.Error("no previous page on page 1")
		}

		exec(t, s, s.HandleKey(ctx, runes("l")))
		if st := s.State(); st.CurrentPage != 2 || len(st.Items) != 1 || st.Items[0].ID != 3 {
			t.Errorf("unexpected state after next page: %+v", st)
		}
		if cmd := s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyRight}); cmd != nil {
			t.Error("no next page on the last page")
		}

		exec(t, s, s.HandleKey(ctx, runes("h")))
		if s.State().CurrentPage != 1 {
			t.Errorf("CurrentPage = %d, want 1", s.State().CurrentPage)
		}
		if stub.RetrieveCount() != 3 {
			t.Errorf("RetrieveCount = %d, want 3", stub.RetrieveCount())
		}

		exec(t, s, s.HandleKey(ctx, runes("c")))
		if s.State().CurrentPage != 1 || s.State().PreviousPage != 0 {
			t.Errorf("unexpected state after clear: %+v", s.State())
		}
	})

	t.Run("Sorting", func(t *testing.T) {
		s, stub := singerScreen(t, 3, nil)
		activate(t, s)

		exec(t, s, s.HandleKey(ctx, runes("2")))
		if st := s.State(); st.PropOrder != "name" || st.Reverse {
			t.Errorf("unexpected order %s reverse=%v", st.PropOrder, st.Reverse)
		}
		if !strings.Contains(s.View("*"), "Name ▲") {
			t.Error("expected ascending indicator on Name")
		}

		exec(t, s, s.HandleKey(ctx, runes("2")))
		if !s.State().Reverse || !strings.Contains(s.View("*"), "Name ▼") {
			t.Error("expected descending order on second press")
		}

		queries := stub.Queries()
		last := queries[len(queries)-1]
		if strings.Join(last.Sort, ";") != "name,desc;id" {
			t.Errorf("sort = %v", last.Sort)
		}

		if cmd := s.HandleKey(ctx, runes("5")); cmd != nil {
			t.Error("singers have no fifth column")
		}
	})

	t.Run("DeleteConfirmed", func(t *testing.T) {
		notifier := &th.RecordingNotifier{}
		s, stub := singerScreen(t, 3, notifier)
		activate(t, s)

		if cmd := s.HandleKey(ctx, runes("d")); cmd != nil {
			t.Error("staging a delete should not run a command")
		}
		if !s.Confirming() {
			t.Fatal("expected confirm dialog")
		}
		if v := s.View("*"); !strings.Contains(v, "Delete singer 1?") {
			t.Errorf("dialog missing from view:\n%s", v)
		}

		exec(t, s, s.HandleKey(ctx, runes("y")))
		if s.Confirming() {
			t.Error("dialog should close after delete")
		}
		if d := stub.Deletes(); len(d) != 1 || d[0] != 1 {
			t.Errorf("Deletes = %v, want [1]", d)
		}

		sent := notifier.Sent()
		if len(sent) != 1 || sent[0].Message != "Singer deleted with identifier 1" {
			t.Errorf("unexpected notifications %+v", sent)
		}
	})

	t.Run("DeleteCancelled", func(t *testing.T) {
		s, stub := singerScreen(t, 3, nil)
		activate(t, s)

		s.HandleKey(ctx, runes("d"))
		if cmd := s.HandleKey(ctx, runes("n")); cmd != nil {
			t.Error("cancel should not run a command")
		}
		if s.Confirming() || s.State().HasPending() {
			t.Error("pending delete should be cleared")
		}
		if len(stub.Deletes()) != 0 {
			t.Error("nothing should be deleted")
		}
	})

	t.Run("Details", func(t *testing.T) {
		s, _ := singerScreen(t, 3, nil)
		activate(t, s)

		s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyDown})
		exec(t, s, s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyEnter}))

		if r := s.Route().String(); r != "/singer/2/view" {
			t.Errorf("Route = %s", r)
		}
		v := s.View("*")
		if !strings.Contains(v, "Singer 2") || !strings.Contains(v, "B") {
			t.Errorf("unexpected details view:\n%s", v)
		}

		s.HandleKey(ctx, tea.KeyMsg{Type: tea.KeyEsc})
		if r := s.Route().String(); r != "/singer" {
			t.Errorf("Route after esc = %s", r)
		}
	})

	t.Run("DetailsNotFound", func(t *testing.T) {
		s, _ := singerScreen(t, 1, nil)
		activate(t, s)

		exec(t, s, s.OpenDetails(ctx, 99))
		if v := s.View("*"); !strings.Contains(v, shared.ErrNotFound.Error()) {
			t.Errorf("expected not found error in view:\n%s", v)
		}
	})

	t.Run("Subscription", func(t *testing.T) {
		s, _ := singerScreen(t, 3, nil)
		s.states, s.unsubscribe = s.ctrl.Subscribe()
		activate(t, s)

		msg := s.waitForState()().(Msg)
		if msg.kind != MsgStateChanged {
			t.Fatalf("kind = %d, want MsgStateChanged", msg.kind)
		}
		if cmd := s.Update(ctx, msg); cmd == nil {
			t.Error("expected the screen to keep watching")
		}

		s.Close()
		msg = s.waitForState()().(Msg)
		if cmd := s.Update(ctx, msg); cmd != nil {
			t.Error("closed subscription should stop watching")
		}
	})
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	newModel := func(t *testing.T, opts Options) *Model {
		t.Helper()
		singers, _ := singerScreen(t, 3, nil)
		songs := NewListScreen("song", "Songs", listing.NewController[models.Song](
			&th.StubCollection[models.Song]{},
			listing.Options{Name: "Song", Logger: shared.NewLogger(io.Discard)},
		), nil)
		opts.Screens = []Screen{singers, songs}
		m, err := NewModel(ctx, opts)
		if err != nil {
			t.Fatalf("NewModel failed: %v", err)
		}
		return m
	}

	t.Run("Routes", func(t *testing.T) {
		m := newModel(t, Options{Route: "/song"})
		if r := m.Route().String(); r != "/song" {
			t.Errorf("Route = %s", r)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if r := m.Route().String(); r != "/singer" {
			t.Errorf("Route after tab = %s", r)
		}
	})

	t.Run("TabBackStartsOver", func(t *testing.T) {
		m := newModel(t, Options{})
		singers := m.screens[0].(*ListScreen[models.Singer])
		activate(t, singers)
		if err := singers.ctrl.LoadPage(ctx, 2); err != nil {
			t.Fatalf("LoadPage failed: %v", err)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if r := m.Route().String(); r != "/singer" {
			t.Fatalf("Route = %s", r)
		}
		if cmd == nil {
			t.Fatal("expected re-entry to activate the screen")
		}

		activate(t, singers)
		if st := singers.State(); st.CurrentPage != 1 || len(st.Items) != 2 || st.Items[0].ID != 1 {
			t.Errorf("unexpected state after re-entry: %+v", st)
		}
	})

	t.Run("UnknownRoute", func(t *testing.T) {
		_, err := NewModel(ctx, Options{Screens: []Screen{}, Route: "/album"})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		singers, _ := singerScreen(t, 1, nil)
		_, err = NewModel(ctx, Options{Screens: []Screen{singers}, Route: "/album"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("GuardDenies", func(t *testing.T) {
		m := newModel(t, Options{Guard: func(Route) error { return shared.ErrAccessDenied }})
		if cmd := m.enter(Route{Entity: "singer"}); cmd != nil {
			t.Error("denied route should not activate")
		}
		if v := m.View(); !strings.Contains(v, "Access denied") {
			t.Errorf("expected access denied view:\n%s", v)
		}
		if _, cmd := m.Update(runes("l")); cmd != nil {
			t.Error("keys other than tab and quit are ignored while denied")
		}
	})

	t.Run("Toasts", func(t *testing.T) {
		m := newModel(t, Options{})
		m.Update(toastMsg(listing.Notification{Level: listing.Danger, Title: "Error", Message: "boom"}))
		if !strings.Contains(m.View(), "Error: boom") {
			t.Error("expected toast in view")
		}

		m.Update(toastExpiredMsg(m.nextToast))
		if strings.Contains(m.View(), "boom") {
			t.Error("expired toast should be removed")
		}

		for i := range maxToasts + 2 {
			m.Update(toastMsg(listing.Notification{Message: string(rune('a' + i))}))
		}
		if len(m.shown) != maxToasts {
			t.Errorf("shown = %d, want %d", len(m.shown), maxToasts)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newModel(t, Options{})
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("RoutesScreenMessages", func(t *testing.T) {
		m := newModel(t, Options{})
		singers := m.screens[0].(*ListScreen[models.Singer])
		err := singers.ctrl.Activate(ctx)
		m.Update(activatedMsg("singer", err))
		if !singers.activated {
			t.Error("activation message should reach the singer screen")
		}
	})
}
