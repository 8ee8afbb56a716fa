package listing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	tu "github.com/desertthunder/jukebox/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singers(n int) []models.Singer {
	out := make([]models.Singer, n)
	for i := range out {
		out[i] = models.Singer{ID: int64(i + 1), Name: fmt.Sprintf("Singer %d", i+1)}
	}
	return out
}

func newController(col listing.Collection[models.Singer], n listing.Notifier) *listing.Controller[models.Singer] {
	return listing.NewController(col, listing.Options{
		Name:         "Singer",
		ItemsPerPage: 20,
		Notifier:     n,
		Logger:       shared.NewLogger(&nopWriter{}),
	})
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestSortKeys(t *testing.T) {
	tc := []struct {
		name    string
		prop    string
		reverse bool
		want    []string
	}{
		{name: "id ascending", prop: "id", want: []string{"id,asc"}},
		{name: "id descending", prop: "id", reverse: true, want: []string{"id,desc"}},
		{name: "name ascending", prop: "name", want: []string{"name,asc", "id"}},
		{name: "name descending", prop: "name", reverse: true, want: []string{"name,desc", "id"}},
		{name: "nested field", prop: "singer.id", want: []string{"singer.id,asc", "id"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listing.SortKeys(tt.prop, tt.reverse))
		})
	}
}

func TestController(t *testing.T) {
	ctx := context.Background()

	t.Run("Initial State", func(t *testing.T) {
		c := newController(&tu.StubCollection[models.Singer]{}, nil)
		s := c.State()

		assert.Equal(t, 1, s.CurrentPage)
		assert.Equal(t, 1, s.PreviousPage)
		assert.Equal(t, "id", s.PropOrder)
		assert.False(t, s.Reverse)
		assert.Equal(t, 0, s.TotalItems)
		assert.Equal(t, 20, s.ItemsPerPage)
		assert.Nil(t, s.Pending)
		assert.Equal(t, listing.Idle, s.Status)
		assert.Equal(t, []string{"id,asc"}, c.Sort())
	})

	t.Run("Activate Loads First Page", func(t *testing.T) {
		col := &tu.StubCollection[models.Singer]{Items: []models.Singer{{ID: 123, Name: "Nina"}}}
		c := newController(col, nil)

		require.NoError(t, c.Activate(ctx))

		s := c.State()
		assert.Equal(t, []models.Singer{{ID: 123, Name: "Nina"}}, s.Items)
		assert.Equal(t, 1, s.TotalItems)
		require.Equal(t, 1, col.RetrieveCount())
		assert.Equal(t, listing.Query{Page: 0, Size: 20, Sort: []string{"id,asc"}}, col.Queries()[0])
	})

	t.Run("Activate Starts Over", func(t *testing.T) {
		col := &tu.StubCollection[models.Singer]{Items: singers(45)}
		c := newController(col, nil)

		require.NoError(t, c.Activate(ctx))
		require.NoError(t, c.ChangeOrder(ctx, "id"))
		require.NoError(t, c.LoadPage(ctx, 2))
		c.PrepareRemove(models.Singer{ID: 45})

		require.NoError(t, c.Activate(ctx))

		s := c.State()
		assert.Equal(t, 1, s.CurrentPage)
		assert.Equal(t, 1, s.PreviousPage)
		assert.Equal(t, "id", s.PropOrder)
		assert.False(t, s.Reverse)
		assert.Nil(t, s.Pending)
		assert.Equal(t, 20, s.ItemsPerPage)
		assert.Equal(t, int64(1), s.Items[0].ID)

		queries := col.Queries()
		assert.Equal(t, listing.Query{Page: 0, Size: 20, Sort: []string{"id,asc"}}, queries[len(queries)-1])
	})

	t.Run("LoadPage", func(t *testing.T) {
		t.Run("fetches a different page", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(45)}
			c := newController(col, nil)

			require.NoError(t, c.LoadPage(ctx, 2))

			s := c.State()
			assert.Equal(t, 2, s.CurrentPage)
			assert.Equal(t, 2, s.PreviousPage)
			assert.Len(t, s.Items, 20)
			assert.Equal(t, int64(21), s.Items[0].ID)
			assert.Equal(t, 45, s.TotalItems)
			assert.Equal(t, 3, s.TotalPages())
			require.Equal(t, 1, col.RetrieveCount())
			assert.Equal(t, 1, col.Queries()[0].Page)
		})

		t.Run("same as previous page is suppressed", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(45)}
			c := newController(col, nil)

			require.NoError(t, c.LoadPage(ctx, 1))
			assert.Equal(t, 0, col.RetrieveCount())
		})

		t.Run("loading a page twice fetches once", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(45)}
			c := newController(col, nil)

			require.NoError(t, c.LoadPage(ctx, 2))
			require.NoError(t, c.LoadPage(ctx, 2))
			assert.Equal(t, 1, col.RetrieveCount())
		})

		t.Run("rejects pages below one", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{}
			c := newController(col, nil)

			err := c.LoadPage(ctx, 0)
			require.ErrorIs(t, err, shared.ErrInvalidPage)
			assert.Equal(t, listing.LogicError, listing.KindOf(err))
			assert.Equal(t, 0, col.RetrieveCount())
		})
	})

	t.Run("Clear", func(t *testing.T) {
		col := &tu.StubCollection[models.Singer]{Items: singers(45)}
		c := newController(col, nil)

		require.NoError(t, c.Activate(ctx))
		require.NoError(t, c.LoadPage(ctx, 2))
		require.NoError(t, c.Clear(ctx))

		assert.Equal(t, 3, col.RetrieveCount())
		s := c.State()
		assert.Equal(t, 1, s.CurrentPage)
		assert.Equal(t, 0, s.PreviousPage)

		require.NoError(t, c.LoadPage(ctx, 1))
		assert.Equal(t, 4, col.RetrieveCount(), "loadPage(1) after clear must not be suppressed")
	})

	t.Run("ChangeOrder", func(t *testing.T) {
		t.Run("new field sorts ascending from page one", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(45)}
			c := newController(col, nil)

			require.NoError(t, c.LoadPage(ctx, 3))
			require.NoError(t, c.ChangeOrder(ctx, "name"))

			s := c.State()
			assert.Equal(t, "name", s.PropOrder)
			assert.False(t, s.Reverse)
			assert.Equal(t, 1, s.CurrentPage)
			assert.Equal(t, []string{"name,asc", "id"}, c.Sort())

			queries := col.Queries()
			last := queries[len(queries)-1]
			assert.Equal(t, 0, last.Page)
			assert.Equal(t, []string{"name,asc", "id"}, last.Sort)
		})

		t.Run("same field toggles direction", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(5)}
			c := newController(col, nil)

			require.NoError(t, c.ChangeOrder(ctx, "name"))
			require.NoError(t, c.ChangeOrder(ctx, "name"))

			assert.True(t, c.State().Reverse)
			assert.Equal(t, []string{"name,desc", "id"}, c.Sort())
			assert.Equal(t, 2, col.RetrieveCount())
		})

		t.Run("switching field resets direction", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(5)}
			c := newController(col, nil)

			require.NoError(t, c.ChangeOrder(ctx, "id"))
			assert.Equal(t, []string{"id,desc"}, c.Sort())

			require.NoError(t, c.ChangeOrder(ctx, "name"))
			assert.Equal(t, []string{"name,asc", "id"}, c.Sort())
		})

		t.Run("whitelist rejects unknown fields", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{}
			c := listing.NewController[models.Singer](col, listing.Options{
				SortFields: models.SortFields(models.Singer{}),
				Logger:     shared.NewLogger(&nopWriter{}),
			})

			err := c.ChangeOrder(ctx, "password")
			require.ErrorIs(t, err, shared.ErrInvalidSortField)
			assert.Equal(t, "id", c.State().PropOrder)
			assert.Equal(t, 0, col.RetrieveCount())
		})
	})

	t.Run("Remove", func(t *testing.T) {
		t.Run("deletes then retrieves once", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: []models.Singer{{ID: 123, Name: "Nina"}, {ID: 124, Name: "Ella"}}}
			notes := &tu.RecordingNotifier{}
			c := newController(col, notes)

			c.PrepareRemove(models.Singer{ID: 123})
			require.True(t, c.State().HasPending())
			assert.Empty(t, col.Calls(), "prepareRemove must not touch the network")

			require.NoError(t, c.RemoveEntity(ctx))

			assert.Equal(t, []int64{123}, col.Deletes())
			assert.Equal(t, []string{"delete", "retrieve"}, col.Calls())

			s := c.State()
			assert.Nil(t, s.Pending)
			assert.Equal(t, []models.Singer{{ID: 124, Name: "Ella"}}, s.Items)

			sent := notes.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, listing.Info, sent[0].Level)
			assert.Contains(t, sent[0].Message, "123")
		})

		t.Run("without candidate is a logic error", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{}
			c := newController(col, nil)

			err := c.RemoveEntity(ctx)
			require.ErrorIs(t, err, shared.ErrNoPendingDelete)
			assert.Equal(t, listing.LogicError, listing.KindOf(err))
			assert.Empty(t, col.Calls())
		})

		t.Run("prepare is idempotent and cancel clears", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{}
			c := newController(col, nil)

			c.PrepareRemove(models.Singer{ID: 1})
			c.PrepareRemove(models.Singer{ID: 1})
			assert.Equal(t, int64(1), c.State().Pending.ID)

			c.CancelRemove()
			assert.Nil(t, c.State().Pending)
			assert.Empty(t, col.Calls())
		})

		t.Run("delete failure keeps candidate and skips retrieve", func(t *testing.T) {
			failure := fmt.Errorf("%w: status 409", shared.ErrAPIRequest)
			col := &tu.StubCollection[models.Singer]{DeleteErr: failure}
			notes := &tu.RecordingNotifier{}
			c := newController(col, notes)

			c.PrepareRemove(models.Singer{ID: 9})
			err := c.RemoveEntity(ctx)

			require.ErrorIs(t, err, failure)
			assert.Equal(t, listing.ServerError, listing.KindOf(err))
			assert.Equal(t, []string{"delete"}, col.Calls())
			assert.NotNil(t, c.State().Pending)

			sent := notes.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, listing.Danger, sent[0].Level)
		})

		t.Run("last item on last page leaves an empty page", func(t *testing.T) {
			col := &tu.StubCollection[models.Singer]{Items: singers(21)}
			c := newController(col, nil)

			require.NoError(t, c.LoadPage(ctx, 2))
			require.Len(t, c.State().Items, 1)

			c.PrepareRemove(models.Singer{ID: 21})
			require.NoError(t, c.RemoveEntity(ctx))

			s := c.State()
			assert.Equal(t, 2, s.CurrentPage)
			assert.Empty(t, s.Items)
			assert.Equal(t, 20, s.TotalItems)
		})
	})

	t.Run("Retrieve Failure Keeps State", func(t *testing.T) {
		col := &tu.StubCollection[models.Singer]{Items: singers(3)}
		notes := &tu.RecordingNotifier{}
		c := newController(col, notes)
		require.NoError(t, c.Activate(ctx))

		col.RetrieveErr = fmt.Errorf("%w: connection refused", shared.ErrTransport)
		err := c.LoadPage(ctx, 2)

		require.Error(t, err)
		assert.Equal(t, listing.TransportError, listing.KindOf(err))

		s := c.State()
		assert.Len(t, s.Items, 3)
		assert.Equal(t, 3, s.TotalItems)
		assert.Equal(t, listing.Idle, s.Status)
		assert.Equal(t, 2, s.CurrentPage, "the page is recorded before the fetch")
		assert.Equal(t, 2, s.PreviousPage)

		sent := notes.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, listing.Danger, sent[0].Level)

		col.RetrieveErr = nil
		require.NoError(t, c.LoadPage(ctx, 2))
		assert.Equal(t, 2, col.RetrieveCount(), "retrying the failed page is suppressed")

		require.NoError(t, c.Clear(ctx))
		require.NoError(t, c.LoadPage(ctx, 2))
		assert.Equal(t, 4, col.RetrieveCount())
	})
}

func TestControllerStaleResponses(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	col := &tu.StubCollection[models.Singer]{}
	col.RetrieveFunc = func(ctx context.Context, q listing.Query) (*listing.Page[models.Singer], error) {
		if q.Page == 1 {
			close(started)
			<-release
			return &listing.Page[models.Singer]{Items: []models.Singer{{ID: 21}}, Total: 60}, nil
		}
		return &listing.Page[models.Singer]{Items: []models.Singer{{ID: 41}}, Total: 60}, nil
	}
	c := newController(col, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, c.LoadPage(ctx, 2))
	}()

	<-started
	assert.Equal(t, listing.Loading, c.State().Status)

	require.NoError(t, c.LoadPage(ctx, 3))
	assert.Equal(t, listing.Loading, c.State().Status, "page 2 is still in flight")

	close(release)
	wg.Wait()

	s := c.State()
	assert.Equal(t, 3, s.CurrentPage)
	assert.Equal(t, []models.Singer{{ID: 41}}, s.Items, "the older page 2 response must be discarded")
	assert.Equal(t, listing.Idle, s.Status)
}

func TestControllerSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("receives latest state", func(t *testing.T) {
		col := &tu.StubCollection[models.Singer]{Items: singers(3)}
		c := newController(col, nil)

		updates, cancel := c.Subscribe()
		defer cancel()

		require.NoError(t, c.Activate(ctx))

		select {
		case s := <-updates:
			assert.Len(t, s.Items, 3)
			assert.Equal(t, listing.Idle, s.Status)
		case <-time.After(time.Second):
			t.Fatal("expected a state update")
		}
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		c := newController(&tu.StubCollection[models.Singer]{}, nil)
		updates, cancel := c.Subscribe()
		cancel()
		cancel()

		_, ok := <-updates
		assert.False(t, ok)
	})

	t.Run("close ends subscriptions", func(t *testing.T) {
		c := newController(&tu.StubCollection[models.Singer]{}, nil)
		updates, cancel := c.Subscribe()
		defer cancel()

		c.Close()
		_, ok := <-updates
		assert.False(t, ok)

		late, _ := c.Subscribe()
		_, ok = <-late
		assert.False(t, ok)
	})
}

func TestKindOf(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want listing.Kind
	}{
		{name: "nil", err: nil, want: listing.UnknownError},
		{name: "transport", err: fmt.Errorf("%w: dial tcp", shared.ErrTransport), want: listing.TransportError},
		{name: "deadline", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), want: listing.TransportError},
		{name: "canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), want: listing.TransportError},
		{name: "server", err: fmt.Errorf("%w: status 500", shared.ErrAPIRequest), want: listing.ServerError},
		{name: "logic", err: shared.ErrNoPendingDelete, want: listing.LogicError},
		{name: "other", err: errors.New("boom"), want: listing.UnknownError},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listing.KindOf(tt.err))
		})
	}
}
