package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive catalogue browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	model, err := r.newModel(ctx, cmd.String("route"))
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// newModel builds one list screen per entity, all notifying through a shared toast queue. Screens are
// guarded by the stored token, so a missing login shows the access denied view instead of failing here.
func (r *Runner) newModel(ctx context.Context, route string) (*ui.Model, error) {
	toasts := ui.NewToastQueue()

	var api *services.APIService
	if r.api != nil {
		api = r.api
	} else {
		tok, _ := r.tokens.Load()
		api = services.NewAPIService(r.config.Client.BaseURL, services.NewHTTPClient(ctx, r.config.Client.Timeout, tok))
	}

	screens := []ui.Screen{
		listScreen(r, toasts, "album", "Albums", "Album", services.NewAlbumService(api)),
		listScreen(r, toasts, "singer", "Singers", "Singer", services.NewSingerService(api)),
		listScreen(r, toasts, "song", "Songs", "Song", services.NewSongService(api)),
	}

	return ui.NewModel(ctx, ui.Options{
		Screens: screens,
		Route:   route,
		Guard:   ui.UserGuard(r.tokens),
		Toasts:  toasts,
	})
}

func listScreen[E entity](r *Runner, toasts *ui.ToastQueue, route, title, name string, svc *services.EntityService[E]) ui.Screen {
	var zero E
	ctrl := listing.NewController[E](svc, listing.Options{
		Name:         name,
		ItemsPerPage: r.config.Client.ItemsPerPage,
		SortFields:   models.SortFields(zero),
		Notifier:     toasts,
		Logger:       r.logger,
	})
	return ui.NewListScreen(route, title, ctrl, svc.Find)
}
