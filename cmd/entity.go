package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// entity is a catalogue type the CLI can list, print and edit.
type entity interface {
	models.Model
	models.Tabular
}

// entityActions implements the list/get/create/update/patch/delete actions for one entity type.
type entityActions[E entity] struct {
	r          *Runner
	name       string // "Album"
	plural     string // "albums"
	newService func(*services.APIService) *services.EntityService[E]
}

func (a *entityActions[E]) service(ctx context.Context) (*services.EntityService[E], error) {
	api, err := a.r.client(ctx)
	if err != nil {
		return nil, err
	}
	return a.newService(api), nil
}

// List prints one page of the collection.
func (a *entityActions[E]) List(ctx context.Context, cmd *cli.Command) error {
	page := cmd.Int("page")
	if page < 1 {
		return fmt.Errorf("%w: %d", shared.ErrInvalidPage, page)
	}
	size := cmd.Int("size")
	if size <= 0 {
		size = a.r.config.Client.ItemsPerPage
	}

	sort := cmd.StringSlice("sort")
	if err := validateSort[E](sort); err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	a.r.logger.Debug("listing", "resource", a.plural, "page", page, "size", size, "sort", sort)
	res, err := svc.Retrieve(ctx, listing.Query{Page: page - 1, Size: size, Sort: sort})
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", a.plural, err)
	}

	if cmd.Bool("json") {
		return a.r.writeJSON(res.Items, cmd.Bool("pretty"))
	}

	if len(res.Items) == 0 {
		return a.r.writePlain("No %s found\n", a.plural)
	}
	if err := formatter.WriteText(a.r.output, formatter.NewTable(a.name+"s", res.Items)); err != nil {
		return err
	}
	return a.r.writePlainln("page %d/%d (%d total)", page, models.TotalPages(res.Total, size), res.Total)
}

// validateSort checks each "field[,dir]" key against the sortable columns of E.
func validateSort[E entity](keys []string) error {
	orders, err := models.ParseOrders(keys)
	if err != nil {
		return err
	}

	var zero E
	fields := models.SortFields(zero)
	for _, o := range orders {
		if !slices.Contains(fields, o.Field) {
			return fmt.Errorf("%w: %q (one of %v)", shared.ErrInvalidSortField, o.Field, fields)
		}
	}
	return nil
}

// Get prints one entity as JSON.
func (a *entityActions[E]) Get(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	e, err := svc.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", a.name, id, err)
	}
	return a.r.writeJSON(e, cmd.Bool("pretty"))
}

// Create posts the --data document and prints the created entity.
func (a *entityActions[E]) Create(ctx context.Context, cmd *cli.Command) error {
	var e E
	if err := json.Unmarshal([]byte(cmd.String("data")), &e); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if e.Identity() != 0 {
		return fmt.Errorf("%w: a new %s cannot already have an id", shared.ErrInvalidInput, a.name)
	}
	if err := e.Validate(); err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	created, err := svc.Create(ctx, &e)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", a.name, err)
	}
	a.r.logger.Info("created", "resource", a.plural, "id", (*created).Identity())
	return a.r.writeJSON(created, cmd.Bool("pretty"))
}

// Update replaces the entity ID with the --data document. An id in the body must match ID.
func (a *entityActions[E]) Update(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	e, err := decodeWithID[E](cmd.String("data"), id)
	if err != nil {
		return err
	}
	if err := (*e).Validate(); err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	updated, err := svc.Update(ctx, e)
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", a.name, id, err)
	}
	a.r.logger.Info("updated", "resource", a.plural, "id", id)
	return a.r.writeJSON(updated, cmd.Bool("pretty"))
}

// Patch sends --data as a merge patch.
func (a *entityActions[E]) Patch(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	data := []byte(cmd.String("data"))
	if !json.Valid(data) {
		return fmt.Errorf("%w: --data is not valid JSON", shared.ErrInvalidInput)
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	patched, err := svc.PartialUpdate(ctx, id, data)
	if err != nil {
		return fmt.Errorf("failed to patch %s %d: %w", a.name, id, err)
	}
	a.r.logger.Info("patched", "resource", a.plural, "id", id)
	return a.r.writeJSON(patched, cmd.Bool("pretty"))
}

// Delete removes one entity through a listing controller, the same path the TUI's delete dialog takes.
func (a *entityActions[E]) Delete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	e, err := svc.Find(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", a.name, id, err)
	}

	ctrl := listing.NewController[E](svc, listing.Options{
		Name:         a.name,
		ItemsPerPage: a.r.config.Client.ItemsPerPage,
		Logger:       a.r.logger,
	})
	defer ctrl.Close()

	ctrl.PrepareRemove(*e)
	if err := ctrl.RemoveEntity(ctx); err != nil {
		return err
	}
	return a.r.writePlain("✓ %s %d deleted\n", a.name, id)
}

func idArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", shared.ErrInvalidID, raw)
	}
	return id, nil
}

// decodeWithID decodes data into an E whose id is forced to id.
func decodeWithID[E entity](data string, id int64) (*E, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: --data must be a JSON object", shared.ErrInvalidInput)
	}
	if v, ok := fields["id"].(float64); ok && int64(v) != id {
		return nil, fmt.Errorf("%w: id %d in body does not match %d", shared.ErrInvalidID, int64(v), id)
	}
	fields["id"] = id

	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var e E
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return &e, nil
}
