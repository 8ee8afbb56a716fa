package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/time/rate"
)

// Record is an entity that can be listed and rendered as a table row.
type Record interface {
	listing.Entity
	models.Tabular
}

// Source is one exportable collection.
type Source interface {
	// Name is the plural collection name, used as the file name, e.g. "albums".
	Name() string
	// Fetch walks every page of the collection in id order and returns it as a table.
	Fetch(ctx context.Context, limiter *rate.Limiter, pageSize int, prog chan<- ProgressUpdate) (*FetchResult, error)
}

// FetchResult is a fully fetched collection.
type FetchResult struct {
	Table formatter.Table
	Pages int
}

// CollectionSource exports a [listing.Collection].
type CollectionSource[E Record] struct {
	name       string
	title      string
	collection listing.Collection[E]
}

// NewSource creates a [Source] named name (plural) over collection. title heads Markdown output.
func NewSource[E Record](name, title string, collection listing.Collection[E]) *CollectionSource[E] {
	return &CollectionSource[E]{name: name, title: title, collection: collection}
}

func (s *CollectionSource[E]) Name() string { return s.name }

// Fetch follows the rel="next" link from page 0 until the collection runs out. Each request waits on limiter.
func (s *CollectionSource[E]) Fetch(ctx context.Context, limiter *rate.Limiter, pageSize int, prog chan<- ProgressUpdate) (*FetchResult, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("%w: %s collection not initialized", shared.ErrServiceUnavailable, s.name)
	}

	res := &FetchResult{Table: formatter.NewTable[E](s.title, nil)}
	sort := listing.SortKeys("id", false)

	for page := 0; ; {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		p, err := s.collection.Retrieve(ctx, listing.Query{Page: page, Size: pageSize, Sort: sort})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", s.name, page+1, err)
		}

		formatter.Append(&res.Table, p.Items)
		res.Pages++
		sendProgress(prog, fetchPageUpdate(s.name, page, lastPage(p, page), len(res.Table.Records)))

		next, ok := p.Links["next"]
		if !ok || next <= page || len(p.Items) == 0 {
			break
		}
		page = next
	}

	return res, nil
}

func lastPage[E listing.Entity](p *listing.Page[E], page int) int {
	if last, ok := p.Links["last"]; ok {
		return max(last, page)
	}
	return page
}

// ExportEngine exports whole collections to files.
type ExportEngine struct {
	logger *log.Logger
}

// NewExportEngine creates an engine logging to logger, or to stderr when nil.
func NewExportEngine(logger *log.Logger) *ExportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ExportEngine{logger: shared.WithLogger(logger, "component", "export")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
