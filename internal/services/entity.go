package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/listing"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const totalCountHeader = "X-Total-Count"

var _ listing.Collection[models.Album] = (*EntityService[models.Album])(nil)

// EntityService is the REST client for one entity collection, mounted at /api/<resource>.
type EntityService[E models.Model] struct {
	api      *APIService
	resource string
}

// NewEntityService creates a client for the collection at /api/resource.
func NewEntityService[E models.Model](api *APIService, resource string) *EntityService[E] {
	return &EntityService[E]{api: api, resource: resource}
}

func NewAlbumService(api *APIService) *EntityService[models.Album] {
	return NewEntityService[models.Album](api, "albums")
}

func NewSingerService(api *APIService) *EntityService[models.Singer] {
	return NewEntityService[models.Singer](api, "singers")
}

func NewSongService(api *APIService) *EntityService[models.Song] {
	return NewEntityService[models.Song](api, "songs")
}

// Resource returns the plural collection name, e.g. "albums".
func (s *EntityService[E]) Resource() string { return s.resource }

func (s *EntityService[E]) path() string { return "/api/" + s.resource }

func (s *EntityService[E]) itemPath(id int64) string {
	return s.path() + "/" + strconv.FormatInt(id, 10)
}

// Retrieve fetches one page. q.Page is zero-based, as the API expects.
func (s *EntityService[E]) Retrieve(ctx context.Context, q listing.Query) (*listing.Page[E], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		params.Set("size", strconv.Itoa(q.Size))
	}
	for _, key := range q.Sort {
		params.Add("sort", key)
	}

	resp, err := s.api.Get(ctx, s.path(), params)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var items []E
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}

	total := len(items)
	if v := resp.Headers.Get(totalCountHeader); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s header %q", shared.ErrAPIRequest, totalCountHeader, v)
		}
		total = n
	}

	return &listing.Page[E]{
		Items: items,
		Total: total,
		Links: ParseLinks(resp.Headers.Get("Link")),
	}, nil
}

// Find fetches one entity by id.
func (s *EntityService[E]) Find(ctx context.Context, id int64) (*E, error) {
	resp, err := s.api.Get(ctx, s.itemPath(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeEntity[E](resp)
}

// Create stores a new entity and returns it with its assigned id.
func (s *EntityService[E]) Create(ctx context.Context, entity *E) (*E, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := s.api.Post(ctx, s.path(), data)
	if err != nil {
		return nil, err
	}
	return decodeEntity[E](resp)
}

// Update replaces the stored entity with the same id.
func (s *EntityService[E]) Update(ctx context.Context, entity *E) (*E, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := s.api.Put(ctx, s.itemPath((*entity).Identity()), data)
	if err != nil {
		return nil, err
	}
	return decodeEntity[E](resp)
}

// PartialUpdate applies a JSON merge patch to the entity with id. The patch must carry the same id.
func (s *EntityService[E]) PartialUpdate(ctx context.Context, id int64, patch []byte) (*E, error) {
	if !json.Valid(patch) {
		return nil, fmt.Errorf("%w: patch is not valid JSON", shared.ErrInvalidInput)
	}

	resp, err := s.api.Patch(ctx, s.itemPath(id), patch)
	if err != nil {
		return nil, err
	}
	return decodeEntity[E](resp)
}

// Delete removes the entity with id.
func (s *EntityService[E]) Delete(ctx context.Context, id int64) error {
	resp, err := s.api.Delete(ctx, s.itemPath(id))
	if err != nil {
		return err
	}
	return resp.Err()
}

func decodeEntity[E any](resp *APIResponse) (*E, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var entity E
	if err := resp.Decode(&entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// ParseLinks reads an RFC 5988 Link header of paging links into rel -> zero-based page index.
// Links without a parseable page parameter are skipped.
func ParseLinks(header string) map[string]int {
	links := make(map[string]int)
	if header == "" {
		return links
	}

	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}

		raw := strings.TrimSpace(section[0])
		if !strings.HasPrefix(raw, "<") || !strings.HasSuffix(raw, ">") {
			continue
		}
		u, err := url.Parse(raw[1 : len(raw)-1])
		if err != nil {
			continue
		}
		page, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil {
			continue
		}

		for _, attr := range section[1:] {
			name, value, ok := strings.Cut(strings.TrimSpace(attr), "=")
			if ok && name == "rel" {
				links[strings.Trim(value, `"`)] = page
			}
		}
	}
	return links
}
