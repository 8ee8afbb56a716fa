package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const maxBodyBytes = 1 << 20

// EntityHandler serves the REST resource for one entity type at /api/<resource>.
type EntityHandler[T models.Model] struct {
	repo     models.Repository[T]
	entity   string // singular, lowercase: "album"
	resource string // plural path segment: "albums"
	logger   *log.Logger
}

// NewEntityHandler creates a handler for repo. entity names the type in alerts and problems, resource is the
// path segment.
func NewEntityHandler[T models.Model](repo models.Repository[T], entity, resource string, logger *log.Logger) *EntityHandler[T] {
	return &EntityHandler[T]{
		repo:     repo,
		entity:   entity,
		resource: resource,
		logger:   logger.With("entity", entity),
	}
}

func (h *EntityHandler[T]) collection() string { return "/api/" + h.resource }
func (h *EntityHandler[T]) item() string       { return "/api/" + h.resource + "/{id}" }

func (h *EntityHandler[T]) Routes() []string {
	return []string{
		"GET " + h.collection(),
		"POST " + h.collection(),
		"GET " + h.item(),
		"PUT " + h.item(),
		"PATCH " + h.item(),
		"DELETE " + h.item(),
	}
}

func (h *EntityHandler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET " + h.collection():
		h.list(w, r)
	case "POST " + h.collection():
		h.create(w, r)
	case "GET " + h.item():
		h.get(w, r)
	case "PUT " + h.item():
		h.update(w, r)
	case "PATCH " + h.item():
		h.patch(w, r)
	case "DELETE " + h.item():
		h.delete(w, r)
	default:
		writeProblem(w, models.Problem{Status: http.StatusMethodNotAllowed})
	}
}

func (h *EntityHandler[T]) fail(w http.ResponseWriter, err error) {
	p := problemFor(h.entity, err)
	if p.Status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	} else {
		h.logger.Debug("request rejected", "status", p.Status, "error", err)
	}
	writeProblem(w, p)
}

func (h *EntityHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q, "page", 0)
	if err != nil {
		h.fail(w, err)
		return
	}
	size, err := intParam(q, "size", models.DefaultPageSize)
	if err != nil {
		h.fail(w, err)
		return
	}

	req, err := models.NewPageRequest(page, size, q["sort"])
	if err != nil {
		h.fail(w, err)
		return
	}

	items, total, err := h.repo.List(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	w.Header().Set("Link", paginationLinks(r.URL, req.Page, req.Size, total))
	writeJSON(w, http.StatusOK, items)
}

func (h *EntityHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	entity, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *EntityHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := decodeBody(r, &entity); err != nil {
		h.fail(w, err)
		return
	}
	if entity.Identity() != 0 {
		writeProblem(w, badRequest(h.entity, "idexists", fmt.Sprintf("A new %s cannot already have an ID", h.entity)))
		return
	}

	if err := h.repo.Create(r.Context(), &entity); err != nil {
		h.fail(w, err)
		return
	}

	created, err := h.repo.Get(r.Context(), entity.Identity())
	if err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Debug("created", "id", entity.Identity())
	w.Header().Set("Location", h.collection()+"/"+strconv.FormatInt(entity.Identity(), 10))
	alert(w, h.entity, "created", entity.Identity())
	writeJSON(w, http.StatusCreated, created)
}

func (h *EntityHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var entity T
	if err := decodeBody(r, &entity); err != nil {
		h.fail(w, err)
		return
	}
	if p, ok := h.checkID(r, id, entity.Identity()); !ok {
		writeProblem(w, p)
		return
	}

	if err := h.repo.Update(r.Context(), &entity); err != nil {
		h.fail(w, err)
		return
	}
	h.respondUpdated(w, r, id)
}

// patch applies a JSON merge patch. Fields absent from the patch, or set to null, keep their stored value.
func (h *EntityHandler[T]) patch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var fields map[string]json.RawMessage
	if err := decodeBody(r, &fields); err != nil {
		h.fail(w, err)
		return
	}

	var bodyID int64
	if raw, ok := fields["id"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &bodyID); err != nil {
			h.fail(w, fmt.Errorf("%w: id must be a number", shared.ErrInvalidInput))
			return
		}
	}
	if p, ok := h.checkID(r, id, bodyID); !ok {
		writeProblem(w, p)
		return
	}

	existing, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	for name, raw := range fields {
		if string(raw) == "null" {
			delete(fields, name)
		}
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := json.Unmarshal(merged, existing); err != nil {
		h.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	if err := h.repo.Update(r.Context(), existing); err != nil {
		h.fail(w, err)
		return
	}
	h.respondUpdated(w, r, id)
}

func (h *EntityHandler[T]) respondUpdated(w http.ResponseWriter, r *http.Request, id int64) {
	updated, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	alert(w, h.entity, "updated", id)
	writeJSON(w, http.StatusOK, updated)
}

func (h *EntityHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	h.logger.Debug("deleted", "id", id)
	alert(w, h.entity, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// checkID applies the update id rules: the body must carry an id, it must match the path, and the entity must
// exist.
func (h *EntityHandler[T]) checkID(r *http.Request, pathID, bodyID int64) (models.Problem, bool) {
	if bodyID == 0 {
		return badRequest(h.entity, "idnull", "Invalid id"), false
	}
	if bodyID != pathID {
		return badRequest(h.entity, "idinvalid", "Invalid ID"), false
	}

	ok, err := h.repo.Exists(r.Context(), pathID)
	if err != nil {
		return problemFor(h.entity, err), false
	}
	if !ok {
		return badRequest(h.entity, "idnotfound", "Entity not found"), false
	}
	return models.Problem{}, true
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidArgument, r.PathValue("id"))
	}
	return id, nil
}

func intParam(q url.Values, name string, fallback int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", shared.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || len(body) == 0 {
			return fmt.Errorf("%w: malformed JSON", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// paginationLinks builds the Link header for a page: next and prev when they exist, then last and first.
// Other query parameters, such as sort, are kept.
func paginationLinks(u *url.URL, page, size, total int) string {
	last := models.TotalPages(total, size) - 1

	link := func(p int, rel string) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(p))
		q.Set("size", strconv.Itoa(size))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, u.Path, q.Encode(), rel)
	}

	var links []string
	if page < last {
		links = append(links, link(page+1, "next"))
	}
	if page > 0 {
		links = append(links, link(page-1, "prev"))
	}
	links = append(links, link(last, "last"), link(0, "first"))
	return strings.Join(links, ",")
}
