package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

const (
	appName            = "jukeboxApp"
	problemBase        = "https://jukebox.local/problem"
	problemWithMessage = problemBase + "/problem-with-message"
	constraintProblem  = problemBase + "/constraint-violation"
	contentTypeProblem = "application/problem+json"
)

// writeJSON writes v as the JSON response body with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeProblem writes p as an application/problem+json body. The title and type default from the status.
func writeProblem(w http.ResponseWriter, p models.Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Type == "" {
		p.Type = problemWithMessage
	}
	if p.Message == "" {
		p.Message = "error.http." + strconv.Itoa(p.Status)
	}
	if p.ErrorKey != "" {
		w.Header().Set("X-"+appName+"-error", "error."+p.ErrorKey)
		w.Header().Set("X-"+appName+"-params", p.EntityName)
	}

	w.Header().Set("Content-Type", contentTypeProblem)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// badRequest is an entity-scoped 400, e.g. an id present on create.
func badRequest(entity, key, title string) models.Problem {
	return models.Problem{
		Status:     http.StatusBadRequest,
		Title:      title,
		EntityName: entity,
		ErrorKey:   key,
		Message:    "error." + key,
		Params:     entity,
	}
}

// problemFor maps a repository or request error to a problem document.
func problemFor(entity string, err error) models.Problem {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]models.FieldError, len(verr.Fields))
		for i, f := range verr.Fields {
			f.ObjectName = entity
			fields[i] = f
		}
		return models.Problem{
			Type:        constraintProblem,
			Status:      http.StatusBadRequest,
			Title:       "Method argument not valid",
			Message:     "error.validation",
			FieldErrors: fields,
		}
	case errors.Is(err, shared.ErrValidation):
		return models.Problem{Status: http.StatusBadRequest, Detail: err.Error(), Message: "error.validation"}
	case errors.Is(err, shared.ErrInvalidSortField):
		p := badRequest(entity, "sortinvalid", "Invalid sort")
		p.Detail = err.Error()
		return p
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
		return models.Problem{Status: http.StatusBadRequest, Detail: err.Error()}
	case errors.Is(err, shared.ErrNotFound):
		return models.Problem{Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, shared.ErrConflict):
		return models.Problem{
			Status:     http.StatusConflict,
			Title:      "Entity is referenced",
			Detail:     err.Error(),
			EntityName: entity,
			ErrorKey:   "referenced",
			Message:    "error.referenced",
		}
	default:
		return models.Problem{Status: http.StatusInternalServerError, Detail: "internal error"}
	}
}

// alert sets the headers the client turns into a notification.
func alert(w http.ResponseWriter, entity, action string, id int64) {
	w.Header().Set("X-"+appName+"-alert", appName+"."+entity+"."+action)
	w.Header().Set("X-"+appName+"-params", strconv.FormatInt(id, 10))
}
