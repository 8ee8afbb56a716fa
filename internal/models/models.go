// package models defines the data model for the music catalogue
package models

import (
	"context"
)

// Model defines the base interface for all persistent catalogue models.
// Implementations include Album, Singer and Song.
type Model interface {
	Identity() int64 // Identity returns the numeric identifier, 0 when not yet persisted
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(ctx context.Context, model *T) error                  // Create inserts a new model and assigns its ID
	Get(ctx context.Context, id int64) (*T, error)               // Get retrieves a model by its ID
	Update(ctx context.Context, model *T) error                  // Update replaces an existing model
	Delete(ctx context.Context, id int64) error                  // Delete removes a model by its ID
	Exists(ctx context.Context, id int64) (bool, error)          // Exists reports whether a model with the ID is stored
	List(ctx context.Context, req PageRequest) ([]T, int, error) // List returns one page of models and the total count
}

// Column describes one displayable attribute of a model and the sort field that orders by it.
type Column struct {
	Title string
	Field string
}

// Tabular is implemented by models that render as table rows.
type Tabular interface {
	Columns() []Column
	Record() []string
}

// Header returns the column titles of t.
func Header(t Tabular) []string {
	cols := t.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Title
	}
	return header
}

// SortFields returns the sortable field names of t, in column order.
func SortFields(t Tabular) []string {
	cols := t.Columns()
	fields := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.Field != "" {
			fields = append(fields, c.Field)
		}
	}
	return fields
}
