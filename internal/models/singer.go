package models

import "strconv"

// Singer performs on albums.
type Singer struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name" validate:"required,max=255"`
}

func (s Singer) Identity() int64 { return s.ID }
func (s Singer) Validate() error { return ValidateStruct(s) }

func (Singer) Columns() []Column {
	return []Column{{Title: "ID", Field: "id"}, {Title: "Name", Field: "name"}}
}

func (s Singer) Record() []string {
	return []string{strconv.FormatInt(s.ID, 10), s.Name}
}
