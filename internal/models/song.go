package models

import "strconv"

// Song is a single track. PlayTime is free-form, e.g. "3:45".
type Song struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title" validate:"required,max=255"`
	PlayTime string `json:"playTime" validate:"required,max=32"`
}

func (s Song) Identity() int64 { return s.ID }
func (s Song) Validate() error { return ValidateStruct(s) }

func (Song) Columns() []Column {
	return []Column{
		{Title: "ID", Field: "id"},
		{Title: "Title", Field: "title"},
		{Title: "Play Time", Field: "playTime"},
	}
}

func (s Song) Record() []string {
	return []string{strconv.FormatInt(s.ID, 10), s.Title, s.PlayTime}
}
