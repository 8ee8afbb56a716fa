package models

import (
	"strconv"
	"time"
)

// Album is a published record. Singer and Songs reference other entities by ID; when read back they carry
// the referenced record.
type Album struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title" validate:"required,max=255"`
	PublishedAt time.Time `json:"publishedAt" validate:"required"`
	Singer      *Singer   `json:"singer" validate:"-"`
	Songs       *Song     `json:"songs" validate:"-"`
}

func (a Album) Identity() int64 { return a.ID }
func (a Album) Validate() error { return ValidateStruct(a) }

// SingerID returns the referenced singer's ID or nil.
func (a Album) SingerID() *int64 {
	if a.Singer == nil || a.Singer.ID == 0 {
		return nil
	}
	return &a.Singer.ID
}

// SongsID returns the referenced song's ID or nil.
func (a Album) SongsID() *int64 {
	if a.Songs == nil || a.Songs.ID == 0 {
		return nil
	}
	return &a.Songs.ID
}

func (Album) Columns() []Column {
	return []Column{
		{Title: "ID", Field: "id"},
		{Title: "Title", Field: "title"},
		{Title: "Published At", Field: "publishedAt"},
		{Title: "Singer", Field: "singer.id"},
		{Title: "Songs", Field: "songs.id"},
	}
}

func (a Album) Record() []string {
	var singer, songs string
	if a.Singer != nil {
		singer = a.Singer.Name
		if singer == "" {
			singer = strconv.FormatInt(a.Singer.ID, 10)
		}
	}
	if a.Songs != nil {
		songs = a.Songs.Title
		if songs == "" {
			songs = strconv.FormatInt(a.Songs.ID, 10)
		}
	}
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Title,
		a.PublishedAt.UTC().Format(time.RFC3339),
		singer,
		songs,
	}
}
