package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
)

var songColumns = map[string]string{
	"id":       "id",
	"title":    "title",
	"playTime": "play_time",
}

// SongRepository implements [models.Repository] for [models.Song].
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new [SongRepository] with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts song and sets its ID
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := validate(song); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO song (title, play_time) VALUES (?, ?)`, song.Title, song.PlayTime)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get song id: %w", err)
	}
	song.ID = id
	return nil
}

// Get retrieves a song by ID
func (r *SongRepository) Get(ctx context.Context, id int64) (*models.Song, error) {
	var song models.Song
	err := r.db.QueryRowContext(ctx, `SELECT id, title, play_time FROM song WHERE id = ?`, id).
		Scan(&song.ID, &song.Title, &song.PlayTime)
	if err != nil {
		return nil, notFound(err, "song", id)
	}
	return &song, nil
}

// Update replaces the stored song with the same ID
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := validate(song); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `UPDATE song SET title = ?, play_time = ? WHERE id = ?`, song.Title, song.PlayTime, song.ID)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return expectRow(result, "song", song.ID)
}

// Delete removes a song by ID. Songs still referenced by an album can't be deleted.
func (r *SongRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "song", id)
}

func (r *SongRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "song", id)
}

// List returns one page of songs and the total number of songs
func (r *SongRepository) List(ctx context.Context, req models.PageRequest) ([]models.Song, int, error) {
	order, err := orderBy(req.Sort, songColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	total, err := count(ctx, r.db, "song")
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, title, play_time FROM song`+order+` LIMIT ? OFFSET ?`, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.Title, &s.PlayTime); err != nil {
			return nil, 0, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, total, nil
}
