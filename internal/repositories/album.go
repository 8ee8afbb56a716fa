package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/mattn/go-sqlite3"
)

var albumColumns = map[string]string{
	"id":          "a.id",
	"title":       "a.title",
	"publishedAt": "a.published_at",
	"singer.id":   "a.singer_id",
	"songs.id":    "a.songs_id",
}

const albumSelect = `
	SELECT a.id, a.title, a.published_at, a.singer_id, s.name, a.songs_id, so.title, so.play_time
	FROM album a
	LEFT JOIN singer s ON s.id = a.singer_id
	LEFT JOIN song so ON so.id = a.songs_id
`

// AlbumRepository implements [models.Repository] for [models.Album].
//
// Albums reference a singer and a song by ID. Reads join both so the returned album carries the referenced
// records; writes only look at their IDs.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new [AlbumRepository] with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create inserts album and sets its ID
func (r *AlbumRepository) Create(ctx context.Context, album *models.Album) error {
	if err := validate(album); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO album (title, published_at, singer_id, songs_id) VALUES (?, ?, ?, ?)`,
		album.Title, album.PublishedAt.UTC(), album.SingerID(), album.SongsID(),
	)
	if err != nil {
		return albumWriteError("insert", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get album id: %w", err)
	}
	album.ID = id
	return nil
}

// Get retrieves an album by ID together with its singer and song
func (r *AlbumRepository) Get(ctx context.Context, id int64) (*models.Album, error) {
	album, err := scanAlbum(r.db.QueryRowContext(ctx, albumSelect+` WHERE a.id = ?`, id))
	if err != nil {
		return nil, notFound(err, "album", id)
	}
	return album, nil
}

// Update replaces the stored album with the same ID
func (r *AlbumRepository) Update(ctx context.Context, album *models.Album) error {
	if err := validate(album); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE album SET title = ?, published_at = ?, singer_id = ?, songs_id = ? WHERE id = ?`,
		album.Title, album.PublishedAt.UTC(), album.SingerID(), album.SongsID(), album.ID,
	)
	if err != nil {
		return albumWriteError("update", err)
	}
	return expectRow(result, "album", album.ID)
}

// Delete removes an album by ID
func (r *AlbumRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "album", id)
}

func (r *AlbumRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "album", id)
}

// List returns one page of albums and the total number of albums
func (r *AlbumRepository) List(ctx context.Context, req models.PageRequest) ([]models.Album, int, error) {
	order, err := orderBy(req.Sort, albumColumns, "a.id")
	if err != nil {
		return nil, 0, err
	}

	total, err := count(ctx, r.db, "album")
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, albumSelect+order+` LIMIT ? OFFSET ?`, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, *album)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return albums, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlbum(row scanner) (*models.Album, error) {
	var (
		album       models.Album
		publishedAt time.Time
		singerID    sql.NullInt64
		singerName  sql.NullString
		songsID     sql.NullInt64
		songTitle   sql.NullString
		playTime    sql.NullString
	)

	if err := row.Scan(&album.ID, &album.Title, &publishedAt, &singerID, &singerName, &songsID, &songTitle, &playTime); err != nil {
		return nil, err
	}

	album.PublishedAt = publishedAt.UTC()
	if singerID.Valid {
		album.Singer = &models.Singer{ID: singerID.Int64, Name: singerName.String}
	}
	if songsID.Valid {
		album.Songs = &models.Song{ID: songsID.Int64, Title: songTitle.String, PlayTime: playTime.String}
	}
	return &album, nil
}

func albumWriteError(op string, err error) error {
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return fmt.Errorf("%w: album references an unknown singer or song", shared.ErrValidation)
	}
	return fmt.Errorf("failed to %s album: %w", op, err)
}
