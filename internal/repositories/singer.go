package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
)

var singerColumns = map[string]string{
	"id":   "id",
	"name": "name",
}

// SingerRepository implements [models.Repository] for [models.Singer].
type SingerRepository struct {
	db *sql.DB
}

// NewSingerRepository creates a new [SingerRepository] with the given database connection
func NewSingerRepository(db *sql.DB) *SingerRepository {
	return &SingerRepository{db: db}
}

// Create inserts singer and sets its ID
func (r *SingerRepository) Create(ctx context.Context, singer *models.Singer) error {
	if err := validate(singer); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO singer (name) VALUES (?)`, singer.Name)
	if err != nil {
		return fmt.Errorf("failed to insert singer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get singer id: %w", err)
	}
	singer.ID = id
	return nil
}

// Get retrieves a singer by ID
func (r *SingerRepository) Get(ctx context.Context, id int64) (*models.Singer, error) {
	var singer models.Singer
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM singer WHERE id = ?`, id).Scan(&singer.ID, &singer.Name)
	if err != nil {
		return nil, notFound(err, "singer", id)
	}
	return &singer, nil
}

// Update replaces the stored singer with the same ID
func (r *SingerRepository) Update(ctx context.Context, singer *models.Singer) error {
	if err := validate(singer); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `UPDATE singer SET name = ? WHERE id = ?`, singer.Name, singer.ID)
	if err != nil {
		return fmt.Errorf("failed to update singer: %w", err)
	}
	return expectRow(result, "singer", singer.ID)
}

// Delete removes a singer by ID. Singers still referenced by an album can't be deleted.
func (r *SingerRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "singer", id)
}

func (r *SingerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "singer", id)
}

// List returns one page of singers and the total number of singers
func (r *SingerRepository) List(ctx context.Context, req models.PageRequest) ([]models.Singer, int, error) {
	order, err := orderBy(req.Sort, singerColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	total, err := count(ctx, r.db, "singer")
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM singer`+order+` LIMIT ? OFFSET ?`, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query singers: %w", err)
	}
	defer rows.Close()

	singers := []models.Singer{}
	for rows.Next() {
		var s models.Singer
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, 0, fmt.Errorf("failed to scan singer: %w", err)
		}
		singers = append(singers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return singers, total, nil
}
