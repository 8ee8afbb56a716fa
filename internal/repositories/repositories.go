package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// queryer is satisfied by both [*sql.DB] and [*sql.Tx].
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// orderBy builds an ORDER BY clause from sort, translating API field names through columns. Unknown fields
// are rejected. The primary key is always appended as a tiebreaker so paging is stable.
func orderBy(sort []models.Order, columns map[string]string, primaryKey string) (string, error) {
	terms := make([]string, 0, len(sort)+1)
	hasKey := false
	for _, o := range sort {
		col, ok := columns[o.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", shared.ErrInvalidSortField, o.Field)
		}
		if col == primaryKey {
			hasKey = true
		}

		dir := "ASC"
		if o.Descending() {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	if !hasKey {
		terms = append(terms, primaryKey+" ASC")
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// count returns the number of rows in table.
func count(ctx context.Context, q queryer, table string) (int, error) {
	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// exists reports whether table holds a row with id.
func exists(ctx context.Context, q queryer, table string, id int64) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return true, nil
}

// deleteByID removes the row with id from table. A row still referenced by another table is
// [shared.ErrConflict]; a missing row is [shared.ErrNotFound].
func deleteByID(ctx context.Context, q queryer, table string, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return fmt.Errorf("%w: %s %d is still referenced", shared.ErrConflict, table, id)
		}
		return fmt.Errorf("failed to delete %s: %w", table, err)
	}
	return expectRow(result, table, id)
}

// expectRow turns a write that touched no rows into [shared.ErrNotFound].
func expectRow(result sql.Result, table string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, table, id)
	}
	return nil
}

func notFound(err error, table string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, table, id)
	}
	return fmt.Errorf("failed to query %s: %w", table, err)
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}

func validate(m models.Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
