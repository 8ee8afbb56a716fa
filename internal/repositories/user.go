package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/mattn/go-sqlite3"
)

var userColumns = map[string]string{
	"id":        "id",
	"login":     "login",
	"createdAt": "created_at",
}

const userSelect = `SELECT id, login, password_hash, authorities, activated, created_at FROM users`

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets its ID. Logins are unique.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := validate(user); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (login, password_hash, authorities, activated, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.Login, user.PasswordHash, strings.Join(user.Authorities, ","), user.Activated, user.CreatedAt,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: login %q already exists", shared.ErrConflict, user.Login)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	user.ID = id
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// GetByLogin retrieves a user by login
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE login = ?`, login))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %q", shared.ErrNotFound, login)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// Update modifies an existing user. The creation time is never changed.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := validate(user); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET login = ?, password_hash = ?, authorities = ?, activated = ? WHERE id = ?`,
		user.Login, user.PasswordHash, strings.Join(user.Authorities, ","), user.Activated, user.ID,
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: login %q already exists", shared.ErrConflict, user.Login)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectRow(result, "user", user.ID)
}

// Delete removes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "users", id)
}

func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, r.db, "users", id)
}

// List returns one page of users and the total number of users
func (r *UserRepository) List(ctx context.Context, req models.PageRequest) ([]models.User, int, error) {
	order, err := orderBy(req.Sort, userColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	total, err := count(ctx, r.db, "users")
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, userSelect+order+` LIMIT ? OFFSET ?`, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return users, total, nil
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user        models.User
		authorities string
	)

	if err := row.Scan(&user.ID, &user.Login, &user.PasswordHash, &authorities, &user.Activated, &user.CreatedAt); err != nil {
		return nil, err
	}
	if authorities != "" {
		user.Authorities = strings.Split(authorities, ",")
	}
	return &user, nil
}
