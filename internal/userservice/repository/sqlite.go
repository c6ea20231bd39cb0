package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/dbx"
	"github.com/dmarchuk/gatekeep/internal/models"
	sqlite "modernc.org/sqlite"
)

// SQLITE_CONSTRAINT_UNIQUE extended result code.
const sqliteConstraintUnique = 2067

// SQLite is a single-file Repository for local development and tests. It
// keeps the same uniqueness semantics as the PostgreSQL backend.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database file and ensures the schema.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// SQLite allows one writer at a time; with a wider pool, contending
	// writers fail with SQLITE_BUSY instead of queueing up and reaching
	// the UNIQUE constraint.
	db.SetMaxOpenConns(1)

	schema :=
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("schema init error: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (r *SQLite) Close() error {
	return r.db.Close()
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqliteConstraintUnique
}

func (r *SQLite) Create(ctx context.Context, user *models.UserWithHash) error {
	query :=
		`INSERT INTO users (id, name, email, password_hash)
		 VALUES (?, ?, ?, ?)
		 `

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		if isSQLiteUnique(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *SQLite) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *SQLite) GetByEmail(ctx context.Context, email string) (*models.UserWithHash, error) {
	user := &models.UserWithHash{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *SQLite) Update(ctx context.Context, patch Patch) (*models.User, error) {
	var out models.User

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur := models.UserWithHash{}
		err := tx.QueryRowContext(ctx,
			`SELECT id, name, email, password_hash FROM users WHERE id = ?`, patch.ID).
			Scan(&cur.ID, &cur.Name, &cur.Email, &cur.PasswordHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		if patch.Name != "" {
			cur.Name = patch.Name
		}
		if patch.Email != "" {
			cur.Email = patch.Email
		}
		if patch.PasswordHash != "" {
			cur.PasswordHash = patch.PasswordHash
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, password_hash = ? WHERE id = ?`,
			cur.Name, cur.Email, cur.PasswordHash, cur.ID)
		if err != nil {
			if isSQLiteUnique(err) {
				return common.ErrConflict
			}
			return fmt.Errorf("error performing sql request: %w", err)
		}

		out = cur.User
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (r *SQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *SQLite) List(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error performing sql request: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email FROM users ORDER BY created_at, id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, 0, fmt.Errorf("error performing sql request: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error performing sql request: %w", err)
	}

	return users, total, nil
}
