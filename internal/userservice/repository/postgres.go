package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/dbx"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/dmarchuk/gatekeep/internal/userservice/repository/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// unique_violation, https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

// Postgres is the production Repository backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens the database and brings the schema up to date.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (r *Postgres) Close() error {
	return r.db.Close()
}

func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *Postgres) Create(ctx context.Context, user *models.UserWithHash) error {
	query :=
		`INSERT INTO users (id, name, email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		if isPgUnique(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *Postgres) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *Postgres) GetByEmail(ctx context.Context, email string) (*models.UserWithHash, error) {
	query :=
		`SELECT id, name, email, password_hash FROM users
		 WHERE email = $1
		 `

	user := &models.UserWithHash{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

// Update applies the patch inside a transaction so the read-modify-write is
// atomic under concurrent updates to the same account.
func (r *Postgres) Update(ctx context.Context, patch Patch) (*models.User, error) {
	var out models.User

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query :=
			`SELECT id, name, email, password_hash FROM users
			 WHERE id = $1
			 FOR UPDATE
			 `

		cur := models.UserWithHash{}
		err := tx.QueryRowContext(ctx, query, patch.ID).Scan(&cur.ID, &cur.Name, &cur.Email, &cur.PasswordHash)
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
			`UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4`,
			cur.Name, cur.Email, cur.PasswordHash, cur.ID)
		if err != nil {
			if isPgUnique(err) {
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

func (r *Postgres) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

func (r *Postgres) List(ctx context.Context, limit, offset int) ([]models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error performing sql request: %w", err)
	}

	query :=
		`SELECT id, name, email FROM users
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
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
