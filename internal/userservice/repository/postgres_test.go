package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmarchuk/gatekeep/internal/common"
	"github.com/dmarchuk/gatekeep/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return &Postgres{db: db}, mock, db
}

var jane = &models.UserWithHash{
	User:         models.User{ID: "id-1", Name: "Jane Doe", Email: "jane@x.com"},
	PasswordHash: "$2a$10$hash",
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash\)`

	mock.ExpectExec(q).
		WithArgs(jane.ID, jane.Name, jane.Email, jane.PasswordHash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), jane); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := repo.Create(context.Background(), jane)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("Create error = %v, want ErrConflict", err)
	}
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), jane)
	if err == nil || errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*email\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`

	rows := sqlmock.NewRows([]string{"id", "name", "email"}).
		AddRow("id-1", "Jane Doe", "jane@x.com")
	mock.ExpectQuery(q).WithArgs("id-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Email != "jane@x.com" || got.Name != "Jane Doe" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPostgresGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,\s*email\s+FROM\s+users`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestPostgresGetByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*email,\s*password_hash\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1`

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash"}).
		AddRow("id-1", "Jane Doe", "jane@x.com", "$2a$10$hash")
	mock.ExpectQuery(q).WithArgs("jane@x.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "jane@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestPostgresUpdate_AppliesPatchInTx(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash"}).
		AddRow("id-1", "Jane Doe", "jane@x.com", "$2a$10$hash")
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).WithArgs("id-1").WillReturnRows(rows)
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET`).
		WithArgs("Jane Smith", "jane@x.com", "$2a$10$hash", "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), Patch{ID: "id-1", Name: "Jane Smith"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Name != "Jane Smith" || got.Email != "jane@x.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresUpdate_EmailConflictRollsBack(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash"}).
		AddRow("id-1", "Jane Doe", "jane@x.com", "$2a$10$hash")
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).WithArgs("id-1").WillReturnRows(rows)
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), Patch{ID: "id-1", Email: "taken@x.com"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("Update error = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+users`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestPostgresList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+count\(\*\)\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	rows := sqlmock.NewRows([]string{"id", "name", "email"}).
		AddRow("id-1", "Jane Doe", "jane@x.com").
		AddRow("id-2", "John Doe", "john@x.com")
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,\s*email\s+FROM\s+users\s+ORDER\s+BY`).
		WithArgs(2, 0).
		WillReturnRows(rows)

	users, total, err := repo.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if total != 12 || len(users) != 2 {
		t.Fatalf("total = %d, len = %d, want 12 and 2", total, len(users))
	}
}
