package devices

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestRegister_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO devices .* ON CONFLICT \(user_id, reg_id\) DO NOTHING`).
		WithArgs("u1", "reg-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Register(context.Background(), "u1", "reg-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegister_DuplicateIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO devices`).
		WithArgs("u1", "reg-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Register(context.Background(), "u1", "reg-a"); err != nil {
		t.Fatalf("duplicate registration must not error: %v", err)
	}
}

func TestList_ReturnsRegIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT reg_id FROM devices\s+WHERE user_id = \$1\s+ORDER BY reg_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"reg_id"}).
			AddRow("reg-a").
			AddRow("reg-b"))

	ids, err := repo.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "reg-a" || ids[1] != "reg-b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestList_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT reg_id FROM devices`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"reg_id"}))

	ids, err := repo.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestReplace_SwapsIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO devices .* SELECT user_id, \$3 FROM devices\s+WHERE user_id = \$1 AND reg_id = \$2`).
		WithArgs("u1", "stale", "canonical").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM devices\s+WHERE user_id = \$1 AND reg_id = \$2`).
		WithArgs("u1", "stale").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Replace(context.Background(), "u1", "stale", "canonical"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_AbsentOldIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO devices`).
		WithArgs("u1", "gone", "canonical").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM devices`).
		WithArgs("u1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Replace(context.Background(), "u1", "gone", "canonical"); err != nil {
		t.Fatalf("absent old id must not error: %v", err)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM devices\s+WHERE user_id = \$1 AND reg_id = \$2`).
		WithArgs("u1", "reg-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Remove(context.Background(), "u1", "reg-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemove_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM devices`).
		WithArgs("u1", "reg-a").
		WillReturnError(errors.New("db is down"))

	err := repo.Remove(context.Background(), "u1", "reg-a")
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
