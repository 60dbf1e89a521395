package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/weiback-dev/weiback/internal/model"
)

func TestUpsertUser_RunsAgainstWriteHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(int64(7), "alice", "", "", "", false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpsertUser(context.Background(), model.User{ID: 7, ScreenName: "alice"}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGetUsernameByID_ReturnsScreenName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	rows := sqlmock.NewRows([]string{"screen_name"}).AddRow("alice")
	mock.ExpectQuery(`SELECT screen_name FROM users WHERE id = \?`).WithArgs(int64(7)).WillReturnRows(rows)

	name, err := s.GetUsernameByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetUsernameByID: %v", err)
	}
	if name != "alice" {
		t.Fatalf("expected alice, got %q", name)
	}
}

func TestQueryUsersWithPrefix_OrdersByScreenName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	rows := sqlmock.NewRows([]string{"id", "screen_name", "avatar_large", "profile_image_url", "domain", "following", "follow_me"}).
		AddRow(int64(1), "al", "", "", "", false, false).
		AddRow(int64(2), "alice", "", "", "", false, false)
	mock.ExpectQuery(`WHERE screen_name LIKE`).WithArgs("al").WillReturnRows(rows)

	users, err := s.QueryUsersWithPrefix(context.Background(), "al")
	if err != nil {
		t.Fatalf("QueryUsersWithPrefix: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}
