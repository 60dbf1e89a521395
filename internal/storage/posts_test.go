package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/weiback-dev/weiback/internal/model"
)

func TestUpsertPost_RunsUpsertAgainstWriteHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectExec(`INSERT INTO posts`).
		WithArgs(int64(100), "", int64(7), "hello", int64(0), false, nil, "[]", "", "", "", "", "", 0, 0, 0, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = s.UpsertPost(context.Background(), model.Post{ID: 100, UID: 7, Text: "hello"})
	if err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestMarkFavorited_UpdatesPostAndFavoritedPostsInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE posts SET favorited = 1`).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO favorited_posts`).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.MarkFavorited(context.Background(), 100); err != nil {
		t.Fatalf("MarkFavorited: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestMarkFavorited_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE posts SET favorited = 1`).
		WithArgs(int64(100)).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := s.MarkFavorited(context.Background(), 100); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeletePostCascade_DeletesChildRowsThenPost(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pictures WHERE post_id = \?`).WithArgs(int64(100)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM videos WHERE post_id = \?`).WithArgs(int64(100)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM favorited_posts WHERE id = \?`).WithArgs(int64(100)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE posts SET retweeted_id = NULL WHERE retweeted_id = \?`).WithArgs(int64(100)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \?`).WithArgs(int64(100)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeletePostCascade(context.Background(), 100); err != nil {
		t.Fatalf("DeletePostCascade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

// TestDeletePostCascade_ClearsRetweetedIDOnChildrenOfDeletedParent covers
// deleting a post that another post retweets (50, retweeted by 101):
// the child survives with retweeted_id cleared rather than the delete
// failing against the posts.retweeted_id foreign key.
func TestDeletePostCascade_ClearsRetweetedIDOnChildrenOfDeletedParent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM pictures WHERE post_id = \?`).WithArgs(int64(50)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM videos WHERE post_id = \?`).WithArgs(int64(50)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM favorited_posts WHERE id = \?`).WithArgs(int64(50)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE posts SET retweeted_id = NULL WHERE retweeted_id = \?`).WithArgs(int64(50)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM posts WHERE id = \?`).WithArgs(int64(50)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeletePostCascade(context.Background(), 50); err != nil {
		t.Fatalf("DeletePostCascade: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestListFavoritedNotUnfavorited_ScansEveryRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := &Store{write: db, read: db}

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(100)).AddRow(int64(101))
	mock.ExpectQuery(`SELECT id FROM favorited_posts WHERE unfavorited = 0`).WillReturnRows(rows)

	ids, err := s.ListFavoritedNotUnfavorited(context.Background())
	if err != nil {
		t.Fatalf("ListFavoritedNotUnfavorited: %v", err)
	}
	if len(ids) != 2 || ids[0] != 100 || ids[1] != 101 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}
