package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathFor_UsesBasenamePrefix(t *testing.T) {
	rel, err := PathFor("https://img.example/abc.jpg")
	if err != nil {
		t.Fatalf("PathFor: %v", err)
	}
	if rel != filepath.Join("ab", "abc.jpg") {
		t.Fatalf("expected ab/abc.jpg, got %s", rel)
	}
}

func TestPathFor_RejectsURLWithNoBasename(t *testing.T) {
	if _, err := PathFor("https://img.example/"); err == nil {
		t.Fatal("expected error for basename-less url")
	}
}

func TestStoreThenOpen_RoundTrips(t *testing.T) {
	repo := NewRepository(t.TempDir())
	rel, err := repo.Store("https://img.example/abc.jpg", []byte("hello"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	got, err := repo.Open(rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if _, err := os.Stat(repo.AbsPath(rel)); err != nil {
		t.Fatalf("expected file to exist on disk: %v", err)
	}
}

func TestStore_NoTempFileLeftBehindOnSuccess(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(dir)
	if _, err := repo.Store("https://img.example/abc.jpg", []byte("hello")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "ab"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "abc.jpg" {
		t.Fatalf("expected exactly abc.jpg, got %v", entries)
	}
}

func TestOpen_MissingFileReturnsNotFoundError(t *testing.T) {
	repo := NewRepository(t.TempDir())
	_, err := repo.Open(filepath.Join("ab", "missing.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var nf *NotFoundError
	if !isNotFoundError(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func isNotFoundError(err error, target **NotFoundError) bool {
	nf, ok := err.(*NotFoundError)
	if ok {
		*target = nf
		return true
	}
	return false
}

func TestDelete_MissingFileIsNotAnError(t *testing.T) {
	repo := NewRepository(t.TempDir())
	if err := repo.Delete(filepath.Join("ab", "missing.jpg")); err != nil {
		t.Fatalf("expected no error deleting missing file, got %v", err)
	}
}
