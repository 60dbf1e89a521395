package query

import (
	"strings"
	"testing"
)

func TestCompileSelect_NoFilters_DefaultOrderAndPaging(t *testing.T) {
	c := CompileSelect(Filter{}, Pagination{Page: 1, PostsPerPage: 10})
	if !strings.Contains(c.SQL, "ORDER BY created_at DESC, id DESC") {
		t.Fatalf("expected default tie-break order, got %q", c.SQL)
	}
	if !strings.Contains(c.SQL, "LIMIT ? OFFSET ?") {
		t.Fatalf("expected limit/offset, got %q", c.SQL)
	}
	if len(c.Args) != 2 || c.Args[0] != 10 || c.Args[1] != 0 {
		t.Fatalf("expected args [10 0], got %v", c.Args)
	}
}

func TestCompileSelect_SearchTermJoinsFTS(t *testing.T) {
	c := CompileSelect(Filter{SearchTerm: "北京"}, Pagination{Page: 1, PostsPerPage: 10})
	if !strings.Contains(c.SQL, "JOIN posts_fts ON posts_fts.rowid = posts.id") {
		t.Fatalf("expected fts join, got %q", c.SQL)
	}
	if !strings.Contains(c.SQL, "posts_fts MATCH ?") {
		t.Fatalf("expected match predicate, got %q", c.SQL)
	}
	found := false
	for _, a := range c.Args {
		if a == "北京" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected search term in args, got %v", c.Args)
	}
}

func TestCompileSelect_Page2OffsetsByPageSize(t *testing.T) {
	c := CompileSelect(Filter{}, Pagination{Page: 2, PostsPerPage: 10})
	if c.Args[len(c.Args)-1] != 10 {
		t.Fatalf("expected offset=10 for page 2, got %v", c.Args)
	}
}

func TestCompileSelect_ReverseOrderFlipsCreatedAt(t *testing.T) {
	c := CompileSelect(Filter{ReverseOrder: true}, Pagination{Page: 1, PostsPerPage: 10})
	if !strings.Contains(c.SQL, "ORDER BY created_at ASC, id DESC") {
		t.Fatalf("expected ascending created_at with id DESC tie-break, got %q", c.SQL)
	}
}

func TestCompileCount_SamePredicatesNoLimit(t *testing.T) {
	uid := int64(7)
	c := CompileCount(Filter{UserID: &uid, IsFavorited: true})
	if strings.Contains(c.SQL, "LIMIT") {
		t.Fatalf("count query must not paginate, got %q", c.SQL)
	}
	if !strings.Contains(c.SQL, "posts.uid = ?") || !strings.Contains(c.SQL, "posts.favorited = 1") {
		t.Fatalf("expected both predicates, got %q", c.SQL)
	}
	if len(c.Args) != 1 || c.Args[0] != int64(7) {
		t.Fatalf("expected args [7], got %v", c.Args)
	}
}
