// Package query compiles a typed post filter into parameterized SQL,
// the way spec.md §4.6 describes. Storage is the only caller: it runs
// the compiled statement and the compiled count against its read
// handle and returns (rows, total_items).
package query

import "strings"

// Filter is the typed predicate set query_local_posts accepts.
// Pointer fields are optional; a nil pointer omits that predicate.
type Filter struct {
	UserID       *int64
	StartDate    *int64 // unix seconds, inclusive
	EndDate      *int64 // unix seconds, inclusive
	IsFavorited  bool
	SearchTerm   string
	ReverseOrder bool
}

// Pagination is 1-indexed; Page <= 0 is treated as page 1.
type Pagination struct {
	Page         int
	PostsPerPage int
}

// Compiled is a ready-to-run SQL statement plus its positional args.
type Compiled struct {
	SQL  string
	Args []any
}

// CompileSelect builds the SELECT returning one page of matching post
// ids, newest first unless Reverse is set, tie-broken by id
// descending within equal created_at (spec.md §4.6).
func CompileSelect(f Filter, p Pagination) Compiled {
	where, args := whereClause(f)
	order := "created_at DESC, id DESC"
	if f.ReverseOrder {
		order = "created_at ASC, id DESC"
	}

	page := p.Page
	if page <= 0 {
		page = 1
	}
	perPage := p.PostsPerPage
	if perPage <= 0 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	var b strings.Builder
	b.WriteString("SELECT posts.id FROM posts")
	if f.SearchTerm != "" {
		b.WriteString(" JOIN posts_fts ON posts_fts.rowid = posts.id")
	}
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	b.WriteString(order)
	b.WriteString(" LIMIT ? OFFSET ?")

	args = append(args, perPage, offset)
	return Compiled{SQL: b.String(), Args: args}
}

// CompileCount builds the COUNT(*) with the same predicates and no
// LIMIT, for the total_items half of the pagination contract.
func CompileCount(f Filter) Compiled {
	where, args := whereClause(f)
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM posts")
	if f.SearchTerm != "" {
		b.WriteString(" JOIN posts_fts ON posts_fts.rowid = posts.id")
	}
	b.WriteString(where)
	return Compiled{SQL: b.String(), Args: args}
}

func whereClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.UserID != nil {
		conds = append(conds, "posts.uid = ?")
		args = append(args, *f.UserID)
	}
	if f.StartDate != nil {
		conds = append(conds, "posts.created_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conds = append(conds, "posts.created_at <= ?")
		args = append(args, *f.EndDate)
	}
	if f.IsFavorited {
		conds = append(conds, "posts.favorited = 1")
	}
	if f.SearchTerm != "" {
		conds = append(conds, "posts_fts MATCH ?")
		args = append(args, f.SearchTerm)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
