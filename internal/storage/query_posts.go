package storage

import (
	"context"
	"fmt"

	"github.com/weiback-dev/weiback/internal/query"
)

// QueryPosts runs a compiled query.Filter/Pagination against the read
// handle and returns the matching post ids alongside the unpaginated
// total, per spec.md §4.6's `(rows, total_items)` contract.
func (s *Store) QueryPosts(ctx context.Context, f query.Filter, p query.Pagination) ([]int64, int, error) {
	selectQ := query.CompileSelect(f, p)
	rows, err := s.read.QueryContext(ctx, selectQ.SQL, selectQ.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query posts: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, err
	}
	rows.Close()

	countQ := query.CompileCount(f)
	var total int
	if err := s.read.QueryRowContext(ctx, countQ.SQL, countQ.Args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	return ids, total, nil
}
