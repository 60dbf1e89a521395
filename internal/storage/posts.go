package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/weiback-dev/weiback/internal/model"
)

// UpsertPost inserts p or overwrites the row with the same id. Scalar
// fields are last-writer-wins; this is also the path RebackupPost uses
// for its retweet merge, per SPEC_FULL.md §4's Open Question decision
// — there's no separate merge code, an upsert already does the right
// thing because a re-fetch is just a newer observation of the same id.
func (s *Store) UpsertPost(ctx context.Context, p model.Post) error {
	ids := p.PicIDs
	if ids == nil {
		ids = []string{}
	}
	picIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal pic_ids for post %d: %w", p.ID, err)
	}
	_, err = s.write.ExecContext(ctx, `
INSERT INTO posts (
	id, mblogid, uid, text, created_at, favorited, retweeted_id,
	pic_ids, pic_infos, mix_media_info, url_struct, region_name, source,
	attitudes_count, comments_count, reposts_count, deleted
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	mblogid = excluded.mblogid,
	uid = excluded.uid,
	text = excluded.text,
	created_at = excluded.created_at,
	favorited = excluded.favorited,
	retweeted_id = excluded.retweeted_id,
	pic_ids = excluded.pic_ids,
	pic_infos = excluded.pic_infos,
	mix_media_info = excluded.mix_media_info,
	url_struct = excluded.url_struct,
	region_name = excluded.region_name,
	source = excluded.source,
	attitudes_count = excluded.attitudes_count,
	comments_count = excluded.comments_count,
	reposts_count = excluded.reposts_count,
	deleted = excluded.deleted
`, p.ID, p.Mblogid, p.UID, p.Text, p.CreatedAt, p.Favorited, p.RetweetedID,
		string(picIDs), p.PicInfos, p.MixMediaInfo, p.URLStruct, p.RegionName, p.Source,
		p.AttitudesCount, p.CommentsCount, p.RepostsCount, p.Deleted)
	if err != nil {
		return fmt.Errorf("upsert post %d: %w", p.ID, err)
	}
	return nil
}

// MarkFavorited records that id was seen in the favorites feed. It is
// idempotent: a post already marked favorited, or re-favorited after
// having been unfavorited, simply has the row (re)inserted/cleared.
func (s *Store) MarkFavorited(ctx context.Context, id int64) error {
	return withTx(ctx, s.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET favorited = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark post %d favorited: %w", id, err)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO favorited_posts (id, unfavorited) VALUES (?, 0)
ON CONFLICT(id) DO UPDATE SET unfavorited = 0
`, id)
		if err != nil {
			return fmt.Errorf("upsert favorited_posts %d: %w", id, err)
		}
		return nil
	})
}

// MarkUnfavorited flips a post to unfavorited without deleting it —
// WeiBack keeps everything it ever archived, per spec.md §4.8.
func (s *Store) MarkUnfavorited(ctx context.Context, id int64) error {
	return withTx(ctx, s.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET favorited = 0 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark post %d unfavorited: %w", id, err)
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO favorited_posts (id, unfavorited) VALUES (?, 1)
ON CONFLICT(id) DO UPDATE SET unfavorited = 1
`, id)
		if err != nil {
			return fmt.Errorf("upsert favorited_posts %d: %w", id, err)
		}
		return nil
	})
}

// ListFavoritedNotUnfavorited returns every post id that is currently
// recorded as favorited and not yet unfavorited — the Unfavorite job's
// work list (spec.md §4.8).
func (s *Store) ListFavoritedNotUnfavorited(ctx context.Context) ([]int64, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT id FROM favorited_posts WHERE unfavorited = 0
`)
	if err != nil {
		return nil, fmt.Errorf("list favorited posts: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan favorited post id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeletePostCascade removes a post and every picture/video row that
// references it, in one transaction. Files on disk are not removed,
// here or by core.Core.DeletePost; Cleanup works from picture rows, so
// it no longer sees those files once the rows are gone. Any post
// that retweets id survives the delete — only the retweet-child
// relationship is removed, by clearing its retweeted_id — per spec.md
// §3's lifecycle rules.
func (s *Store) DeletePostCascade(ctx context.Context, id int64) error {
	return withTx(ctx, s.write, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pictures WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete pictures for post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete videos for post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorited_posts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete favorited_posts for post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET retweeted_id = NULL WHERE retweeted_id = ?`, id); err != nil {
			return fmt.Errorf("clear retweeted_id referencing post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		return nil
	})
}

// GetPost returns one post by id.
func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	return s.scanPostRow(s.read.QueryRowContext(ctx, `
SELECT id, mblogid, uid, text, created_at, favorited, retweeted_id,
	pic_ids, pic_infos, mix_media_info, url_struct, region_name, source,
	attitudes_count, comments_count, reposts_count, deleted
FROM posts WHERE id = ?
`, id))
}

func (s *Store) scanPostRow(row *sql.Row) (model.Post, error) {
	var p model.Post
	var picIDs string
	if err := row.Scan(&p.ID, &p.Mblogid, &p.UID, &p.Text, &p.CreatedAt, &p.Favorited, &p.RetweetedID,
		&picIDs, &p.PicInfos, &p.MixMediaInfo, &p.URLStruct, &p.RegionName, &p.Source,
		&p.AttitudesCount, &p.CommentsCount, &p.RepostsCount, &p.Deleted); err != nil {
		return model.Post{}, err
	}
	if picIDs != "" {
		_ = json.Unmarshal([]byte(picIDs), &p.PicIDs)
	}
	return p, nil
}
