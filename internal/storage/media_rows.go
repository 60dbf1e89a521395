package storage

import (
	"context"
	"fmt"

	"github.com/weiback-dev/weiback/internal/model"
)

// InsertPictureIfAbsent records one resolution variant of a picture.
// A second ingestion run observing the same URL is a no-op: the
// UNIQUE violation on url is swallowed, matching spec.md §4.1's
// "already present" contract for media rows.
func (s *Store) InsertPictureIfAbsent(ctx context.Context, pic model.Picture) error {
	_, err := s.write.ExecContext(ctx, `
INSERT INTO pictures (url, picture_id, definition, path, post_id, user_id)
VALUES (?, ?, ?, ?, ?, ?)
`, pic.URL, pic.PictureID, int(pic.Definition), pic.Path, pic.PostID, pic.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert picture %s: %w", pic.URL, err)
	}
	return nil
}

// SetPicturePath records where a picture's bytes landed on disk after
// a successful download.
func (s *Store) SetPicturePath(ctx context.Context, url, path string) error {
	res, err := s.write.ExecContext(ctx, `UPDATE pictures SET path = ? WHERE url = ?`, path, url)
	if err != nil {
		return fmt.Errorf("set picture path %s: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set picture path %s: %w", url, err)
	}
	if n == 0 {
		return fmt.Errorf("set picture path %s: no such picture", url)
	}
	return nil
}

// InsertVideoIfAbsent records a post's attached video. Like pictures,
// a duplicate URL is treated as already-present, not an error.
func (s *Store) InsertVideoIfAbsent(ctx context.Context, v model.Video) error {
	_, err := s.write.ExecContext(ctx, `
INSERT INTO videos (url, path, post_id) VALUES (?, ?, ?)
`, v.URL, v.Path, v.PostID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert video %s: %w", v.URL, err)
	}
	return nil
}

// SetVideoPath records where a video's bytes landed on disk.
func (s *Store) SetVideoPath(ctx context.Context, url, path string) error {
	res, err := s.write.ExecContext(ctx, `UPDATE videos SET path = ? WHERE url = ?`, path, url)
	if err != nil {
		return fmt.Errorf("set video path %s: %w", url, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set video path %s: %w", url, err)
	}
	if n == 0 {
		return fmt.Errorf("set video path %s: no such video", url)
	}
	return nil
}

// QueryPictureIDsByPost returns every distinct picture_id referenced
// by a post, across all its resolution variants.
func (s *Store) QueryPictureIDsByPost(ctx context.Context, postID int64) ([]string, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT DISTINCT picture_id FROM pictures WHERE post_id = ? AND picture_id != ''
`, postID)
	if err != nil {
		return nil, fmt.Errorf("query picture ids for post %d: %w", postID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan picture id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// QueryResolutionVariants returns every stored variant of one logical
// picture id, ordered from lowest to highest resolution — so callers
// asking for "best available" can walk from the tail.
func (s *Store) QueryResolutionVariants(ctx context.Context, pictureID string) ([]model.Picture, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT url, picture_id, definition, path, post_id, user_id
FROM pictures
WHERE picture_id = ?
ORDER BY definition ASC
`, pictureID)
	if err != nil {
		return nil, fmt.Errorf("query resolution variants for %s: %w", pictureID, err)
	}
	defer rows.Close()

	var out []model.Picture
	for rows.Next() {
		var pic model.Picture
		var def int
		if err := rows.Scan(&pic.URL, &pic.PictureID, &def, &pic.Path, &pic.PostID, &pic.UserID); err != nil {
			return nil, fmt.Errorf("scan picture variant: %w", err)
		}
		pic.Definition = model.PictureDefinition(def)
		out = append(out, pic)
	}
	return out, rows.Err()
}

// QueryAvatarPictures returns every picture row attached to a user
// rather than a post — Cleanup's avatar pass target set (spec.md
// §4.7).
func (s *Store) QueryAvatarPictures(ctx context.Context) ([]model.Picture, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT url, picture_id, definition, path, post_id, user_id
FROM pictures
WHERE user_id IS NOT NULL
`)
	if err != nil {
		return nil, fmt.Errorf("query avatar pictures: %w", err)
	}
	defer rows.Close()

	var out []model.Picture
	for rows.Next() {
		var pic model.Picture
		var def int
		if err := rows.Scan(&pic.URL, &pic.PictureID, &def, &pic.Path, &pic.PostID, &pic.UserID); err != nil {
			return nil, fmt.Errorf("scan avatar picture: %w", err)
		}
		pic.Definition = model.PictureDefinition(def)
		out = append(out, pic)
	}
	return out, rows.Err()
}

// QueryVideosByPost returns every video attached to a post.
func (s *Store) QueryVideosByPost(ctx context.Context, postID int64) ([]model.Video, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT url, path, post_id FROM videos WHERE post_id = ?
`, postID)
	if err != nil {
		return nil, fmt.Errorf("query videos for post %d: %w", postID, err)
	}
	defer rows.Close()

	var out []model.Video
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.URL, &v.Path, &v.PostID); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeletePictureRow removes one picture variant's row, leaving the
// sibling variants of the same picture_id intact.
func (s *Store) DeletePictureRow(ctx context.Context, url string) error {
	if _, err := s.write.ExecContext(ctx, `DELETE FROM pictures WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete picture %s: %w", url, err)
	}
	return nil
}
