package storage

import (
	"context"
	"fmt"

	"github.com/weiback-dev/weiback/internal/model"
)

// UpsertUser inserts u or overwrites an existing row with the same id.
// Users carry no history worth preserving field-by-field (spec.md
// §4.1): the newest observation always wins.
func (s *Store) UpsertUser(ctx context.Context, u model.User) error {
	_, err := s.write.ExecContext(ctx, `
INSERT INTO users (id, screen_name, avatar_large, profile_image_url, domain, following, follow_me)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	screen_name = excluded.screen_name,
	avatar_large = excluded.avatar_large,
	profile_image_url = excluded.profile_image_url,
	domain = excluded.domain,
	following = excluded.following,
	follow_me = excluded.follow_me
`, u.ID, u.ScreenName, u.AvatarLarge, u.ProfileImageURL, u.Domain, u.Following, u.FollowMe)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// GetUsernameByID returns the screen name stored for uid, or
// sql.ErrNoRows if the user was never ingested.
func (s *Store) GetUsernameByID(ctx context.Context, uid int64) (string, error) {
	var name string
	err := s.read.QueryRowContext(ctx, `SELECT screen_name FROM users WHERE id = ?`, uid).Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}

// GetUser returns the full row stored for uid, or sql.ErrNoRows if the
// user was never ingested.
func (s *Store) GetUser(ctx context.Context, uid int64) (model.User, error) {
	var u model.User
	err := s.read.QueryRowContext(ctx, `
SELECT id, screen_name, avatar_large, profile_image_url, domain, following, follow_me
FROM users WHERE id = ?
`, uid).Scan(&u.ID, &u.ScreenName, &u.AvatarLarge, &u.ProfileImageURL, &u.Domain, &u.Following, &u.FollowMe)
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// QueryUsersWithPrefix returns every locally known user whose screen
// name starts with prefix, ordered by screen name.
func (s *Store) QueryUsersWithPrefix(ctx context.Context, prefix string) ([]model.User, error) {
	rows, err := s.read.QueryContext(ctx, `
SELECT id, screen_name, avatar_large, profile_image_url, domain, following, follow_me
FROM users
WHERE screen_name LIKE ? || '%'
ORDER BY screen_name
`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query users with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.ScreenName, &u.AvatarLarge, &u.ProfileImageURL, &u.Domain, &u.Following, &u.FollowMe); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
