// Package cleanup implements WeiBack's two maintenance jobs:
// deduplicating picture resolution variants and pruning stale avatar
// files. Structurally the closest analogue in the teacher is
// NotificationCleanupWorker — a one-shot sweep that deletes rows past
// a policy boundary and logs a summary count — adapted here from a
// time-based retention policy to a resolution/identity-based one.
package cleanup

import (
	"context"
	"fmt"
	"log"

	"github.com/weiback-dev/weiback/internal/model"
)

// Policy selects which resolution variant CleanupPictures keeps.
type Policy int

const (
	Highest Policy = iota
	Lowest
)

// Store is the slice of *storage.Store cleanup needs.
type Store interface {
	QueryResolutionVariants(ctx context.Context, pictureID string) ([]model.Picture, error)
	QueryAvatarPictures(ctx context.Context) ([]model.Picture, error)
	QueryUsersWithPrefix(ctx context.Context, prefix string) ([]model.User, error)
	DeletePictureRow(ctx context.Context, url string) error
}

// MediaDeleter removes a stored file by its repository-relative path.
type MediaDeleter interface {
	InvalidateCached(cacheKey, relPath string) error
}

// Reporter buffers non-fatal per-file errors, same contract ingestion
// uses.
type Reporter interface {
	SubTaskError(e model.SubTaskError)
}

type Cleaner struct {
	Store  Store
	Media  MediaDeleter
	Logger *log.Logger
}

func New(store Store, media MediaDeleter, logger *log.Logger) *Cleaner {
	if logger == nil {
		logger = log.Default()
	}
	return &Cleaner{Store: store, Media: media, Logger: logger}
}

// CleanupPictures keeps exactly one row for each picture id in
// pictureIDs — the variant with the extremal definition under policy —
// and removes the rest along with their files (spec.md §4.7). Picture
// ids not in pictureIDs are not examined.
func (c *Cleaner) CleanupPictures(ctx context.Context, pictureIDs []string, policy Policy, rep Reporter) (kept, removed int, err error) {
	for _, id := range pictureIDs {
		variants, err := c.Store.QueryResolutionVariants(ctx, id)
		if err != nil {
			return kept, removed, fmt.Errorf("query variants for %s: %w", id, err)
		}
		if len(variants) <= 1 {
			if len(variants) == 1 {
				kept++
			}
			continue
		}

		keepIdx := extremalIndex(variants, policy)
		kept++
		for i, v := range variants {
			if i == keepIdx {
				continue
			}
			if v.Path != nil {
				if err := c.Media.InvalidateCached(v.PictureID, *v.Path); err != nil {
					rep.SubTaskError(model.SubTaskError{Kind: model.CleanupFile, Ref: *v.Path, Message: err.Error()})
				}
			}
			if err := c.Store.DeletePictureRow(ctx, v.URL); err != nil {
				return kept, removed, fmt.Errorf("delete picture row %s: %w", v.URL, err)
			}
			removed++
		}
	}
	c.Logger.Printf("[Cleanup] pictures kept=%d removed=%d", kept, removed)
	return kept, removed, nil
}

func extremalIndex(variants []model.Picture, policy Policy) int {
	best := 0
	for i, v := range variants {
		switch policy {
		case Highest:
			if v.Definition > variants[best].Definition {
				best = i
			}
		case Lowest:
			if v.Definition < variants[best].Definition {
				best = i
			}
		}
	}
	return best
}

// CleanupAvatars deletes every Picture row attached to a user except
// the one matching the user's current avatar_large URL (spec.md
// §4.7).
func (c *Cleaner) CleanupAvatars(ctx context.Context, rep Reporter) (kept, removed int, err error) {
	pics, err := c.Store.QueryAvatarPictures(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("query avatar pictures: %w", err)
	}

	byUser := make(map[int64][]model.Picture)
	for _, p := range pics {
		if p.UserID == nil {
			continue
		}
		byUser[*p.UserID] = append(byUser[*p.UserID], p)
	}

	currentAvatar := make(map[int64]string)
	users, err := c.Store.QueryUsersWithPrefix(ctx, "")
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		currentAvatar[u.ID] = u.AvatarLarge
	}

	for uid, group := range byUser {
		cur := currentAvatar[uid]
		for _, p := range group {
			if p.URL == cur {
				kept++
				continue
			}
			if p.Path != nil {
				if err := c.Media.InvalidateCached(p.PictureID, *p.Path); err != nil {
					rep.SubTaskError(model.SubTaskError{Kind: model.CleanupFile, Ref: *p.Path, Message: err.Error()})
				}
			}
			if err := c.Store.DeletePictureRow(ctx, p.URL); err != nil {
				return kept, removed, fmt.Errorf("delete avatar row %s: %w", p.URL, err)
			}
			removed++
		}
	}
	c.Logger.Printf("[Cleanup] avatars kept=%d removed=%d", kept, removed)
	return kept, removed, nil
}
