package exporter

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/weiback-dev/weiback/internal/ingestion"
	"github.com/weiback-dev/weiback/internal/model"
)

type userView struct {
	ScreenName string
	AvatarPath string
}

type pictureView struct {
	ThumbPath string
	FullPath  string
}

type videoView struct {
	Path string
}

type postView struct {
	ID        int64
	Text      template.HTML
	CreatedAt string
	Owner     userView
	Pictures  []pictureView
	Videos    []videoView
	Retweet   *postView
}

// buildView assembles one post's render model, ensuring every
// referenced media file is present under mediaDir — fetching anything
// missing via e.Client and copying (or hardlinking) it alongside the
// HTML so the export is self-contained (spec.md §4.4).
func (e *Exporter) buildView(ctx context.Context, postID int64, mediaDir string, rep Reporter) (*postView, error) {
	p, err := e.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", postID, err)
	}
	return e.renderPost(ctx, p, mediaDir, rep)
}

func (e *Exporter) renderPost(ctx context.Context, p model.Post, mediaDir string, rep Reporter) (*postView, error) {
	owner, err := e.Store.GetUser(ctx, p.UID)
	if err != nil {
		owner = model.User{ScreenName: "unknown"}
	}

	ownerView := userView{ScreenName: owner.ScreenName}
	if owner.AvatarLarge != "" {
		if path, err := e.ensureMedia(ctx, e.PictureMedia, owner.AvatarLarge, mediaDir); err == nil {
			ownerView.AvatarPath = path
		}
	}

	v := &postView{
		ID:        p.ID,
		Text:      expandText(p.Text),
		CreatedAt: time.Unix(p.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"),
		Owner:     ownerView,
	}

	pictureIDs, err := e.Store.QueryPictureIDsByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list pictures for post %d: %w", p.ID, err)
	}
	for _, pid := range pictureIDs {
		variants, err := e.Store.QueryResolutionVariants(ctx, pid)
		if err != nil || len(variants) == 0 {
			continue
		}
		best := variants[len(variants)-1]
		fullPath, err := e.ensureMedia(ctx, e.PictureMedia, best.URL, mediaDir)
		if err != nil {
			rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: best.URL, Message: err.Error()})
			placeholder, perr := e.placeholderPath(best.URL, mediaDir, pid)
			if perr != nil {
				continue
			}
			v.Pictures = append(v.Pictures, pictureView{ThumbPath: placeholder, FullPath: placeholder})
			continue
		}
		// fullPath is relative to the bundle root, mediaDir's parent.
		thumbPath, err := e.ensureThumbnail(filepath.Join(filepath.Dir(mediaDir), fullPath), mediaDir, pid)
		if err != nil {
			thumbPath = fullPath
		}
		v.Pictures = append(v.Pictures, pictureView{ThumbPath: thumbPath, FullPath: fullPath})
	}

	videos, err := e.Store.QueryVideosByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list videos for post %d: %w", p.ID, err)
	}
	for _, vid := range videos {
		path, err := e.ensureMedia(ctx, e.VideoMedia, vid.URL, mediaDir)
		if err != nil {
			rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: vid.URL, Message: err.Error()})
			continue
		}
		v.Videos = append(v.Videos, videoView{Path: path})
	}

	if p.RetweetedID != nil {
		parent, err := e.Store.GetPost(ctx, *p.RetweetedID)
		if err == nil {
			rv, err := e.renderPost(ctx, parent, mediaDir, rep)
			if err == nil {
				v.Retweet = rv
			}
		}
	}

	return v, nil
}

// ensureMedia guarantees rawURL's bytes exist both in repo's
// content-addressed store and hardlinked/copied into mediaDir,
// fetching it on the spot if nothing was downloaded during ingestion.
func (e *Exporter) ensureMedia(ctx context.Context, repo MediaRepo, rawURL, mediaDir string) (string, error) {
	relPath, err := repo.PathFor(rawURL)
	if err != nil {
		return "", fmt.Errorf("path for %s: %w", rawURL, err)
	}
	abs := repo.AbsPath(relPath)

	if _, err := os.Stat(abs); err != nil {
		b, err := ingestion.FetchWithRetry(ctx, e.Client, rawURL)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		if _, err := repo.Store(rawURL, b); err != nil {
			return "", fmt.Errorf("store %s: %w", rawURL, err)
		}
	}
	return linkIntoBundle(abs, mediaDir)
}

// linkIntoBundle hardlinks src into mediaDir (falling back to a copy
// across filesystems) and returns the path relative to the bundle's
// media/ directory for use in generated <img>/<video> src attributes.
func linkIntoBundle(src, mediaDir string) (string, error) {
	name := filepath.Base(src)
	dst := filepath.Join(mediaDir, name)

	if _, err := os.Stat(dst); err == nil {
		return filepath.Join("media", name), nil
	}

	if err := os.Link(src, dst); err == nil {
		return filepath.Join("media", name), nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open %s for copy: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := out.ReadFrom(in); err != nil {
		return "", fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return filepath.Join("media", name), nil
}
