// Package exporter renders stored posts into self-contained HTML
// bundles with co-located media (spec.md §4.4). Rendering uses
// html/template — the only templating approach anywhere in the
// corpus (other_examples' twitterweb and blogs post_service.go both
// render post-shaped data with html/template.Must(template.Parse...))
// — compiled once from an embedded bundle so the binary stays
// self-contained.
package exporter

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"

	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/query"
	"github.com/weiback-dev/weiback/internal/remote"
)

// Store is the slice of *storage.Store the Exporter needs.
type Store interface {
	QueryPosts(ctx context.Context, f query.Filter, p query.Pagination) ([]int64, int, error)
	GetPost(ctx context.Context, id int64) (model.Post, error)
	GetUser(ctx context.Context, uid int64) (model.User, error)
	QueryPictureIDsByPost(ctx context.Context, postID int64) ([]string, error)
	QueryResolutionVariants(ctx context.Context, pictureID string) ([]model.Picture, error)
	QueryVideosByPost(ctx context.Context, postID int64) ([]model.Video, error)
}

// MediaRepo is the read/write surface the Exporter needs from a
// media.CachedRepository — one instance for pictures, one for videos.
type MediaRepo interface {
	PathFor(rawURL string) (string, error)
	Open(relPath string) ([]byte, error)
	Store(rawURL string, b []byte) (string, error)
	AbsPath(relPath string) string
}

// OutputConfig is spec.md §4.4's ExportOutputConfig.
type OutputConfig struct {
	TaskName  string
	ExportDir string
}

type Exporter struct {
	Store         Store
	PictureMedia  MediaRepo
	VideoMedia    MediaRepo
	Client        remote.Client
	Logger        *log.Logger
	PostsPerHTML  int
	tmpl          *template.Template
}

func New(store Store, pictureMedia, videoMedia MediaRepo, client remote.Client, postsPerHTML int, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	if postsPerHTML <= 0 {
		postsPerHTML = 50
	}
	return &Exporter{
		Store:        store,
		PictureMedia: pictureMedia,
		VideoMedia:   videoMedia,
		Client:       client,
		Logger:       logger,
		PostsPerHTML: postsPerHTML,
		tmpl:         mustParseTemplates(),
	}
}

// Reporter mirrors ingestion.Reporter for subtask-error logging during
// on-demand media fetches.
type Reporter interface {
	SubTaskError(e model.SubTaskError)
}

// Export renders every post matching f into posts_<n>.html files under
// <export_dir>/<task_name>/, with referenced media copied/hardlinked
// into a co-located media/ directory (spec.md §4.4).
func (e *Exporter) Export(ctx context.Context, f query.Filter, out OutputConfig, rep Reporter) (batches int, totalPosts int, err error) {
	_, total, err := e.Store.QueryPosts(ctx, f, query.Pagination{Page: 1, PostsPerPage: 1})
	if err != nil {
		return 0, 0, fmt.Errorf("count matching posts: %w", err)
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("no posts match the export query")
	}

	bundleDir := filepath.Join(out.ExportDir, out.TaskName)
	mediaDir := filepath.Join(bundleDir, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create bundle dir: %w", err)
	}

	page := 1
	batch := 0
	for {
		select {
		case <-ctx.Done():
			return batch, totalPosts, ctx.Err()
		default:
		}

		ids, _, err := e.Store.QueryPosts(ctx, f, query.Pagination{Page: page, PostsPerPage: e.PostsPerHTML})
		if err != nil {
			return batch, totalPosts, fmt.Errorf("query batch %d: %w", batch, err)
		}
		if len(ids) == 0 {
			break
		}

		views := make([]*postView, 0, len(ids))
		for _, id := range ids {
			v, err := e.buildView(ctx, id, mediaDir, rep)
			if err != nil {
				rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: fmt.Sprint(id), Message: err.Error()})
				continue
			}
			views = append(views, v)
		}

		if err := e.renderBatch(bundleDir, batch, views); err != nil {
			return batch, totalPosts, err
		}
		totalPosts += len(views)
		batch++
		page++

		e.Logger.Printf("[Exporter] batch=%d posts=%d task=%s", batch-1, len(views), out.TaskName)

		if len(ids) < e.PostsPerHTML {
			break
		}
	}
	return batch, totalPosts, nil
}

func (e *Exporter) renderBatch(bundleDir string, batch int, views []*postView) error {
	path := filepath.Join(bundleDir, fmt.Sprintf("posts_%d.html", batch))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := e.tmpl.ExecuteTemplate(f, "posts.html.tmpl", struct{ Posts []*postView }{views}); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
