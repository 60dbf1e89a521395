// Package core wires Storage, the media repositories, Ingestion,
// Exporter, Cleanup, Unfavorite and TaskManager into the single
// command surface a UI or CLI drives (spec.md §2's module list). Every
// long-running operation runs as exactly one taskmanager job, matching
// the teacher's "one singleton worker slot" shape generalized from a
// fixed worker fleet to an open set of user-triggered job kinds.
package core

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/weiback-dev/weiback/internal/auth"
	"github.com/weiback-dev/weiback/internal/cleanup"
	"github.com/weiback-dev/weiback/internal/config"
	"github.com/weiback-dev/weiback/internal/exporter"
	"github.com/weiback-dev/weiback/internal/ingestion"
	"github.com/weiback-dev/weiback/internal/media"
	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/query"
	"github.com/weiback-dev/weiback/internal/remote"
	"github.com/weiback-dev/weiback/internal/storage"
	"github.com/weiback-dev/weiback/internal/taskmanager"
	"github.com/weiback-dev/weiback/internal/unfavorite"
)

type Core struct {
	store    *storage.Store
	pictures *media.CachedRepository
	videos   *media.CachedRepository
	client   remote.Client
	auth     auth.Provider
	cfg      *config.Store
	tasks    *taskmanager.Manager
	logger   *log.Logger
}

// New wires every module together from a loaded Config. client and
// authProvider are the two external collaborators spec.md §1 names:
// the remote HTTP surface and the SMS-login flow, neither implemented
// by this module.
func New(cfg *config.Config, client remote.Client, authProvider auth.Provider, logger *log.Logger) (*Core, error) {
	if logger == nil {
		logger = log.Default()
	}
	store, err := storage.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Core{
		store:    store,
		pictures: media.NewCachedRepository(cfg.PicturePath, 200),
		videos:   media.NewCachedRepository(cfg.VideoPath, 50),
		client:   client,
		auth:     authProvider,
		cfg:      config.NewStore(*cfg),
		tasks:    taskmanager.New(logger),
		logger:   logger,
	}, nil
}

func (c *Core) Close() error { return c.store.Close() }

// SetHub attaches a live-progress broadcaster (e.g. a websocket hub) to
// the task manager.
func (c *Core) SetHub(h *taskmanager.Hub) { c.tasks.SetHub(h) }

// --- Auth surface ---

func (c *Core) LoginState(ctx context.Context) (auth.State, error) { return c.auth.State(ctx) }

func (c *Core) GetSMSCode(ctx context.Context, phone string) error {
	return c.auth.RequestSMSCode(ctx, phone)
}

func (c *Core) Login(ctx context.Context, phone, code string) error {
	return c.auth.Login(ctx, phone, code)
}

// --- Ingestion surface ---

func (c *Core) engine() *ingestion.Engine {
	return ingestion.NewEngine(c.store, c.pictures, c.videos, c.client, c.cfg.Get(), c.logger)
}

func (c *Core) BackupUser(uid int64, numPages int, filter remote.TimelineFilter) (string, error) {
	desc := ingestion.JobDescriptor{Kind: ingestion.BackupUser, UID: uid, NumPages: numPages, Filter: filter}
	return c.tasks.StartJob(taskmanager.KindBackupUser, fmt.Sprintf("backup user %d", uid), func(ctx context.Context, t *taskmanager.Task) {
		c.runIngestion(ctx, t, desc)
	})
}

func (c *Core) BackupFavorites(numPages int) (string, error) {
	desc := ingestion.JobDescriptor{Kind: ingestion.BackupFavorites, NumPages: numPages}
	return c.tasks.StartJob(taskmanager.KindBackupFavorites, "backup favorites", func(ctx context.Context, t *taskmanager.Task) {
		c.runIngestion(ctx, t, desc)
	})
}

func (c *Core) RebackupPost(postID int64) (string, error) {
	desc := ingestion.JobDescriptor{Kind: ingestion.RebackupPost, PostID: postID}
	return c.tasks.StartJob(taskmanager.KindRebackupPost, fmt.Sprintf("rebackup post %d", postID), func(ctx context.Context, t *taskmanager.Task) {
		c.runIngestion(ctx, t, desc)
	})
}

func (c *Core) runIngestion(ctx context.Context, t *taskmanager.Task, desc ingestion.JobDescriptor) {
	rep := newTaskReporter(c.tasks, t)
	if _, err := c.engine().Run(ctx, desc, rep); err != nil {
		c.tasks.Fail(t, err)
		return
	}
	c.tasks.Complete(t)
}

// --- Unfavorite surface ---

func (c *Core) UnfavoritePosts() (string, error) {
	cfg := c.cfg.Get()
	job := unfavorite.New(c.store, c.client, interRequestDelay(cfg), c.logger)
	return c.tasks.StartJob(taskmanager.KindUnfavorite, "unfavorite posts", func(ctx context.Context, t *taskmanager.Task) {
		rep := newTaskReporter(c.tasks, t)
		if _, err := job.Run(ctx, rep); err != nil {
			c.tasks.Fail(t, err)
			return
		}
		c.tasks.Complete(t)
	})
}

// --- Query surface ---

func (c *Core) QueryLocalPosts(ctx context.Context, f query.Filter, p query.Pagination) ([]model.Post, int, error) {
	ids, total, err := c.store.QueryPosts(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	posts := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		post, err := c.store.GetPost(ctx, id)
		if err != nil {
			return nil, 0, fmt.Errorf("load post %d: %w", id, err)
		}
		posts = append(posts, post)
	}
	return posts, total, nil
}

func (c *Core) DeletePost(ctx context.Context, id int64) error {
	return c.store.DeletePostCascade(ctx, id)
}

func (c *Core) GetUsernameByID(ctx context.Context, uid int64) (string, error) {
	return c.store.GetUsernameByID(ctx, uid)
}

func (c *Core) SearchIDByUsernamePrefix(ctx context.Context, prefix string) ([]model.User, error) {
	return c.store.QueryUsersWithPrefix(ctx, prefix)
}

// --- Export surface ---

func (c *Core) ExportPosts(f query.Filter, out exporter.OutputConfig) (string, error) {
	cfg := c.cfg.Get()
	exp := exporter.New(c.store, c.pictures, c.videos, c.client, cfg.PostsPerHTML, c.logger)
	return c.tasks.StartJob(taskmanager.KindExport, fmt.Sprintf("export to %s", out.TaskName), func(ctx context.Context, t *taskmanager.Task) {
		rep := newTaskReporter(c.tasks, t)
		batches, total, err := exp.Export(ctx, f, out, rep)
		if err != nil {
			c.tasks.Fail(t, err)
			return
		}
		c.tasks.ReportProgress(t, total, total)
		c.logger.Printf("[Core] export complete batches=%d posts=%d", batches, total)
		c.tasks.Complete(t)
	})
}

// GetPictureBlob looks up pictureID's stored variants and returns the
// bytes of the best-resolution one actually downloaded, per spec.md
// §4.2/§6's open(id). A picture with no downloaded variant (only
// placeholder rows) reports media.NotFoundError, the same as a
// variant whose file has gone missing from disk.
func (c *Core) GetPictureBlob(ctx context.Context, pictureID string) ([]byte, error) {
	variants, err := c.store.QueryResolutionVariants(ctx, pictureID)
	if err != nil {
		return nil, fmt.Errorf("query variants for picture %s: %w", pictureID, err)
	}
	for i := len(variants) - 1; i >= 0; i-- {
		if variants[i].Path != nil {
			return c.pictures.OpenCached(pictureID, *variants[i].Path)
		}
	}
	return nil, &media.NotFoundError{RelPath: pictureID}
}

// --- Cleanup surface ---

func (c *Core) cleaner() *cleanup.Cleaner {
	return cleanup.New(c.store, c.pictures, c.logger)
}

func (c *Core) CleanupPictures(pictureIDs []string, policy cleanup.Policy) (string, error) {
	return c.tasks.StartJob(taskmanager.KindCleanupPictures, "cleanup duplicate pictures", func(ctx context.Context, t *taskmanager.Task) {
		rep := newTaskReporter(c.tasks, t)
		if _, _, err := c.cleaner().CleanupPictures(ctx, pictureIDs, policy, rep); err != nil {
			c.tasks.Fail(t, err)
			return
		}
		c.tasks.Complete(t)
	})
}

func (c *Core) CleanupInvalidAvatars() (string, error) {
	return c.tasks.StartJob(taskmanager.KindCleanupAvatars, "cleanup stale avatars", func(ctx context.Context, t *taskmanager.Task) {
		rep := newTaskReporter(c.tasks, t)
		if _, _, err := c.cleaner().CleanupAvatars(ctx, rep); err != nil {
			c.tasks.Fail(t, err)
			return
		}
		c.tasks.Complete(t)
	})
}

// --- Task surface ---

func (c *Core) GetCurrentTaskStatus() *taskmanager.Snapshot { return c.tasks.GetCurrentTask() }

func (c *Core) CancelCurrentTask() { c.tasks.Cancel() }

func (c *Core) GetAndClearSubTaskErrors() []model.SubTaskError { return c.tasks.TakeSubTaskErrors() }

// --- Config surface ---

func (c *Core) GetConfig() config.Config { return c.cfg.Get() }

func (c *Core) SetConfig(cfg config.Config) { c.cfg.Set(cfg) }

func interRequestDelay(cfg config.Config) time.Duration {
	if cfg.OtherTaskInterval <= 0 {
		return time.Second
	}
	return time.Duration(cfg.OtherTaskInterval) * time.Second
}
